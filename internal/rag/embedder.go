// Package rag implements the retrieval-augmented response pipeline: text
// extraction, chunking, the demo-grade embedding scheme, relevant-content
// selection, and the grounded response policy.
package rag

import (
	"math"
	"strings"
)

// EmbeddingDim is the fixed vector length. Only the first 26 buckets (one
// per letter a-z) ever receive counts; the remaining buckets stay zero.
// That is an acknowledged property of this demo-grade scheme.
const EmbeddingDim = 100

// Embed maps text to a fixed-length letter-frequency vector, L2-normalized.
// Text with no a-z characters yields the all-zero vector. Vectors are only
// comparable to vectors produced by this same scheme.
func Embed(text string) []float64 {
	embedding := make([]float64, EmbeddingDim)
	normalized := strings.ToLower(text)
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c >= 'a' && c <= 'z' {
			embedding[c-'a']++
		}
	}
	var sum float64
	for _, v := range embedding {
		sum += v * v
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return embedding
	}
	for i := range embedding {
		embedding[i] /= magnitude
	}
	return embedding
}

// Similarity returns the cosine similarity of two vectors in [-1, 1].
// Vectors of different lengths, or with zero magnitude, compare as 0.
func Similarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
