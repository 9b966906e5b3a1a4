package rag

import (
	"math"
	"testing"
)

func TestEmbedDimensionAndNorm(t *testing.T) {
	embedding := Embed("The quick brown fox jumps over the lazy dog")
	if len(embedding) != EmbeddingDim {
		t.Fatalf("embedding length: got %d want %d", len(embedding), EmbeddingDim)
	}
	var sum float64
	for _, v := range embedding {
		sum += v * v
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-9 {
		t.Fatalf("expected unit norm, got %f", math.Sqrt(sum))
	}
}

func TestEmbedNoLettersYieldsZeroVector(t *testing.T) {
	for _, text := range []string{"", "123 456 !!! ???"} {
		embedding := Embed(text)
		for i, v := range embedding {
			if v != 0 {
				t.Fatalf("Embed(%q): expected zero vector, index %d = %f", text, i, v)
			}
		}
	}
}

func TestEmbedCaseInsensitive(t *testing.T) {
	a := Embed("Hello World")
	b := Embed("hello world")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("case sensitivity at index %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestSimilaritySelfIsOne(t *testing.T) {
	v := Embed("business hours and pricing")
	if sim := Similarity(v, v); math.Abs(sim-1) > 1e-9 {
		t.Fatalf("self similarity: got %f want 1", sim)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a := Embed("shipping policy")
	b := Embed("return policy")
	if Similarity(a, b) != Similarity(b, a) {
		t.Fatal("similarity is not symmetric")
	}
}

func TestSimilarityDegenerateInputs(t *testing.T) {
	if sim := Similarity(make([]float64, 10), make([]float64, 20)); sim != 0 {
		t.Fatalf("length mismatch: got %f want 0", sim)
	}
	if sim := Similarity(make([]float64, EmbeddingDim), Embed("hello")); sim != 0 {
		t.Fatalf("zero vector: got %f want 0", sim)
	}
}
