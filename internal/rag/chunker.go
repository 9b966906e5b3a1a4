package rag

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the maximum chunk length in characters.
const DefaultChunkSize = 1000

var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

// SplitSentences cuts text on sentence-ending punctuation, trimming
// whitespace and discarding empty fragments. Input without any terminator
// is treated as a single sentence.
func SplitSentences(text string) []string {
	parts := sentenceSplitter.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// Chunk greedily accumulates sentences into segments of at most maxChars.
// A sentence is never split, so a single sentence longer than maxChars
// becomes a chunk on its own. maxChars <= 0 falls back to DefaultChunkSize.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	sentences := SplitSentences(text)

	var chunks []string
	var current string
	for _, sentence := range sentences {
		if len(current)+len(sentence) > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(current))
			current = sentence
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// FirstChunk returns the first chunk of text, or "" when the text contains
// no sentences.
func FirstChunk(text string, maxChars int) string {
	chunks := Chunk(text, maxChars)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0]
}
