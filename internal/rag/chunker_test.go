package rag

import (
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	sentences := SplitSentences("First one. Second one! Third one? ")
	want := []string{"First one", "Second one", "Third one"}
	if len(sentences) != len(want) {
		t.Fatalf("sentence count: got %d want %d", len(sentences), len(want))
	}
	for i := range want {
		if sentences[i] != want[i] {
			t.Fatalf("sentence %d: got %q want %q", i, sentences[i], want[i])
		}
	}
}

func TestSplitSentencesNoTerminator(t *testing.T) {
	sentences := SplitSentences("no punctuation here")
	if len(sentences) != 1 || sentences[0] != "no punctuation here" {
		t.Fatalf("got %v", sentences)
	}
}

func TestChunkSmallTextSingleChunk(t *testing.T) {
	chunks := Chunk("Short sentence. Another short one.", DefaultChunkSize)
	if len(chunks) != 1 {
		t.Fatalf("chunk count: got %d want 1", len(chunks))
	}
	if chunks[0] != "Short sentence Another short one" {
		t.Fatalf("chunk content: %q", chunks[0])
	}
}

func TestChunkSplitsAtLimit(t *testing.T) {
	sentence := strings.Repeat("a", 40)
	text := strings.Repeat(sentence+". ", 10)
	chunks := Chunk(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		// Two 40-char sentences joined fit in 100; three would not.
		if len(chunk) > 100 {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, len(chunk))
		}
	}
}

func TestChunkOversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("b", 250)
	chunks := Chunk(long+".", 100)
	if len(chunks) != 1 {
		t.Fatalf("chunk count: got %d want 1", len(chunks))
	}
	if chunks[0] != long {
		t.Fatal("oversized sentence was altered")
	}
}

func TestChunkPreservesSentenceOrder(t *testing.T) {
	text := "Alpha first. Beta second. Gamma third. Delta fourth."
	chunks := Chunk(text, 25)
	joined := strings.Join(chunks, " ")
	order := []string{"Alpha", "Beta", "Gamma", "Delta"}
	last := -1
	for _, word := range order {
		idx := strings.Index(joined, word)
		if idx < 0 {
			t.Fatalf("missing sentence containing %q", word)
		}
		if idx < last {
			t.Fatalf("sentence %q out of order", word)
		}
		last = idx
	}
}

func TestChunkReconstructsSentenceFilteredInput(t *testing.T) {
	text := "One sentence here. Another follows! A third? And a final one."
	for _, max := range []int{10, 25, 1000} {
		chunks := Chunk(text, max)
		want := strings.Join(SplitSentences(text), " ")
		if got := strings.Join(chunks, " "); got != want {
			t.Fatalf("max %d: reconstruction mismatch:\ngot  %q\nwant %q", max, got, want)
		}
	}
}

func TestFirstChunk(t *testing.T) {
	if got := FirstChunk("Only sentence.", DefaultChunkSize); got != "Only sentence" {
		t.Fatalf("got %q", got)
	}
	if got := FirstChunk("   ", DefaultChunkSize); got != "" {
		t.Fatalf("expected empty first chunk, got %q", got)
	}
}
