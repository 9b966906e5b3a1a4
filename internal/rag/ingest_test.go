package rag

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"faqbot/pkg/store"
)

func testIngestor(s store.Store) *Ingestor {
	return NewIngestor(s, slog.New(slog.NewTextHandler(io.Discard, nil)), DefaultChunkSize)
}

func TestIngestDocumentStoresContentAndEmbedding(t *testing.T) {
	s := store.NewMemoryStore()
	ingestor := testIngestor(s)

	content := "Our hours are 9 to 5. We are closed on Sundays."
	doc, err := ingestor.IngestDocument("sess", "hours.txt", []byte(content), MimeText)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != content {
		t.Fatalf("content: got %q", doc.Content)
	}

	stored, ok, err := s.GetDocument(doc.ID)
	if err != nil || !ok {
		t.Fatalf("stored document missing: ok=%v err=%v", ok, err)
	}
	want := Embed(FirstChunk(content, DefaultChunkSize))
	if len(stored.Embedding) != len(want) {
		t.Fatalf("embedding length: got %d want %d", len(stored.Embedding), len(want))
	}
	for i := range want {
		if stored.Embedding[i] != want[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}
}

func TestIngestDocumentUnsupportedFormat(t *testing.T) {
	s := store.NewMemoryStore()
	ingestor := testIngestor(s)

	_, err := ingestor.IngestDocument("sess", "img.png", []byte{0x89}, "image/png")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}

	docs, err := s.GetDocumentsBySession("sess")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Fatalf("document stored despite extraction failure: %d", len(docs))
	}
}

func TestIngestDocumentNoSentencesLeavesEmbeddingUnset(t *testing.T) {
	s := store.NewMemoryStore()
	ingestor := testIngestor(s)

	doc, err := ingestor.IngestDocument("sess", "blank.txt", []byte("   \n  "), MimeText)
	if err != nil {
		t.Fatal(err)
	}
	stored, _, err := s.GetDocument(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Embedding != nil {
		t.Fatalf("expected nil embedding, got %v", stored.Embedding)
	}
}

func TestIngestWebsiteStoresAndEmbeds(t *testing.T) {
	s := store.NewMemoryStore()
	ingestor := testIngestor(s)

	record, err := ingestor.IngestWebsite("sess", "https://example.com", "Example", "We sell widgets. Contact us anytime.")
	if err != nil {
		t.Fatal(err)
	}
	stored, ok, err := s.GetWebsiteContent(record.ID)
	if err != nil || !ok {
		t.Fatalf("stored website content missing: ok=%v err=%v", ok, err)
	}
	if stored.Embedding == nil {
		t.Fatal("expected embedding on website content")
	}
	if stored.Title != "Example" || stored.URL != "https://example.com" {
		t.Fatalf("metadata lost: %+v", stored)
	}
}
