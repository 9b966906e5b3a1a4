package rag

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"faqbot/pkg/domain"
	"faqbot/pkg/store"
)

// vec builds a raw 100-dim vector with the given component weights.
func vec(weights map[int]float64) []float64 {
	v := make([]float64, EmbeddingDim)
	for i, w := range weights {
		v[i] = w
	}
	return v
}

func seedDocument(t *testing.T, s store.Store, sessionID, filename, content string, embedding []float64) {
	t.Helper()
	doc := domain.Document{
		ID:        filename,
		SessionID: sessionID,
		Filename:  filename,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.CreateDocument(doc); err != nil {
		t.Fatal(err)
	}
	if embedding != nil {
		if err := s.UpdateDocumentEmbedding(doc.ID, embedding); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRetrieveFiltersBelowThreshold(t *testing.T) {
	s := store.NewMemoryStore()
	retriever := NewRetriever(s)

	// Query "aaa" embeds to a unit vector on the first bucket.
	seedDocument(t, s, "sess", "match.txt", "matching content", vec(map[int]float64{0: 1}))
	seedDocument(t, s, "sess", "weak.txt", "weak content", vec(map[int]float64{0: 0.05, 1: 1}))
	seedDocument(t, s, "sess", "orthogonal.txt", "unrelated content", vec(map[int]float64{1: 1}))
	seedDocument(t, s, "sess", "pending.txt", "not yet embedded", nil)

	chunks, err := retriever.Retrieve("sess", "aaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunk count: got %d want 1", len(chunks))
	}
	if chunks[0].Source != "Document: match.txt" {
		t.Fatalf("source: got %q", chunks[0].Source)
	}
	if chunks[0].Content != "matching content" {
		t.Fatalf("content: got %q", chunks[0].Content)
	}
}

func TestRetrieveCapsAtFiveInScanOrder(t *testing.T) {
	s := store.NewMemoryStore()
	retriever := NewRetriever(s)

	// Increasing first-bucket weight gives increasing similarity to "aaa",
	// so a score-based ranking would reverse the insertion order.
	for i := 0; i < 6; i++ {
		weight := 0.5 + float64(i)*0.1
		name := fmt.Sprintf("doc%d.txt", i)
		seedDocument(t, s, "sess", name, name+" content", vec(map[int]float64{0: weight, 1: 1}))
	}

	chunks, err := retriever.Retrieve("sess", "aaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 5 {
		t.Fatalf("chunk count: got %d want 5", len(chunks))
	}
	for i, chunk := range chunks {
		want := fmt.Sprintf("Document: doc%d.txt", i)
		if chunk.Source != want {
			t.Fatalf("position %d: got %q want %q", i, chunk.Source, want)
		}
	}
}

func TestRetrieveKeepsDocumentsBeforeWebsiteContent(t *testing.T) {
	s := store.NewMemoryStore()
	retriever := NewRetriever(s)

	// Website content scores higher than the document; scan order still
	// puts the document first.
	seedDocument(t, s, "sess", "faq.txt", "document content", vec(map[int]float64{0: 0.2, 1: 1}))
	content := domain.WebsiteContent{
		ID:        "web1",
		SessionID: "sess",
		URL:       "https://example.com",
		Content:   "website content",
		CreatedAt: time.Now(),
	}
	if err := s.CreateWebsiteContent(content); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateWebsiteContentEmbedding("web1", vec(map[int]float64{0: 1})); err != nil {
		t.Fatal(err)
	}

	chunks, err := retriever.Retrieve("sess", "aaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunk count: got %d want 2", len(chunks))
	}
	if chunks[0].Source != "Document: faq.txt" {
		t.Fatalf("first chunk: got %q want the document", chunks[0].Source)
	}
	if chunks[1].Source != "Website: https://example.com" {
		t.Fatalf("second chunk: got %q", chunks[1].Source)
	}
}

func TestRetrieveIncludesWebsiteContent(t *testing.T) {
	s := store.NewMemoryStore()
	retriever := NewRetriever(s)

	content := domain.WebsiteContent{
		ID:        "web1",
		SessionID: "sess",
		URL:       "https://example.com",
		Content:   "about the company",
		CreatedAt: time.Now(),
	}
	if err := s.CreateWebsiteContent(content); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateWebsiteContentEmbedding("web1", vec(map[int]float64{0: 1})); err != nil {
		t.Fatal(err)
	}

	chunks, err := retriever.Retrieve("sess", "aaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunk count: got %d want 1", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Source, "Website: ") {
		t.Fatalf("source: got %q", chunks[0].Source)
	}
}

func TestRetrieveIsolatedBySession(t *testing.T) {
	s := store.NewMemoryStore()
	retriever := NewRetriever(s)

	seedDocument(t, s, "other", "foreign.txt", "foreign content", vec(map[int]float64{0: 1}))

	chunks, err := retriever.Retrieve("sess", "aaa")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks from another session, got %d", len(chunks))
	}
}
