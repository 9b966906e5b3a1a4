package store

import (
	"testing"
	"time"

	"faqbot/pkg/domain"
)

func TestMemoryStoreDocumentLifecycle(t *testing.T) {
	s := NewMemoryStore()
	if err := s.CreateChatSession(domain.ChatSession{ID: "sess-1", APIKey: "key", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	doc := domain.Document{ID: "doc-1", SessionID: "sess-1", Filename: "faq.txt", Content: "Our hours are 9 to 5.", CreatedAt: time.Now().UTC()}
	if err := s.CreateDocument(doc); err != nil {
		t.Fatalf("create document: %v", err)
	}

	got, ok, err := s.GetDocument("doc-1")
	if err != nil || !ok {
		t.Fatalf("get document: ok=%v err=%v", ok, err)
	}
	if got.Embedding != nil {
		t.Fatalf("new document should have nil embedding, got %v", got.Embedding)
	}

	if err := s.UpdateDocumentEmbedding("doc-1", []float64{0.5, 0.5}); err != nil {
		t.Fatalf("update embedding: %v", err)
	}
	got, _, _ = s.GetDocument("doc-1")
	if len(got.Embedding) != 2 {
		t.Fatalf("embedding not attached: %v", got.Embedding)
	}

	if err := s.UpdateDocumentEmbedding("missing", []float64{1}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing document, got %v", err)
	}
}

func TestMemoryStoreDocumentsKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateDocument(domain.Document{ID: id, SessionID: "sess-1", Filename: id + ".txt"}); err != nil {
			t.Fatalf("create document %s: %v", id, err)
		}
	}
	docs, err := s.GetDocumentsBySession("sess-1")
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, id := range []string{"a", "b", "c"} {
		if docs[i].ID != id {
			t.Fatalf("document %d = %s, want %s", i, docs[i].ID, id)
		}
	}
}

func TestMemoryStoreMessagesSortedByTimestamp(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Append out of order; retrieval must sort ascending.
	for _, m := range []domain.ChatMessage{
		{ID: "m2", SessionID: "sess-1", Role: domain.RoleAssistant, Content: "second", CreatedAt: base.Add(2 * time.Second)},
		{ID: "m1", SessionID: "sess-1", Role: domain.RoleUser, Content: "first", CreatedAt: base.Add(time.Second)},
	} {
		if err := s.AppendChatMessage(m); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}
	msgs, err := s.GetChatMessagesBySession("sess-1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("messages not sorted by timestamp: %+v", msgs)
	}
}

func TestMemoryStoreSessionsIsolated(t *testing.T) {
	s := NewMemoryStore()
	_ = s.CreateDocument(domain.Document{ID: "d1", SessionID: "sess-1"})
	_ = s.CreateWebsiteContent(domain.WebsiteContent{ID: "w1", SessionID: "sess-2", URL: "https://example.com"})

	docs, _ := s.GetDocumentsBySession("sess-2")
	if len(docs) != 0 {
		t.Fatalf("sess-2 should have no documents, got %d", len(docs))
	}
	pages, _ := s.GetWebsiteContentBySession("sess-2")
	if len(pages) != 1 {
		t.Fatalf("sess-2 should have one page, got %d", len(pages))
	}
}
