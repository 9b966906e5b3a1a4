package store

import (
	"sort"
	"sync"

	"faqbot/pkg/domain"
)

// MemoryStore keeps all records in-process. It is the default backend for
// the demo and for tests; a reader between the create and embed-update
// phases simply sees a nil embedding.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]domain.ChatSession
	documents map[string]domain.Document
	websites  map[string]domain.WebsiteContent
	messages  map[string][]domain.ChatMessage

	docOrder map[string][]string // sessionID -> document IDs, insertion order
	webOrder map[string][]string // sessionID -> website content IDs
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]domain.ChatSession),
		documents: make(map[string]domain.Document),
		websites:  make(map[string]domain.WebsiteContent),
		messages:  make(map[string][]domain.ChatMessage),
		docOrder:  make(map[string][]string),
		webOrder:  make(map[string][]string),
	}
}

// CreateChatSession stores a session keyed by its identifier.
func (m *MemoryStore) CreateChatSession(session domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

// GetChatSession retrieves a session by identifier.
func (m *MemoryStore) GetChatSession(sessionID string) (domain.ChatSession, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok, nil
}

// CreateDocument stores a document and tracks per-session insertion order.
func (m *MemoryStore) CreateDocument(doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.documents[doc.ID]; !exists {
		m.docOrder[doc.SessionID] = append(m.docOrder[doc.SessionID], doc.ID)
	}
	m.documents[doc.ID] = doc
	return nil
}

// GetDocument retrieves a document by id.
func (m *MemoryStore) GetDocument(id string) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	return doc, ok, nil
}

// GetDocumentsBySession returns a session's documents in insertion order.
func (m *MemoryStore) GetDocumentsBySession(sessionID string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.docOrder[sessionID]
	res := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.documents[id]; ok {
			res = append(res, doc)
		}
	}
	return res, nil
}

// UpdateDocumentEmbedding attaches the representative embedding vector.
func (m *MemoryStore) UpdateDocumentEmbedding(id string, embedding []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return ErrNotFound
	}
	doc.Embedding = embedding
	m.documents[id] = doc
	return nil
}

// CreateWebsiteContent stores a scraped page record.
func (m *MemoryStore) CreateWebsiteContent(content domain.WebsiteContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.websites[content.ID]; !exists {
		m.webOrder[content.SessionID] = append(m.webOrder[content.SessionID], content.ID)
	}
	m.websites[content.ID] = content
	return nil
}

// GetWebsiteContent retrieves a website content record by id.
func (m *MemoryStore) GetWebsiteContent(id string) (domain.WebsiteContent, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.websites[id]
	return content, ok, nil
}

// GetWebsiteContentBySession returns a session's scraped pages in insertion order.
func (m *MemoryStore) GetWebsiteContentBySession(sessionID string) ([]domain.WebsiteContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.webOrder[sessionID]
	res := make([]domain.WebsiteContent, 0, len(ids))
	for _, id := range ids {
		if content, ok := m.websites[id]; ok {
			res = append(res, content)
		}
	}
	return res, nil
}

// UpdateWebsiteContentEmbedding attaches the representative embedding vector.
func (m *MemoryStore) UpdateWebsiteContentEmbedding(id string, embedding []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.websites[id]
	if !ok {
		return ErrNotFound
	}
	content.Embedding = embedding
	m.websites[id] = content
	return nil
}

// AppendChatMessage records a message linked to a session.
func (m *MemoryStore) AppendChatMessage(msg domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return nil
}

// GetChatMessagesBySession returns a session's messages ordered by
// timestamp ascending.
func (m *MemoryStore) GetChatMessagesBySession(sessionID string) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[sessionID]
	copied := make([]domain.ChatMessage, len(msgs))
	copy(copied, msgs)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].CreatedAt.Before(copied[j].CreatedAt)
	})
	return copied, nil
}
