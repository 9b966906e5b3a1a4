package store

import (
	"errors"

	"faqbot/pkg/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations for sessions, documents, website
// content, and chat messages. Backends: MemoryStore (demo/tests) and
// GormStore (Postgres).
type Store interface {
	// sessions
	CreateChatSession(session domain.ChatSession) error
	GetChatSession(sessionID string) (domain.ChatSession, bool, error)

	// documents
	CreateDocument(doc domain.Document) error
	GetDocument(id string) (domain.Document, bool, error)
	GetDocumentsBySession(sessionID string) ([]domain.Document, error)
	UpdateDocumentEmbedding(id string, embedding []float64) error

	// website content
	CreateWebsiteContent(content domain.WebsiteContent) error
	GetWebsiteContent(id string) (domain.WebsiteContent, bool, error)
	GetWebsiteContentBySession(sessionID string) ([]domain.WebsiteContent, error)
	UpdateWebsiteContentEmbedding(id string, embedding []float64) error

	// chat messages
	AppendChatMessage(msg domain.ChatMessage) error
	GetChatMessagesBySession(sessionID string) ([]domain.ChatMessage, error)
}
