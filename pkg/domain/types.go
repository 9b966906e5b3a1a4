package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession groups one operator's uploaded content, website, credential,
// and chat history. The API key lives only for the duration of the session's
// model calls and is never serialized or logged.
type ChatSession struct {
	ID         string    `json:"sessionId"`
	APIKey     string    `json:"-"`
	WebsiteURL string    `json:"websiteUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Document is an uploaded file after text extraction. Embedding is nil until
// the second phase of ingestion attaches the representative vector.
type Document struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebsiteContent is a scraped page bound to a session. Same two-phase
// embedding lifecycle as Document.
type WebsiteContent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is one turn of a session's conversation. Append-only.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// RetrievedChunk is a piece of session content selected as grounding
// context for one query, with a human-readable source label.
type RetrievedChunk struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Insights is the auxiliary conversation analysis produced by the
// structured-output model calls.
type Insights struct {
	SentimentRating     float64  `json:"sentimentRating"`
	SentimentConfidence float64  `json:"sentimentConfidence"`
	Topics              []string `json:"topics"`
}
