package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Embedding vectors are persisted as a
// jsonb float array; similarity search runs in-process over the 100-dim
// letter-frequency vectors, so no vector column type is involved.
type ChatSessionModel struct {
	ID         string `gorm:"primaryKey"`
	APIKey     string `gorm:"not null"`
	WebsiteURL string
	CreatedAt  time.Time `gorm:"not null"`
}

type DocumentModel struct {
	ID        string                      `gorm:"primaryKey"`
	SessionID string                      `gorm:"not null;index"`
	Filename  string                      `gorm:"not null"`
	Content   string                      `gorm:"type:text;not null"`
	Embedding datatypes.JSONSlice[float64] `gorm:"type:jsonb"`
	CreatedAt time.Time                   `gorm:"not null;index"`
}

type WebsiteContentModel struct {
	ID        string                      `gorm:"primaryKey"`
	SessionID string                      `gorm:"not null;index"`
	URL       string                      `gorm:"not null"`
	Title     string
	Content   string                      `gorm:"type:text;not null"`
	Embedding datatypes.JSONSlice[float64] `gorm:"type:jsonb"`
	CreatedAt time.Time                   `gorm:"not null;index"`
}

type ChatMessageModel struct {
	ID        string    `gorm:"primaryKey"`
	SessionID string    `gorm:"not null;index"`
	Role      string    `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
