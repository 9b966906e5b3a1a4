package rag

import (
	"fmt"
	"log/slog"
	"time"

	"faqbot/internal/util"
	"faqbot/pkg/domain"
	"faqbot/pkg/store"
)

// Ingestor runs the two-phase content pipeline: extract and persist first,
// then attach a representative embedding. A record whose embedding phase
// fails stays queryable, it just never matches retrieval.
type Ingestor struct {
	store     store.Store
	logger    *slog.Logger
	chunkSize int
}

func NewIngestor(s store.Store, logger *slog.Logger, chunkSize int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Ingestor{store: s, logger: logger, chunkSize: chunkSize}
}

// IngestDocument extracts text from an uploaded file, persists the document,
// and embeds it. Extraction failures abort the file; embedding failures are
// logged and swallowed so the document itself survives.
func (in *Ingestor) IngestDocument(sessionID, filename string, data []byte, mimeType string) (domain.Document, error) {
	doc, err := in.StoreDocument(sessionID, filename, data, mimeType)
	if err != nil {
		return domain.Document{}, err
	}
	if err := in.EmbedDocument(doc.ID); err != nil {
		in.logger.Error("document embedding failed", "documentId", doc.ID, "filename", filename, "error", err)
	}
	return doc, nil
}

// StoreDocument runs only the first phase: extract and persist. Callers that
// defer embedding to the job queue use this directly.
func (in *Ingestor) StoreDocument(sessionID, filename string, data []byte, mimeType string) (domain.Document, error) {
	content, err := ExtractText(data, mimeType, filename)
	if err != nil {
		return domain.Document{}, err
	}

	doc := domain.Document{
		ID:        util.NewID(),
		SessionID: sessionID,
		Filename:  filename,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := in.store.CreateDocument(doc); err != nil {
		return domain.Document{}, fmt.Errorf("store document %s: %w", filename, err)
	}
	return doc, nil
}

// EmbedDocument computes and stores the representative embedding for a
// persisted document: the vector of its first chunk. Content with no
// sentences produces no chunks and leaves the embedding unset.
func (in *Ingestor) EmbedDocument(id string) error {
	doc, ok, err := in.store.GetDocument(id)
	if err != nil {
		return fmt.Errorf("load document %s: %w", id, err)
	}
	if !ok {
		return store.ErrNotFound
	}
	first := FirstChunk(doc.Content, in.chunkSize)
	if first == "" {
		return nil
	}
	if err := in.store.UpdateDocumentEmbedding(id, Embed(first)); err != nil {
		return fmt.Errorf("update document embedding %s: %w", id, err)
	}
	return nil
}

// IngestWebsite persists one scraped page and embeds it, with the same
// swallow-and-log policy for the embedding phase as documents.
func (in *Ingestor) IngestWebsite(sessionID, url, title, content string) (domain.WebsiteContent, error) {
	record, err := in.StoreWebsite(sessionID, url, title, content)
	if err != nil {
		return domain.WebsiteContent{}, err
	}
	if err := in.EmbedWebsiteContent(record.ID); err != nil {
		in.logger.Error("website embedding failed", "contentId", record.ID, "url", url, "error", err)
	}
	return record, nil
}

// StoreWebsite persists one scraped page without embedding it.
func (in *Ingestor) StoreWebsite(sessionID, url, title, content string) (domain.WebsiteContent, error) {
	record := domain.WebsiteContent{
		ID:        util.NewID(),
		SessionID: sessionID,
		URL:       url,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := in.store.CreateWebsiteContent(record); err != nil {
		return domain.WebsiteContent{}, fmt.Errorf("store website content %s: %w", url, err)
	}
	return record, nil
}

// EmbedWebsiteContent mirrors EmbedDocument for scraped pages.
func (in *Ingestor) EmbedWebsiteContent(id string) error {
	content, ok, err := in.store.GetWebsiteContent(id)
	if err != nil {
		return fmt.Errorf("load website content %s: %w", id, err)
	}
	if !ok {
		return store.ErrNotFound
	}
	first := FirstChunk(content.Content, in.chunkSize)
	if first == "" {
		return nil
	}
	if err := in.store.UpdateWebsiteContentEmbedding(id, Embed(first)); err != nil {
		return fmt.Errorf("update website embedding %s: %w", id, err)
	}
	return nil
}
