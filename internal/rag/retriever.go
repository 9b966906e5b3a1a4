package rag

import (
	"fmt"

	"faqbot/pkg/domain"
	"faqbot/pkg/store"
)

// Retrieval tuning. Only chunks scoring above the threshold are considered
// relevant, and at most maxRetrieved are handed to the generator.
const (
	similarityThreshold = 0.1
	maxRetrieved        = 5
)

// Retriever selects the stored content most similar to a query. It scans a
// session's documents first, then its scraped website content.
type Retriever struct {
	store store.Store
}

func NewRetriever(s store.Store) *Retriever {
	return &Retriever{store: s}
}

// Retrieve embeds the query and returns up to five chunks whose stored
// embeddings score above the similarity threshold. Results keep scan order:
// documents before website content, each in creation order; there is no
// re-ranking by score. Content whose embedding has not been computed yet is
// skipped.
func (r *Retriever) Retrieve(sessionID, query string) ([]domain.RetrievedChunk, error) {
	queryEmbedding := Embed(query)

	documents, err := r.store.GetDocumentsBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session documents: %w", err)
	}
	contents, err := r.store.GetWebsiteContentBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session website content: %w", err)
	}

	var chunks []domain.RetrievedChunk
	for _, doc := range documents {
		if doc.Embedding == nil {
			continue
		}
		if Similarity(queryEmbedding, doc.Embedding) > similarityThreshold {
			chunks = append(chunks, domain.RetrievedChunk{
				Content: doc.Content,
				Source:  "Document: " + doc.Filename,
			})
		}
	}
	for _, content := range contents {
		if content.Embedding == nil {
			continue
		}
		if Similarity(queryEmbedding, content.Embedding) > similarityThreshold {
			chunks = append(chunks, domain.RetrievedChunk{
				Content: content.Content,
				Source:  "Website: " + content.URL,
			})
		}
	}

	if len(chunks) > maxRetrieved {
		chunks = chunks[:maxRetrieved]
	}
	return chunks, nil
}
