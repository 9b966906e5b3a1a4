// Package app wires the chat pipeline together: session lifecycle, document
// uploads, message handling, and conversation insights.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"faqbot/internal/rag"
	"faqbot/internal/scraper"
	"faqbot/internal/util"
	"faqbot/pkg/ai"
	"faqbot/pkg/domain"
	"faqbot/pkg/queue"
	"faqbot/pkg/storage"
	"faqbot/pkg/store"
)

// ErrSessionNotFound is returned for operations on unknown sessions.
var ErrSessionNotFound = errors.New("chat session not found")

// MaxUploadFiles limits one upload batch.
const MaxUploadFiles = 5

const uploadConcurrency = 3

// GeneratorFactory builds a text generator bound to one session's API key.
type GeneratorFactory func(apiKey string) ai.TextGenerator

// AnalyzerFactory builds a structured-output generator for the insights
// endpoints. May be nil when the configured provider cannot do structured
// output; insights then degrade to neutral values.
type AnalyzerFactory func(apiKey string) ai.StructuredGenerator

// App is the chat service facade used by the HTTP layer.
type App struct {
	store        store.Store
	ingestor     *rag.Ingestor
	retriever    *rag.Retriever
	responder    *rag.Responder
	scraper      *scraper.Scraper
	newGenerator GeneratorFactory
	newAnalyzer  AnalyzerFactory
	embedQueue   *queue.RedisEmbedQueue
	archive      storage.ObjectStore
	logger       *slog.Logger
}

// Options carries the optional collaborators.
type Options struct {
	// EmbedQueue defers the embedding phase of ingestion to queue workers.
	// Nil embeds inline.
	EmbedQueue *queue.RedisEmbedQueue
	// Archive keeps original upload bytes in object storage. Nil disables
	// archiving.
	Archive storage.ObjectStore
	// NewAnalyzer enables the insights endpoint.
	NewAnalyzer AnalyzerFactory
}

func New(s store.Store, ingestor *rag.Ingestor, retriever *rag.Retriever, responder *rag.Responder, sc *scraper.Scraper, newGenerator GeneratorFactory, logger *slog.Logger, opts Options) *App {
	return &App{
		store:        s,
		ingestor:     ingestor,
		retriever:    retriever,
		responder:    responder,
		scraper:      sc,
		newGenerator: newGenerator,
		newAnalyzer:  opts.NewAnalyzer,
		embedQueue:   opts.EmbedQueue,
		archive:      opts.Archive,
		logger:       logger,
	}
}

// CreateSessionParams are the caller-supplied session fields. SessionID is
// optional; one is generated when absent.
type CreateSessionParams struct {
	SessionID  string
	APIKey     string
	WebsiteURL string
}

// CreateSession registers a session and, when a website URL is given, scrapes
// it for grounding content. A scrape failure does not fail session creation;
// it is reported back as a warning.
func (a *App) CreateSession(ctx context.Context, params CreateSessionParams) (domain.ChatSession, string, error) {
	if strings.TrimSpace(params.APIKey) == "" {
		return domain.ChatSession{}, "", errors.New("apiKey is required")
	}
	sessionID := strings.TrimSpace(params.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session := domain.ChatSession{
		ID:         sessionID,
		APIKey:     params.APIKey,
		WebsiteURL: strings.TrimSpace(params.WebsiteURL),
		CreatedAt:  time.Now(),
	}
	if err := a.store.CreateChatSession(session); err != nil {
		return domain.ChatSession{}, "", fmt.Errorf("create session: %w", err)
	}

	var warning string
	if session.WebsiteURL != "" {
		if err := a.scrapeIntoSession(ctx, sessionID, session.WebsiteURL); err != nil {
			a.logger.Error("website scrape failed", "sessionId", sessionID, "url", session.WebsiteURL, "error", err)
			warning = fmt.Sprintf("website could not be scraped: %v", err)
		}
	}
	return session, warning, nil
}

func (a *App) scrapeIntoSession(ctx context.Context, sessionID, url string) error {
	result, err := a.scraper.Scrape(ctx, url)
	if err != nil {
		return err
	}
	if a.embedQueue == nil {
		_, err = a.ingestor.IngestWebsite(sessionID, url, result.Title, result.Content)
		return err
	}
	record, err := a.ingestor.StoreWebsite(sessionID, url, result.Title, result.Content)
	if err != nil {
		return err
	}
	if _, err := a.embedQueue.Enqueue(ctx, queue.KindWebsite, record.ID); err != nil {
		a.logger.Error("enqueue website embed failed", "contentId", record.ID, "error", err)
	}
	return nil
}

// GetSession returns one session.
func (a *App) GetSession(sessionID string) (domain.ChatSession, error) {
	session, ok, err := a.store.GetChatSession(sessionID)
	if err != nil {
		return domain.ChatSession{}, err
	}
	if !ok {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	return session, nil
}

// UploadFile is one file from a multipart upload batch.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadError reports a single file that could not be ingested.
type UploadError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// UploadResult is the per-batch outcome. Files succeed and fail
// independently.
type UploadResult struct {
	Documents []domain.Document `json:"documents"`
	Errors    []UploadError     `json:"errors,omitempty"`
}

// UploadDocuments ingests a batch of files for a session. Each file is
// processed independently; one bad file never blocks its siblings.
func (a *App) UploadDocuments(ctx context.Context, sessionID string, files []UploadFile) (UploadResult, error) {
	if _, err := a.GetSession(sessionID); err != nil {
		return UploadResult{}, err
	}
	if len(files) == 0 {
		return UploadResult{}, errors.New("no files uploaded")
	}
	if len(files) > MaxUploadFiles {
		return UploadResult{}, fmt.Errorf("too many files: %d (max %d)", len(files), MaxUploadFiles)
	}

	var mu sync.Mutex
	result := UploadResult{Documents: make([]domain.Document, 0, len(files))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			doc, err := a.ingestFile(gctx, sessionID, file)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, UploadError{Filename: file.Filename, Error: err.Error()})
				return nil
			}
			result.Documents = append(result.Documents, doc)
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

func (a *App) ingestFile(ctx context.Context, sessionID string, file UploadFile) (domain.Document, error) {
	var doc domain.Document
	var err error
	if a.embedQueue == nil {
		doc, err = a.ingestor.IngestDocument(sessionID, file.Filename, file.Data, file.ContentType)
	} else {
		doc, err = a.ingestor.StoreDocument(sessionID, file.Filename, file.Data, file.ContentType)
		if err == nil {
			if _, qerr := a.embedQueue.Enqueue(ctx, queue.KindDocument, doc.ID); qerr != nil {
				a.logger.Error("enqueue document embed failed", "documentId", doc.ID, "error", qerr)
			}
		}
	}
	if err != nil {
		return domain.Document{}, err
	}
	if a.archive != nil {
		if aerr := storage.ArchiveUpload(ctx, a.archive, sessionID, doc.ID, file.Filename, file.ContentType, file.Data); aerr != nil {
			a.logger.Error("upload archive failed", "documentId", doc.ID, "error", aerr)
		}
	}
	return doc, nil
}

// SendMessage stores the user's message, generates a grounded reply, stores
// it, and returns both turns.
func (a *App) SendMessage(ctx context.Context, sessionID, content string) (domain.ChatMessage, domain.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return domain.ChatMessage{}, domain.ChatMessage{}, errors.New("message content is required")
	}
	session, err := a.GetSession(sessionID)
	if err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, err
	}

	userMsg := domain.ChatMessage{
		ID:        util.NewID(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := a.store.AppendChatMessage(userMsg); err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, fmt.Errorf("store user message: %w", err)
	}

	chunks, err := a.retriever.Retrieve(sessionID, content)
	if err != nil {
		// Degrade to an ungrounded reply rather than failing the turn.
		a.logger.Error("retrieval failed", "sessionId", sessionID, "error", err)
		chunks = nil
	}
	reply := a.responder.Respond(ctx, a.newGenerator(session.APIKey), content, chunks)

	aiMsg := domain.ChatMessage{
		ID:        util.NewID(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}
	if err := a.store.AppendChatMessage(aiMsg); err != nil {
		return domain.ChatMessage{}, domain.ChatMessage{}, fmt.Errorf("store assistant message: %w", err)
	}
	return userMsg, aiMsg, nil
}

// History returns a session's messages, oldest first.
func (a *App) History(sessionID string) ([]domain.ChatMessage, error) {
	return a.store.GetChatMessagesBySession(sessionID)
}

// Insights analyzes the user side of a conversation: sentiment plus key
// topics. Analysis is advisory; provider failures yield neutral results.
func (a *App) Insights(ctx context.Context, sessionID string) (domain.Insights, error) {
	session, err := a.GetSession(sessionID)
	if err != nil {
		return domain.Insights{}, err
	}
	messages, err := a.store.GetChatMessagesBySession(sessionID)
	if err != nil {
		return domain.Insights{}, err
	}

	var userText []string
	for _, msg := range messages {
		if msg.Role == domain.RoleUser {
			userText = append(userText, msg.Content)
		}
	}
	insights := domain.Insights{SentimentRating: 3, SentimentConfidence: 0.5, Topics: []string{}}
	if len(userText) == 0 || a.newAnalyzer == nil {
		return insights, nil
	}

	analyzer := a.newAnalyzer(session.APIKey)
	text := strings.Join(userText, "\n")
	sentiment := ai.AnalyzeSentiment(ctx, analyzer, text)
	insights.SentimentRating = sentiment.Rating
	insights.SentimentConfidence = sentiment.Confidence
	insights.Topics = ai.ExtractKeyTopics(ctx, analyzer, text)
	return insights, nil
}

// ProcessEmbedJob runs one deferred embedding job. Used as the queue worker
// handler.
func (a *App) ProcessEmbedJob(_ context.Context, job queue.EmbedJob) error {
	switch job.Kind {
	case queue.KindDocument:
		return a.ingestor.EmbedDocument(job.ContentID)
	case queue.KindWebsite:
		return a.ingestor.EmbedWebsiteContent(job.ContentID)
	default:
		return fmt.Errorf("unknown embed job kind %q", job.Kind)
	}
}
