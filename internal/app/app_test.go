package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"faqbot/internal/rag"
	"faqbot/internal/scraper"
	"faqbot/pkg/ai"
	"faqbot/pkg/store"
)

type staticGenerator struct {
	reply string
}

func (g *staticGenerator) GenerateText(context.Context, string, string) (string, error) {
	return g.reply, nil
}

type staticAnalyzer struct {
	sentiment ai.Sentiment
	topics    []string
}

func (a *staticAnalyzer) GenerateJSON(_ context.Context, _, _ string, schema *ai.Schema, out any) error {
	switch v := out.(type) {
	case *ai.Sentiment:
		*v = a.sentiment
	case *[]string:
		*v = a.topics
	}
	return nil
}

func newTestApp(t *testing.T, opts Options) (*App, store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memStore := store.NewMemoryStore()
	application := New(
		memStore,
		rag.NewIngestor(memStore, logger, rag.DefaultChunkSize),
		rag.NewRetriever(memStore),
		rag.NewResponder(logger),
		scraper.New(0),
		func(string) ai.TextGenerator { return &staticGenerator{reply: "hello"} },
		logger,
		opts,
	)
	return application, memStore
}

func TestCreateSessionScrapesWebsite(t *testing.T) {
	page := `<html><head><title>Acme</title></head><body><p>` +
		strings.Repeat("We make widgets for every industry. ", 5) + `</p></body></html>`
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(site.Close)

	application, memStore := newTestApp(t, Options{})
	session, warning, err := application.CreateSession(context.Background(), CreateSessionParams{
		APIKey:     "key",
		WebsiteURL: site.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}

	contents, err := memStore.GetWebsiteContentBySession(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("website content count: %d", len(contents))
	}
	if contents[0].Title != "Acme" {
		t.Fatalf("title: %q", contents[0].Title)
	}
	if contents[0].Embedding == nil {
		t.Fatal("expected scraped content to be embedded")
	}
}

func TestCreateSessionSurvivesScrapeFailure(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(site.Close)

	application, _ := newTestApp(t, Options{})
	session, warning, err := application.CreateSession(context.Background(), CreateSessionParams{
		APIKey:     "key",
		WebsiteURL: site.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	if warning == "" {
		t.Fatal("expected scrape warning")
	}
	if _, err := application.GetSession(session.ID); err != nil {
		t.Fatalf("session should exist despite scrape failure: %v", err)
	}
}

func TestCreateSessionKeepsCallerSuppliedID(t *testing.T) {
	application, _ := newTestApp(t, Options{})
	session, _, err := application.CreateSession(context.Background(), CreateSessionParams{
		SessionID: "widget-kiosk-7",
		APIKey:    "key",
	})
	if err != nil {
		t.Fatal(err)
	}
	if session.ID != "widget-kiosk-7" {
		t.Fatalf("session id: %q", session.ID)
	}
}

func TestInsightsAnalyzesUserMessages(t *testing.T) {
	analyzer := &staticAnalyzer{
		sentiment: ai.Sentiment{Rating: 4, Confidence: 0.9},
		topics:    []string{"shipping", "pricing"},
	}
	application, _ := newTestApp(t, Options{
		NewAnalyzer: func(string) ai.StructuredGenerator { return analyzer },
	})

	session, _, err := application.CreateSession(context.Background(), CreateSessionParams{APIKey: "key"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := application.SendMessage(context.Background(), session.ID, "How much is shipping?"); err != nil {
		t.Fatal(err)
	}

	insights, err := application.Insights(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if insights.SentimentRating != 4 || insights.SentimentConfidence != 0.9 {
		t.Fatalf("sentiment: %+v", insights)
	}
	if len(insights.Topics) != 2 {
		t.Fatalf("topics: %v", insights.Topics)
	}
}

func TestInsightsNeutralWithoutMessages(t *testing.T) {
	application, _ := newTestApp(t, Options{})
	session, _, err := application.CreateSession(context.Background(), CreateSessionParams{APIKey: "key"})
	if err != nil {
		t.Fatal(err)
	}
	insights, err := application.Insights(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if insights.SentimentRating != 3 || insights.SentimentConfidence != 0.5 {
		t.Fatalf("expected neutral insights, got %+v", insights)
	}
}

func TestInsightsUnknownSession(t *testing.T) {
	application, _ := newTestApp(t, Options{})
	if _, err := application.Insights(context.Background(), "missing"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
