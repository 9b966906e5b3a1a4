package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"faqbot/internal/app"
	"faqbot/internal/config"
	"faqbot/internal/rag"
	"faqbot/internal/scraper"
	"faqbot/internal/server"
	"faqbot/internal/util"
	"faqbot/pkg/ai"
	"faqbot/pkg/queue"
	"faqbot/pkg/storage"
	"faqbot/pkg/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("FAQBOT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	var st store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to init database store", "error", err)
			os.Exit(1)
		}
		st = gormStore
		logger.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		logger.Info("using in-memory store")
	}

	opts := app.Options{}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr != "" {
		embedQueue, err := queue.NewRedisEmbedQueue(queue.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed to init embed queue", "error", err)
			os.Exit(1)
		}
		defer embedQueue.Close()
		opts.EmbedQueue = embedQueue
		logger.Info("embedding deferred to redis queue", "workers", cfg.EmbedWorkers)
	}

	if cfg.MinioEndpoint != "" {
		archive, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Error("failed to init upload archive", "error", err)
			os.Exit(1)
		}
		opts.Archive = archive
		logger.Info("archiving uploads", "bucket", cfg.MinioBucket)
	}

	newGenerator, newAnalyzer := buildProviderFactories(cfg)
	opts.NewAnalyzer = newAnalyzer

	ingestor := rag.NewIngestor(st, logger, cfg.ChunkSize)
	application := app.New(
		st,
		ingestor,
		rag.NewRetriever(st),
		rag.NewResponder(logger),
		scraper.New(cfg.ScrapeMaxChars),
		newGenerator,
		logger,
		opts,
	)

	if opts.EmbedQueue != nil {
		opts.EmbedQueue.Start(ctx, cfg.EmbedWorkers, application.ProcessEmbedJob)
	}

	httpServer := server.New(server.Config{
		App:            application,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("faqbot server listening", "addr", addr, "provider", cfg.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// failingGenerator satisfies both generator interfaces with a fixed error,
// used when a session credential cannot even construct a client. The
// response policy turns the error into the API-configuration message.
type failingGenerator struct {
	err error
}

func (g failingGenerator) GenerateText(context.Context, string, string) (string, error) {
	return "", g.err
}

func (g failingGenerator) GenerateJSON(context.Context, string, string, *ai.Schema, any) error {
	return g.err
}

func buildProviderFactories(cfg config.Config) (app.GeneratorFactory, app.AnalyzerFactory) {
	switch cfg.Provider {
	case "openai-compat":
		newGenerator := func(apiKey string) ai.TextGenerator {
			if apiKey == "" {
				apiKey = cfg.OpenAIAPIKey
			}
			return ai.NewOpenAICompatGenerator(cfg.OpenAIBaseURL, apiKey, cfg.GenerationModel)
		}
		// No structured output support; insights stay neutral.
		return newGenerator, nil
	default:
		newGemini := func(apiKey string) (*ai.GeminiGenerator, error) {
			if apiKey == "" {
				apiKey = cfg.GeminiAPIKey
			}
			client, err := ai.NewGeminiClient(apiKey)
			if err != nil {
				return nil, &ai.ProviderError{Provider: "gemini", Category: ai.CategoryAuth, Message: err.Error()}
			}
			return ai.NewGeminiGenerator(client, cfg.GenerationModel), nil
		}
		newGenerator := func(apiKey string) ai.TextGenerator {
			gen, err := newGemini(apiKey)
			if err != nil {
				return failingGenerator{err: err}
			}
			return gen
		}
		newAnalyzer := func(apiKey string) ai.StructuredGenerator {
			gen, err := newGemini(apiKey)
			if err != nil {
				return failingGenerator{err: err}
			}
			return gen
		}
		return newGenerator, newAnalyzer
	}
}
