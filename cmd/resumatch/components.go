package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/events"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/indexer"
	"github.com/hyperjump/resumatch/internal/llm"
	"github.com/hyperjump/resumatch/internal/llm/gemini"
	"github.com/hyperjump/resumatch/internal/llm/openai"
	"github.com/hyperjump/resumatch/internal/objectstore"
	"github.com/hyperjump/resumatch/internal/parser"
	"github.com/hyperjump/resumatch/internal/router"
	"github.com/hyperjump/resumatch/internal/search"
	"github.com/hyperjump/resumatch/internal/storage"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Store     *storage.FileStore
	URLs      *storage.FileURLIndex
	Embedder  embedding.Embedder
	Objects   objectstore.Store
	Publisher events.Publisher
	Extractor *extract.Extractor
	Parser    *parser.Parser
	Engine    *search.Engine
	Pipeline  *indexer.Pipeline
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
}

// newLLMClient builds the configured provider behind the shared rate limit.
func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	var (
		c   llm.Client
		err error
	)
	switch cfg.Provider {
	case "gemini", "":
		c, err = gemini.New(ctx, gemini.Config{
			APIKey:  cfg.APIKey(),
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	case "openai":
		c, err = openai.New(openai.Config{
			APIKey:  cfg.APIKey(),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: gemini, openai)", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w (set %s)", err, cfg.APIKeyEnv)
	}
	return llm.RateLimited(c, cfg.RequestsPerSecond, cfg.Burst), nil
}

func newPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.Nop{}, nil
	}
	pub, err := events.DialAMQP(cfg.AMQPURL, cfg.Exchange, cfg.RoutingKey, events.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// openCatalog opens the persisted artifacts without an embedder, for read-only commands.
func openCatalog(cfg *config.Config, logger *zap.Logger) (*storage.FileStore, *storage.FileURLIndex) {
	return storage.NewFileStore(cfg.Storage.StorePath, storage.WithLogger(logger)),
		storage.NewFileURLIndex(cfg.Storage.URLIndexPath)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := &Components{Embedder: embedder, Extractor: extract.NewExtractor()}

	c.Store = storage.NewFileStore(cfg.Storage.StorePath,
		storage.WithLogger(logger),
		storage.WithModel(embedder.Model(), embedder.Dimensions()))
	c.URLs = storage.NewFileURLIndex(cfg.Storage.URLIndexPath)
	catalog := storage.NewCatalog(c.Store, c.URLs, logger)

	c.Objects, err = objectstore.New(ctx, cfg.ObjectStore)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}
	c.Publisher, err = newPublisher(cfg.Events, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}

	c.Parser = parser.New(client, parser.WithLogger(logger), parser.WithModel(cfg.LLM.Model))
	rt := router.New(client, router.WithLogger(logger), router.WithModel(cfg.LLM.Model))
	c.Engine = search.NewEngine(c.Store, c.URLs, embedder, rt, client,
		search.WithTopK(cfg.Search.TopK),
		search.WithModel(cfg.LLM.AnswerModel),
		search.WithLogger(logger))
	c.Pipeline = indexer.NewPipeline(c.Extractor, c.Parser, embedder, c.Objects, catalog,
		indexer.WithLogger(logger),
		indexer.WithPublisher(c.Publisher),
		indexer.WithIngestConfig(cfg.Ingest),
		indexer.WithObjectPrefix(cfg.ObjectStore.Prefix))

	logger.Info("components initialized",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("embedding_model", embedder.Model()),
		zap.Int("dimensions", embedder.Dimensions()),
		zap.String("objectstore", cfg.ObjectStore.Type),
		zap.Bool("events", cfg.Events.AMQPURL != ""))
	return c, nil
}
