// Package search answers recruiter queries by retrieving resume chunks and synthesizing a
// response with a routed agent prompt.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/indexer"
	"github.com/hyperjump/resumatch/internal/llm"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/router"
	"github.com/hyperjump/resumatch/internal/storage"
	"github.com/hyperjump/resumatch/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = models.ErrEmptyQuery
	// ErrServiceUnavailable is returned when there is nothing to search yet.
	ErrServiceUnavailable = errors.New("resume database is not available, upload resumes first")
	// ErrInference is returned when answer generation fails.
	ErrInference = errors.New("answer generation failed")
)

const answerSystemPrompt = "You are a helpful recruitment AI assistant."

// QueryRouter chooses the agent role for a query.
type QueryRouter interface {
	Route(ctx context.Context, query string) router.Agent
}

// Engine runs retrieval-augmented answering over the vector store.
type Engine struct {
	store    storage.Store
	urls     storage.URLIndex
	embedder embedding.Embedder
	router   QueryRouter
	client   llm.Client
	topK     int
	model    string
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTopK sets how many chunks are retrieved per query.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithModel overrides the client's default model for answer synthesis.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	store storage.Store,
	urls storage.URLIndex,
	embedder embedding.Embedder,
	qr QueryRouter,
	client llm.Client,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:    store,
		urls:     urls,
		embedder: embedder,
		router:   qr,
		client:   client,
		topK:     config.DefaultTopK,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer retrieves the chunks most similar to query, asks the routed agent to answer from
// them, and links every candidate named in the answer to their resume.
func (e *Engine) Answer(ctx context.Context, query string) (*models.Answer, error) {
	start := time.Now()
	q := models.SearchQuery{Query: query}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := e.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrStoreUnavailable):
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	case err != nil:
		return nil, fmt.Errorf("load store: %w", err)
	case len(entries) == 0:
		return nil, ErrServiceUnavailable
	}

	// Routing and retrieval are independent; run them side by side.
	var (
		agent     router.Agent
		retrieved []models.Chunk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		agent = e.router.Route(gctx, q.Query)
		return nil
	})
	g.Go(func() error {
		qv, err := e.embedder.Embed(gctx, q.Query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		retrieved = Retrieve(qv, entries, e.topK)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prompt := BuildPrompt(router.Prompt(agent), q.Query, BuildContext(retrieved))
	answer, err := e.client.Complete(ctx, llm.Request{
		System: answerSystemPrompt,
		User:   prompt,
		Model:  e.model,
	})
	if err != nil {
		e.logger.Error("answer generation failed", zap.String("agent", string(agent)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	urls, err := e.urls.Load(ctx)
	if err != nil {
		e.logger.Warn("url index unreadable, answering without previews", zap.Error(err))
		urls = map[string]string{}
	}
	previews := Attribute(answer, retrieved, urls)

	e.logger.Info("query answered",
		zap.String("agent", string(agent)),
		zap.Int("retrieved", len(retrieved)),
		zap.Int("previews", len(previews)),
		zap.Duration("duration", time.Since(start)))
	return &models.Answer{AgentUsed: string(agent), Answer: answer, PreviewURLs: previews}, nil
}

// MatchJob searches for candidates matching a parsed job description.
func (e *Engine) MatchJob(ctx context.Context, jd *models.JobDescription) (*models.JobMatch, error) {
	query := indexer.JobSearchQuery(jd)
	if query == "" {
		return nil, fmt.Errorf("%w: job description yields no search terms", ErrEmptyQuery)
	}
	answer, err := e.Answer(ctx, query)
	if err != nil {
		return nil, err
	}
	return &models.JobMatch{JobDescription: jd, SearchQuery: query, Results: answer}, nil
}

// Retrieve returns the chunks of the k entries most similar to qv, best first.
func Retrieve(qv []float32, entries []models.StoreEntry, k int) []models.Chunk {
	vectors := make([][]float32, len(entries))
	for i := range entries {
		vectors[i] = entries[i].Embedding
	}
	hits := vector.TopK(qv, vectors, k)
	chunks := make([]models.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = entries[h.Index].Metadata
	}
	return chunks
}

// BuildContext renders retrieved chunks as "Candidate: name" blocks separated by blank lines.
func BuildContext(chunks []models.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		name := c.CandidateName
		if name == "" {
			name = "N/A"
		}
		blocks[i] = "Candidate: " + name + "\n" + c.Text
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt assembles the answer request from the agent role, the query and the context.
func BuildPrompt(role, query, context string) string {
	var b strings.Builder
	b.WriteString("Your Role: ")
	b.WriteString(role)
	b.WriteString("\n\nUser Query: \"")
	b.WriteString(query)
	b.WriteString("\"\n\nBased on the context below, provide a direct answer.\n")
	b.WriteString("IMPORTANT: You MUST mention the full name for every candidate discussed (e.g., \"Candidate Name: John Doe\").\n\n")
	b.WriteString("--- Resume Context ---\n")
	b.WriteString(context)
	return b.String()
}

// Attribute returns a preview for each retrieved candidate whose name appears in answer
// (case-insensitive) and whose file has a URL. Candidates are listed once, in the order
// they first appear in the retrieved chunks.
func Attribute(answer string, chunks []models.Chunk, urls map[string]string) []models.Preview {
	lower := strings.ToLower(answer)
	previews := []models.Preview{}
	seen := make(map[string]bool)
	for _, c := range chunks {
		name := strings.TrimSpace(c.CandidateName)
		key := strings.ToLower(name)
		if name == "" || seen[key] || !strings.Contains(lower, key) {
			continue
		}
		url, ok := urls[c.Filename]
		if !ok || url == "" {
			continue
		}
		seen[key] = true
		previews = append(previews, models.Preview{Name: name, ResumeURL: url})
	}
	return previews
}
