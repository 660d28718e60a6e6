// Package server provides the resumatch HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/indexer"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const defaultMaxUploadBytes = 32 << 20

// Ingester runs an ingestion batch.
type Ingester interface {
	IngestBatch(ctx context.Context, files []indexer.Upload) (*models.BatchResult, error)
}

// Searcher answers recruiter queries and job description matches.
type Searcher interface {
	Answer(ctx context.Context, query string) (*models.Answer, error)
	MatchJob(ctx context.Context, jd *models.JobDescription) (*models.JobMatch, error)
}

// JobParser extracts a structured job description from text.
type JobParser interface {
	ParseJobDescription(ctx context.Context, text string) (*models.JobDescription, error)
}

// TextExtractor extracts plain text from uploaded document bytes.
type TextExtractor interface {
	ExtractBytes(content []byte, ext string) (string, error)
}

// WatchService manages inbox directories (implemented by *watcher.Watcher).
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Deps are the services behind the API.
type Deps struct {
	Ingester  Ingester
	Searcher  Searcher
	JobParser JobParser
	Extractor TextExtractor
	Store     storage.Store
	URLs      storage.URLIndex
}

// Server is the HTTP server for the resumatch API.
type Server struct {
	deps   Deps
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server

	watch         WatchService
	configPath    string
	watchConfig   *config.Config
	watchConfigMu sync.Mutex

	filesDir string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithWatch enables the inbox directory endpoints. When configPath and cfg are set, changes
// to the directory list are saved back to the config file.
func WithWatch(watch WatchService, configPath string, cfg *config.Config) Option {
	return func(s *Server) {
		s.watch = watch
		s.configPath = configPath
		s.watchConfig = cfg
	}
}

// WithFiles serves dir under /files, for the disk object store.
func WithFiles(dir string) Option {
	return func(s *Server) { s.filesDir = dir }
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.ServerConfig, opts ...Option) *Server {
	s := &Server{deps: deps, config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
		r.Get("/resumes", s.handleResumes)
		r.Post("/upload-jd", s.handleUploadJD)
		r.Post("/analyze-jd", s.handleAnalyzeJD)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	if s.filesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(s.filesDir))))
	}
	return otelhttp.NewHandler(r, "resumatch")
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) maxUploadBytes() int64 {
	if s.config.MaxUploadBytes > 0 {
		return s.config.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}
