package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/events"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/objectstore"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrNoFilesProcessed is returned when every file in a batch failed. Nothing is committed.
var ErrNoFilesProcessed = errors.New("failed to process any files")

// Pipeline stages recorded in models.FileFailure.Stage.
const (
	StageValidate = "validate"
	StageUpload   = "upload"
	StageExtract  = "extract"
	StageParse    = "parse"
	StageChunk    = "chunk"
	StageEmbed    = "embed"
	StageInternal = "internal"
)

// SuccessMessage is the BatchResult message for a batch with at least one committed file.
const SuccessMessage = "Files uploaded and processed successfully."

// Upload is one file submitted for ingestion.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResumeParser extracts a structured resume from text.
type ResumeParser interface {
	ParseResume(ctx context.Context, text string) (*models.Resume, error)
}

// Committer persists a batch's entries and URLs as one unit.
type Committer interface {
	Commit(ctx context.Context, entries []models.StoreEntry, urls map[string]string) error
}

// BatchError carries the per-file failures of a batch that committed nothing.
type BatchError struct {
	Failures []models.FileFailure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s (%d failed)", ErrNoFilesProcessed.Error(), len(e.Failures))
}

// Unwrap makes errors.Is(err, ErrNoFilesProcessed) hold.
func (e *BatchError) Unwrap() error { return ErrNoFilesProcessed }

// Pipeline ingests batches of resumes. Files are processed concurrently behind an
// admission gate; a failure in one file never affects the others. All successful files
// are committed together once the batch has finished.
type Pipeline struct {
	extractor     *extract.Extractor
	parser        ResumeParser
	embedder      embedding.Embedder
	objects       objectstore.Store
	catalog       Committer
	publisher     events.Publisher
	prefix        string
	maxConcurrent int64
	maxFileBytes  int64
	allowedExts   []string
	logger        *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithPublisher sets where batch-completed events go.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithIngestConfig applies concurrency, size and extension limits.
func WithIngestConfig(cfg config.IngestConfig) Option {
	return func(p *Pipeline) {
		if cfg.MaxConcurrent > 0 {
			p.maxConcurrent = int64(cfg.MaxConcurrent)
		}
		p.maxFileBytes = cfg.MaxFileBytes
		p.allowedExts = cfg.Extensions
	}
}

// WithObjectPrefix sets the key prefix for uploaded originals.
func WithObjectPrefix(prefix string) Option {
	return func(p *Pipeline) { p.prefix = prefix }
}

// NewPipeline wires the ingestion stages together.
func NewPipeline(
	extractor *extract.Extractor,
	parser ResumeParser,
	embedder embedding.Embedder,
	objects objectstore.Store,
	catalog Committer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		extractor:     extractor,
		parser:        parser,
		embedder:      embedder,
		objects:       objects,
		catalog:       catalog,
		publisher:     events.Nop{},
		maxConcurrent: config.DefaultMaxConcurrent,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// fileOutcome is the result of one file's pipeline.
type fileOutcome struct {
	filename string
	url      string
	entries  []models.StoreEntry
	failure  *models.FileFailure
}

// IngestBatch processes files concurrently and commits every successful file once.
// Partial success is success: the result lists the failures alongside the processed files.
// When no file succeeds the error is a *BatchError wrapping ErrNoFilesProcessed.
func (p *Pipeline) IngestBatch(ctx context.Context, files []Upload) (*models.BatchResult, error) {
	start := time.Now()
	batchID := uuid.NewString()
	log := p.logger.With(zap.String("batch_id", batchID))
	log.Info("ingestion batch started", zap.Int("files", len(files)))

	outcomes := make([]fileOutcome, len(files))
	sem := semaphore.NewWeighted(p.maxConcurrent)
	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := files[i]
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = failed(u.Filename, StageInternal, err)
				return
			}
			defer sem.Release(1)
			outcomes[i] = p.processFile(ctx, log, u)
		}(i)
	}
	wg.Wait()

	result := &models.BatchResult{
		BatchID:        batchID,
		ProcessedFiles: []string{},
		Failures:       []models.FileFailure{},
	}
	var entries []models.StoreEntry
	urls := make(map[string]string)
	for _, o := range outcomes {
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
			continue
		}
		result.ProcessedFiles = append(result.ProcessedFiles, o.filename)
		entries = append(entries, o.entries...)
		urls[o.filename] = o.url
	}
	result.TotalChunks = len(entries)

	if len(result.ProcessedFiles) == 0 {
		log.Warn("ingestion batch produced nothing", zap.Int("failed", len(result.Failures)))
		return nil, &BatchError{Failures: result.Failures}
	}
	if err := p.catalog.Commit(ctx, entries, urls); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	result.Message = SuccessMessage
	result.Duration = time.Since(start)
	log.Info("ingestion batch committed",
		zap.Int("processed", len(result.ProcessedFiles)),
		zap.Int("failed", len(result.Failures)),
		zap.Int("chunks", result.TotalChunks),
		zap.Duration("duration", result.Duration))

	p.publish(ctx, log, result)
	return result, nil
}

func (p *Pipeline) publish(ctx context.Context, log *zap.Logger, result *models.BatchResult) {
	ev := events.BatchCompleted{
		BatchID:        result.BatchID,
		ProcessedFiles: result.ProcessedFiles,
		FailedFiles:    make([]string, 0, len(result.Failures)),
		TotalChunks:    result.TotalChunks,
		CompletedAt:    time.Now().UTC(),
	}
	for _, f := range result.Failures {
		ev.FailedFiles = append(ev.FailedFiles, f.Filename)
	}
	if err := p.publisher.PublishBatch(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("batch event not published", zap.Error(err))
	}
}

// processFile runs upload, extract, parse, chunk and embed for one file. Panics are
// recovered into a failure so one bad document cannot take down the batch.
func (p *Pipeline) processFile(ctx context.Context, log *zap.Logger, u Upload) (out fileOutcome) {
	log = log.With(zap.String("filename", u.Filename))
	defer func() {
		if r := recover(); r != nil {
			log.Error("file pipeline panicked", zap.Any("panic", r))
			out = failed(u.Filename, StageInternal, fmt.Errorf("panic: %v", r))
		}
	}()

	var storedKey string
	fail := func(stage string, err error) fileOutcome {
		log.Warn("file failed", zap.String("stage", stage), zap.Error(err))
		if storedKey != "" {
			// Originals are not deleted; the object stays until the file is re-ingested under the same key.
			log.Warn("stored original left without store entries", zap.String("object_key", storedKey))
		}
		return failed(u.Filename, stage, err)
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	if err := p.validate(u, ext); err != nil {
		return fail(StageValidate, err)
	}

	contentType := u.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = extract.ContentTypeFor(ext)
	}
	key := objectstore.ObjectKey(p.prefix, u.Filename, u.Data)
	url, err := p.objects.Put(ctx, key, contentType, u.Data)
	if err != nil {
		return fail(StageUpload, err)
	}
	storedKey = key

	raw, err := p.extractor.ExtractBytes(u.Data, ext)
	if err != nil {
		return fail(StageExtract, err)
	}
	text := Preprocess(raw)
	if text == "" {
		return fail(StageExtract, extract.ErrNoText)
	}

	resume, err := p.parser.ParseResume(ctx, text)
	if err != nil {
		return fail(StageParse, err)
	}

	chunks := ChunkResume(resume, u.Filename)
	if len(chunks) == 0 {
		return fail(StageChunk, errors.New("no chunks produced"))
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fail(StageEmbed, err)
	}
	if len(vecs) != len(chunks) {
		return fail(StageEmbed, fmt.Errorf("got %d embeddings for %d chunks", len(vecs), len(chunks)))
	}

	entries := make([]models.StoreEntry, len(chunks))
	model := p.embedder.Model()
	for i, c := range chunks {
		entries[i] = models.StoreEntry{Embedding: vecs[i], Metadata: c, Model: model}
	}
	log.Info("file processed",
		zap.String("candidate", resume.Name),
		zap.Int("chunks", len(entries)))
	return fileOutcome{filename: u.Filename, url: url, entries: entries}
}

func (p *Pipeline) validate(u Upload, ext string) error {
	if strings.TrimSpace(u.Filename) == "" {
		return errors.New("missing filename")
	}
	if !extract.Supported(ext) || (len(p.allowedExts) > 0 && !extensionAllowed(ext, p.allowedExts)) {
		return fmt.Errorf("%w: %q", extract.ErrUnsupportedFormat, ext)
	}
	if len(u.Data) == 0 {
		return extract.ErrEmptyContent
	}
	if p.maxFileBytes > 0 && int64(len(u.Data)) > p.maxFileBytes {
		return fmt.Errorf("file is %d bytes, limit is %d", len(u.Data), p.maxFileBytes)
	}
	return nil
}

func failed(filename, stage string, err error) fileOutcome {
	return fileOutcome{
		filename: filename,
		failure:  &models.FileFailure{Filename: filename, Stage: stage, Error: err.Error()},
	}
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// IngestFiles reads local files and ingests them as one batch. Files that cannot be read
// are reported as failures of that batch.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) (*models.BatchResult, error) {
	uploads := make([]Upload, 0, len(paths))
	var readFailures []models.FileFailure
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			readFailures = append(readFailures, models.FileFailure{
				Filename: filepath.Base(path), Stage: StageValidate, Error: err.Error(),
			})
			continue
		}
		name := filepath.Base(path)
		uploads = append(uploads, Upload{
			Filename:    name,
			ContentType: extract.ContentTypeFor(filepath.Ext(name)),
			Data:        data,
		})
	}

	if len(uploads) == 0 {
		return nil, &BatchError{Failures: readFailures}
	}
	res, err := p.IngestBatch(ctx, uploads)
	if err != nil {
		var be *BatchError
		if errors.As(err, &be) {
			be.Failures = append(readFailures, be.Failures...)
		}
		return nil, err
	}
	res.Failures = append(readFailures, res.Failures...)
	return res, nil
}
