package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hyperjump/resumatch/internal/models"
	"go.uber.org/zap"
)

// FileStore is a Store backed by a single JSON array file.
//
// Within one process, Append is serialized by a mutex. Separate processes writing the
// same file are not coordinated: the last rename wins and the other batch is lost.
type FileStore struct {
	path       string
	model      string
	dimensions int
	logger     *zap.Logger

	mu    sync.Mutex
	cache *snapshot
}

// snapshot is the last decoded file contents, keyed by the file's mtime and size.
type snapshot struct {
	modTime time.Time
	size    int64
	entries []models.StoreEntry
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets a logger for load and write events.
func WithLogger(l *zap.Logger) FileStoreOption {
	return func(s *FileStore) { s.logger = l }
}

// WithModel makes the store reject entries produced by a different embedding model or dimension.
// New entries without a stamp are stamped with model.
func WithModel(model string, dimensions int) FileStoreOption {
	return func(s *FileStore) {
		s.model = model
		s.dimensions = dimensions
	}
}

// NewFileStore returns a store persisted at path. The file is created on first Append.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns all entries, reusing the cached decode while the file is unchanged.
func (s *FileStore) Load(ctx context.Context) ([]models.StoreEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return append([]models.StoreEntry(nil), entries...), nil
}

func (s *FileStore) loadLocked() ([]models.StoreEntry, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache = nil
			return nil, ErrStoreUnavailable
		}
		return nil, fmt.Errorf("stat store: %w", err)
	}
	// A same-size rewrite by another process within mtime granularity is not detected.
	if c := s.cache; c != nil && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.entries, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	var entries []models.StoreEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON array of entries: %v", ErrStoreCorrupt, s.path, err)
	}
	if err := s.validate(entries, 0); err != nil {
		return nil, err
	}
	s.cache = &snapshot{modTime: info.ModTime(), size: info.Size(), entries: entries}
	s.logger.Debug("store loaded", zap.String("path", s.path), zap.Int("entries", len(entries)))
	return entries, nil
}

// validate checks required identity fields, a single shared dimension, and the model stamp.
// offset shifts reported entry indexes when validating appended entries.
func (s *FileStore) validate(entries []models.StoreEntry, offset int) error {
	dim := s.dimensions
	for i := range entries {
		e := &entries[i]
		n := i + offset
		switch {
		case len(e.Embedding) == 0:
			return fmt.Errorf("%w: entry %d: missing embedding", ErrStoreCorrupt, n)
		case e.Metadata.Filename == "":
			return fmt.Errorf("%w: entry %d: missing resume_filename", ErrStoreCorrupt, n)
		case e.Metadata.ChunkType == "":
			return fmt.Errorf("%w: entry %d: missing chunk_type", ErrStoreCorrupt, n)
		case e.Metadata.Text == "":
			return fmt.Errorf("%w: entry %d: missing text", ErrStoreCorrupt, n)
		}
		if dim == 0 {
			dim = len(e.Embedding)
		}
		if len(e.Embedding) != dim {
			return fmt.Errorf("%w: %w: entry %d has dimension %d, want %d",
				ErrStoreCorrupt, ErrModelMismatch, n, len(e.Embedding), dim)
		}
		if s.model != "" && e.Model != "" && e.Model != s.model {
			return fmt.Errorf("%w: %w: entry %d was embedded with %q, configured model is %q",
				ErrStoreCorrupt, ErrModelMismatch, n, e.Model, s.model)
		}
	}
	return nil
}

// Append loads the current file (a missing file counts as empty), appends entries, and
// rewrites the whole file. A corrupt store is never overwritten.
func (s *FileStore) Append(ctx context.Context, entries []models.StoreEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(entries)
}

func (s *FileStore) appendLocked(entries []models.StoreEntry) error {
	current, err := s.loadLocked()
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	stamped := make([]models.StoreEntry, len(entries))
	for i, e := range entries {
		if e.Model == "" {
			e.Model = s.model
		}
		stamped[i] = e
	}
	merged := make([]models.StoreEntry, 0, len(current)+len(stamped))
	merged = append(merged, current...)
	merged = append(merged, stamped...)
	// Validate the appended tail against the existing head's dimension.
	if err := s.validate(merged, 0); err != nil {
		return fmt.Errorf("append rejected: %w", err)
	}
	if err := s.writeLocked(merged); err != nil {
		return err
	}
	s.logger.Info("store updated",
		zap.String("path", s.path),
		zap.Int("appended", len(entries)),
		zap.Int("total", len(merged)))
	return nil
}

func (s *FileStore) writeLocked(entries []models.StoreEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	s.cache = nil
	if info, err := os.Stat(s.path); err == nil {
		s.cache = &snapshot{modTime: info.ModTime(), size: info.Size(), entries: entries}
	}
	return nil
}

// Status reports existence and counts. A corrupt store is reported with Exists=true and
// Error set rather than as a returned error.
func (s *FileStore) Status(ctx context.Context) (models.StoreStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.StoreStatus{}, err
	}
	s.mu.Lock()
	entries, err := s.loadLocked()
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return models.StoreStatus{Exists: false}, nil
	case errors.Is(err, ErrStoreCorrupt):
		s.logger.Warn("store failed validation", zap.String("path", s.path), zap.Error(err))
		st := models.StoreStatus{Exists: true, Error: err.Error()}
		st.SizeBytes, _ = DiskUsageBytes(s.path)
		return st, nil
	case err != nil:
		return models.StoreStatus{}, err
	}

	files := make(map[string]struct{})
	for _, e := range entries {
		files[e.Metadata.Filename] = struct{}{}
	}
	size, err := DiskUsageBytes(s.path)
	if err != nil {
		return models.StoreStatus{}, fmt.Errorf("disk usage: %w", err)
	}
	return models.StoreStatus{
		Exists:       true,
		TotalResumes: len(files),
		TotalChunks:  len(entries),
		SizeBytes:    size,
	}, nil
}

// readRaw returns the current file bytes, or nil when the file does not exist.
func (s *FileStore) readRaw() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// restoreRaw puts back bytes captured by readRaw. existed=false removes the file.
func (s *FileStore) restoreRaw(data []byte, existed bool) error {
	s.cache = nil
	if !existed {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return writeFileAtomic(s.path, data, 0644)
}
