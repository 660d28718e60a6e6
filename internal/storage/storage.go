// Package storage persists the vector store and the filename to URL index as flat JSON files.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/resumatch/internal/models"
)

var (
	// ErrStoreUnavailable means no store has been written yet.
	ErrStoreUnavailable = errors.New("vector store not available")
	// ErrStoreCorrupt means a persisted artifact failed structural validation.
	ErrStoreCorrupt = errors.New("vector store corrupt")
	// ErrModelMismatch means stored vectors came from a different embedding model or dimension.
	// It is always reported together with ErrStoreCorrupt.
	ErrModelMismatch = errors.New("embedding model mismatch")
)

// Store is the append-only collection of embedded chunks.
type Store interface {
	// Load returns every entry. It fails with ErrStoreUnavailable when nothing has been
	// persisted and with ErrStoreCorrupt when validation fails. Callers must not mutate
	// the returned entries.
	Load(ctx context.Context) ([]models.StoreEntry, error)
	// Append adds entries with a full read-modify-write of the backing file.
	Append(ctx context.Context, entries []models.StoreEntry) error
	// Status summarizes the store without mutating it.
	Status(ctx context.Context) (models.StoreStatus, error)
}

// URLIndex maps ingested filenames to durable URLs.
type URLIndex interface {
	// Load returns the current mapping; a missing index is an empty map.
	Load(ctx context.Context) (map[string]string, error)
	// Merge sets each filename to its URL, keeping other mappings.
	Merge(ctx context.Context, urls map[string]string) error
}
