package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/resumatch/internal/models"
	"go.uber.org/zap"
)

// Catalog commits an ingestion batch to the vector store and URL index together.
// If the URL index write fails, the store file is restored to its previous bytes so
// the two artifacts never disagree about which files were ingested.
type Catalog struct {
	store  *FileStore
	urls   URLIndex
	logger *zap.Logger
	mu     sync.Mutex
}

// NewCatalog pairs a store with its URL index.
func NewCatalog(store *FileStore, urls URLIndex, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{store: store, urls: urls, logger: logger}
}

// Store returns the underlying vector store.
func (c *Catalog) Store() Store { return c.store }

// URLs returns the underlying URL index.
func (c *Catalog) URLs() URLIndex { return c.urls }

// Commit appends entries and merges urls as one unit.
func (c *Catalog) Commit(ctx context.Context, entries []models.StoreEntry, urls map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed, err := c.store.readRaw()
	if err != nil {
		return fmt.Errorf("snapshot store: %w", err)
	}

	c.store.mu.Lock()
	err = c.store.appendLocked(entries)
	c.store.mu.Unlock()
	if err != nil {
		return fmt.Errorf("append entries: %w", err)
	}

	// The caller's context is not used past this point: a half-applied commit must be
	// either completed or rolled back.
	if err := c.urls.Merge(context.WithoutCancel(ctx), urls); err != nil {
		c.store.mu.Lock()
		rbErr := c.store.restoreRaw(prev, existed)
		c.store.mu.Unlock()
		if rbErr != nil {
			c.logger.Error("store rollback failed; store and url index may disagree",
				zap.String("path", c.store.Path()), zap.Error(rbErr))
			return fmt.Errorf("merge url index: %w (rollback failed: %v)", err, rbErr)
		}
		c.logger.Warn("url index write failed; store rolled back", zap.Error(err))
		return fmt.Errorf("merge url index: %w", err)
	}
	return nil
}
