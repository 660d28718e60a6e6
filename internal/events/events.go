// Package events publishes ingestion notifications for downstream consumers.
package events

import (
	"context"
	"time"
)

// BatchCompleted is published once per committed ingestion batch.
type BatchCompleted struct {
	BatchID        string    `json:"batch_id"`
	ProcessedFiles []string  `json:"processed_files"`
	FailedFiles    []string  `json:"failed_files"`
	TotalChunks    int       `json:"total_chunks"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Publisher delivers batch events.
type Publisher interface {
	PublishBatch(ctx context.Context, ev BatchCompleted) error
	Close() error
}

// Nop discards events.
type Nop struct{}

// PublishBatch does nothing.
func (Nop) PublishBatch(context.Context, BatchCompleted) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
