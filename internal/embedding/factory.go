package embedding

import (
	"fmt"

	"github.com/hyperjump/resumatch/internal/config"
)

// Provider names an embedding backend.
type Provider string

const (
	// ProviderONNX runs the configured ONNX model. Requires CGO.
	ProviderONNX Provider = "onnx"
	// ProviderMock uses deterministic hash vectors. Useful offline and in tests.
	ProviderMock Provider = "mock"
)

// New builds the configured embedder wrapped in an LRU cache and a worker pool.
// The returned Embedder owns the whole chain; Close releases it.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	var base Embedder
	switch Provider(cfg.Provider) {
	case ProviderONNX, "":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.ModelName, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("onnx embedder (set embedding.provider to %q to run without a model): %w", ProviderMock, err)
		}
		base = e
	case ProviderMock:
		base = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, mock)", cfg.Provider)
	}
	if cfg.CacheSize > 0 {
		base = NewCachedEmbedder(base, cfg.CacheSize)
	}
	return NewWorkerPool(base, cfg.Workers), nil
}
