// Package embedding provides sentence embeddings, caching, and CPU offload.
package embedding

import "context"

// Embedder produces vector embeddings for text. EmbedBatch preserves input order:
// output[i] corresponds to texts[i] and equals Embed(texts[i]).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Model identifies the model that produced the vectors. Stored entries are stamped with it.
	Model() string
	Close() error
}

// embedEach runs embed over texts in order, stopping at the first error or cancellation.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
