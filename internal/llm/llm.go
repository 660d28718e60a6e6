// Package llm defines the language-model client used for parsing, routing and answer
// synthesis. Providers live in subpackages.
package llm

import (
	"context"
	"errors"
)

// ErrInference wraps every provider failure: transport errors, non-2xx responses, and
// empty completions.
var ErrInference = errors.New("language model inference failed")

// Request is a single-turn completion request.
type Request struct {
	System string
	User   string
	// JSON asks the provider for a JSON-only response where it supports that mode.
	JSON      bool
	MaxTokens int
	// Model overrides the client's default model when non-empty.
	Model string
}

// Client completes a prompt. Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Client.
type Func func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
