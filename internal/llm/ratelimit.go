package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClient throttles calls to an inner Client with a token bucket shared by all
// callers, so a large ingestion batch cannot exceed the provider's request quota.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// RateLimited wraps c with a limiter of rps requests per second and the given burst.
// rps <= 0 returns c unchanged.
func RateLimited(c Client, rps float64, burst int) Client {
	if rps <= 0 {
		return c
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{
		inner:   c,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Complete waits for a token and then calls the inner client.
func (c *RateLimitedClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return c.inner.Complete(ctx, req)
}
