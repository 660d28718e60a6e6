package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestFunc(t *testing.T) {
	var got Request
	c := Func(func(_ context.Context, req Request) (string, error) {
		got = req
		return "ok", nil
	})
	out, err := c.Complete(context.Background(), Request{System: "s", User: "u", JSON: true, MaxTokens: 5})
	if err != nil || out != "ok" {
		t.Fatalf("Complete = %q, %v", out, err)
	}
	if got.System != "s" || got.User != "u" || !got.JSON || got.MaxTokens != 5 {
		t.Errorf("request not passed through: %+v", got)
	}
}

func TestRateLimited_Disabled(t *testing.T) {
	inner := Func(func(context.Context, Request) (string, error) { return "x", nil })
	if _, ok := RateLimited(inner, 0, 0).(Func); !ok {
		t.Error("rps <= 0 should return the inner client")
	}
}

func TestRateLimited_Throttles(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(context.Context, Request) (string, error) {
		calls.Add(1)
		return "x", nil
	})
	c := RateLimited(inner, 20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Complete(context.Background(), Request{}); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d", calls.Load())
	}
	// Burst 1 at 20/s: the 2nd and 3rd calls wait about 50ms each.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected throttling, took %v", elapsed)
	}
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	inner := Func(func(context.Context, Request) (string, error) { return "x", nil })
	c := RateLimited(inner, 0.001, 1)
	_, _ = c.Complete(context.Background(), Request{}) // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, Request{})
	if err == nil {
		t.Fatal("expected error waiting on a cancelled context")
	}
	if errors.Is(err, ErrInference) {
		t.Error("limiter errors are not inference errors")
	}
}
