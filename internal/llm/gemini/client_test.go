package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/resumatch/internal/llm"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(context.Background(), Config{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model = %q", c.Model())
	}
}

func TestComplete(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"skill_matcher"}]}}]}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Complete(context.Background(), llm.Request{System: "classify", User: "who knows Go?", MaxTokens: 20})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "skill_matcher" {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(body, "who knows Go?") || !strings.Contains(body, "classify") {
		t.Errorf("request body missing prompt: %s", body)
	}
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Complete(context.Background(), llm.Request{User: "x"})
	if !errors.Is(err, llm.ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}
}
