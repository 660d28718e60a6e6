package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/resumatch/internal/llm"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestComplete(t *testing.T) {
	var got chatRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  {\"name\":\"Jane\"}  "}}]}`)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Complete(context.Background(), llm.Request{System: "sys", User: "usr", JSON: true, MaxTokens: 100, Model: "other"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"name":"Jane"}` {
		t.Errorf("out = %q", out)
	}
	if auth != "Bearer secret" || path != "/chat/completions" {
		t.Errorf("auth = %q, path = %q", auth, path)
	}
	if got.Model != "other" || got.MaxTokens != 100 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "usr" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v", got.ResponseFormat)
	}
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`},
		{"bad status", http.StatusBadGateway, `{}`},
		{"not json", http.StatusOK, `<html>`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()
			c, _ := New(Config{APIKey: "k", BaseURL: srv.URL})
			_, err := c.Complete(context.Background(), llm.Request{User: "x"})
			if !errors.Is(err, llm.ErrInference) {
				t.Errorf("expected ErrInference, got %v", err)
			}
		})
	}
}

func TestComplete_DefaultModelNoSystem(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()
	c, _ := New(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.Complete(context.Background(), llm.Request{User: "x"}); err != nil {
		t.Fatal(err)
	}
	if got.Model != DefaultModel || len(got.Messages) != 1 || got.ResponseFormat != nil {
		t.Errorf("request = %+v", got)
	}
}
