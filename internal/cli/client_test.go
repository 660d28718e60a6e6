package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/resumatch/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/search" {
			http.NotFound(w, r)
			return
		}
		var q models.SearchQuery
		_ = json.NewDecoder(r.Body).Decode(&q)
		_ = json.NewEncoder(w).Encode(models.Answer{AgentUsed: "skill_matcher", Answer: "echo " + q.Query})
	})
	a, err := c.Search(context.Background(), "python")
	if err != nil {
		t.Fatal(err)
	}
	if a.Answer != "echo python" {
		t.Errorf("answer = %q", a.Answer)
	}
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"failed to process any files (1 failed)","failures":[{"filename":"a.pdf","stage":"parse","error":"bad"}]}`)
	})
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := c.Upload(context.Background(), []string{path})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || len(apiErr.Failures) != 1 || apiErr.Failures[0].Stage != "parse" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClient_Upload(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, fh := range r.MultipartForm.File["files"] {
			got = append(got, fh.Filename)
		}
		_ = json.NewEncoder(w).Encode(models.BatchResult{Message: "ok", ProcessedFiles: got})
	})
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.md"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	res, err := c.Upload(context.Background(), paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ProcessedFiles) != 2 || got[0] != "a.txt" || got[1] != "b.md" {
		t.Errorf("uploaded %v, result %+v", got, res)
	}

	if _, err := c.Upload(context.Background(), []string{filepath.Join(dir, "missing.pdf")}); err == nil {
		t.Error("expected error for unreadable file")
	}
}

func TestClient_Watch(t *testing.T) {
	dirs := []string{"/srv/inbox"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"directories": dirs})
		case http.MethodPost:
			var body struct {
				Path string `json:"path"`
				Sync bool   `json:"sync"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if !body.Sync {
				http.Error(w, "sync expected", http.StatusBadRequest)
				return
			}
			dirs = append(dirs, body.Path)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			p := r.URL.Query().Get("path")
			for i, d := range dirs {
				if d == p {
					dirs = append(dirs[:i], dirs[i+1:]...)
					break
				}
			}
		}
	})
	ctx := context.Background()
	if err := c.WatchAdd(ctx, "/srv/other dir"); err != nil {
		t.Fatal(err)
	}
	got, err := c.WatchList(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != "/srv/other dir" {
		t.Errorf("list = %v", got)
	}
	if err := c.WatchRemove(ctx, "/srv/other dir"); err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 {
		t.Errorf("dirs after remove = %v", dirs)
	}
}

func TestClient_StatusAndResumes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(models.StoreStatus{Exists: true, TotalResumes: 3, TotalChunks: 7})
		case "/api/resumes":
			_ = json.NewEncoder(w).Encode(map[string]any{"resumes": []models.ResumeLink{{Filename: "a.pdf", URL: "/files/a.pdf"}}})
		default:
			http.NotFound(w, r)
		}
	})
	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChunks != 7 || st.TotalResumes != 3 {
		t.Errorf("status = %+v", st)
	}
	links, err := c.Resumes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].URL != "/files/a.pdf" {
		t.Errorf("resumes = %+v", links)
	}
}
