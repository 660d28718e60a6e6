package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/resumatch/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	// Failures is set when an upload committed nothing.
	Failures []models.FileFailure
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client calls a running resumatch server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Search posts a recruiter query.
func (c *Client) Search(ctx context.Context, query string) (*models.Answer, error) {
	body, err := json.Marshal(models.SearchQuery{Query: query})
	if err != nil {
		return nil, err
	}
	var out models.Answer
	if err := c.do(ctx, http.MethodPost, "/api/search", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches the vector store summary.
func (c *Client) Status(ctx context.Context) (models.StoreStatus, error) {
	var out models.StoreStatus
	err := c.do(ctx, http.MethodGet, "/api/status", "", nil, &out)
	return out, err
}

// Resumes lists ingested resumes.
func (c *Client) Resumes(ctx context.Context) ([]models.ResumeLink, error) {
	var out struct {
		Resumes []models.ResumeLink `json:"resumes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/resumes", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Resumes, nil
}

// Upload sends local files as one ingestion batch.
func (c *Client) Upload(ctx context.Context, paths []string) (*models.BatchResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		fw, err := mw.CreateFormFile("files", filepath.Base(p))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out models.BatchResult
	if err := c.do(ctx, http.MethodPost, "/api/upload", mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatchJob uploads a job description file and returns the candidates matched against it.
func (c *Client) MatchJob(ctx context.Context, path string) (*models.JobMatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out models.JobMatch
	if err := c.do(ctx, http.MethodPost, "/api/upload-jd", mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WatchList returns the server's inbox directories.
func (c *Client) WatchList(ctx context.Context) ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/watch/directories", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

// WatchAdd adds an inbox directory and queues the files already in it.
func (c *Client) WatchAdd(ctx context.Context, path string) error {
	body, err := json.Marshal(map[string]any{"path": path, "sync": true})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/watch/directories", "application/json", bytes.NewReader(body), nil)
}

// WatchRemove stops watching an inbox directory.
func (c *Client) WatchRemove(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, "/api/watch/directories?path="+url.QueryEscape(path), "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
		var payload struct {
			Error    string               `json:"error"`
			Failures []models.FileFailure `json:"failures"`
		}
		if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Failures = payload.Failures
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
