package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDiskBaseURL is the path the HTTP server mounts the disk store under.
const DefaultDiskBaseURL = "/files"

// DiskStore writes objects under a local directory.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore returns a store rooted at dir. baseURL prefixes returned URLs and defaults
// to DefaultDiskBaseURL.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("disk object store: dir is required")
	}
	if baseURL == "" {
		baseURL = DefaultDiskBaseURL
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Put writes data to dir/key. Existing objects with the same key are overwritten.
func (s *DiskStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, filepath.FromSlash(key))
	if rel, err := filepath.Rel(s.dir, p); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("disk object store: key %q escapes root", key)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("disk object store: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("disk object store: %w", err)
	}
	return s.baseURL + "/" + escapeKey(key), nil
}
