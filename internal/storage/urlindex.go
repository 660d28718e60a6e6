package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/hyperjump/resumatch/internal/models"
)

// FileURLIndex is a URLIndex stored as a JSON object of filename to URL.
type FileURLIndex struct {
	path string
	mu   sync.Mutex
}

// NewFileURLIndex returns an index persisted at path.
func NewFileURLIndex(path string) *FileURLIndex {
	return &FileURLIndex{path: path}
}

// Load returns the mapping. A missing file is an empty map; undecodable content is ErrStoreCorrupt.
func (x *FileURLIndex) Load(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.loadLocked()
}

func (x *FileURLIndex) loadLocked() (map[string]string, error) {
	data, err := os.ReadFile(x.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read url index: %w", err)
	}
	urls := map[string]string{}
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("%w: url index %s: %v", ErrStoreCorrupt, x.path, err)
	}
	return urls, nil
}

// Merge sets each filename's URL and rewrites the file.
func (x *FileURLIndex) Merge(ctx context.Context, urls map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	current, err := x.loadLocked()
	if err != nil {
		return err
	}
	for name, url := range urls {
		current[name] = url
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal url index: %w", err)
	}
	if err := writeFileAtomic(x.path, data, 0644); err != nil {
		return fmt.Errorf("write url index: %w", err)
	}
	return nil
}

// ListResumes returns the index as links sorted by filename.
func ListResumes(ctx context.Context, idx URLIndex) ([]models.ResumeLink, error) {
	urls, err := idx.Load(ctx)
	if err != nil {
		return nil, err
	}
	links := make([]models.ResumeLink, 0, len(urls))
	for name, url := range urls {
		links = append(links, models.ResumeLink{Filename: name, URL: url})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Filename < links[j].Filename })
	return links, nil
}
