package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileURLIndex_MergeAndList(t *testing.T) {
	ctx := context.Background()
	idx := NewFileURLIndex(filepath.Join(t.TempDir(), "urls.json"))

	urls, err := idx.Load(ctx)
	if err != nil || len(urls) != 0 {
		t.Fatalf("missing index should be empty: %v %v", urls, err)
	}
	if err := idx.Merge(ctx, map[string]string{"b.pdf": "https://x/b", "a.pdf": "https://x/a"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Merge(ctx, map[string]string{"a.pdf": "https://x/a2"}); err != nil {
		t.Fatal(err)
	}
	links, err := ListResumes(ctx, idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 || links[0].Filename != "a.pdf" || links[0].URL != "https://x/a2" || links[1].Filename != "b.pdf" {
		t.Errorf("links = %+v", links)
	}
}

func TestFileURLIndex_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	if err := os.WriteFile(path, []byte("[1,2]"), 0644); err != nil {
		t.Fatal(err)
	}
	idx := NewFileURLIndex(path)
	if _, err := idx.Load(context.Background()); !errors.Is(err, ErrStoreCorrupt) {
		t.Fatalf("expected ErrStoreCorrupt, got %v", err)
	}
	if err := idx.Merge(context.Background(), map[string]string{"a": "b"}); err == nil {
		t.Fatal("merge onto corrupt index should fail")
	}
}
