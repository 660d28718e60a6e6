package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/resumatch/internal/models"
)

func TestCatalog_Commit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "store.json"))
	urls := NewFileURLIndex(filepath.Join(dir, "urls.json"))
	c := NewCatalog(store, urls, nil)

	err := c.Commit(ctx,
		[]models.StoreEntry{entry("a.pdf", "profile", "x", 1)},
		map[string]string{"a.pdf": "https://files/a.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	st, _ := c.Store().Status(ctx)
	if st.TotalChunks != 1 {
		t.Errorf("chunks = %d", st.TotalChunks)
	}
	m, _ := c.URLs().Load(ctx)
	if m["a.pdf"] != "https://files/a.pdf" {
		t.Errorf("url index = %v", m)
	}
}

func TestCatalog_RollsBackStoreWhenURLIndexFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.json")
	store := NewFileStore(storePath)
	if err := store.Append(ctx, []models.StoreEntry{entry("old.pdf", "profile", "old", 1)}); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(storePath)

	// A directory where the index file should be makes every index read fail.
	urlPath := filepath.Join(dir, "urls.json")
	if err := os.Mkdir(urlPath, 0755); err != nil {
		t.Fatal(err)
	}
	c := NewCatalog(store, NewFileURLIndex(urlPath), nil)
	err := c.Commit(ctx, []models.StoreEntry{entry("new.pdf", "profile", "new", 1)}, map[string]string{"new.pdf": "u"})
	if err == nil {
		t.Fatal("expected commit error")
	}
	after, _ := os.ReadFile(storePath)
	if string(after) != string(before) {
		t.Error("store should be restored to its previous contents")
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Metadata.Filename != "old.pdf" {
		t.Errorf("store after rollback = %+v", got)
	}
}

func TestCatalog_RollbackRemovesNewStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.json")
	urlPath := filepath.Join(dir, "urls.json")
	if err := os.Mkdir(urlPath, 0755); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(storePath)
	c := NewCatalog(store, NewFileURLIndex(urlPath), nil)
	if err := c.Commit(ctx, []models.StoreEntry{entry("a", "profile", "x", 1)}, map[string]string{"a": "u"}); err == nil {
		t.Fatal("expected commit error")
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("store should not exist after rollback, got %v", err)
	}
}
