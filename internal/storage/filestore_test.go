package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/resumatch/internal/models"
)

func entry(file, chunkType, text string, vec ...float32) models.StoreEntry {
	return models.StoreEntry{
		Embedding: vec,
		Metadata:  models.Chunk{Filename: file, ChunkType: chunkType, Text: text, CandidateName: "C " + file},
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	st, err := s.Status(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Exists || st.TotalChunks != 0 || st.TotalResumes != 0 {
		t.Errorf("status of missing store: %+v", st)
	}
}

func TestFileStore_AppendAndStatus(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "data", "store.json"), WithModel("m1", 2))

	first := []models.StoreEntry{
		entry("a.pdf", "profile", "a profile", 1, 0),
		entry("a.pdf", "exp_0", "a exp", 0, 1),
		entry("b.pdf", "profile", "b profile", 1, 1),
	}
	second := []models.StoreEntry{
		entry("b.pdf", "proj_0", "b proj", 1, 0),
		entry("c.pdf", "profile", "c profile", 0, 1),
		entry("c.pdf", "exp_0", "c exp", 1, 1),
		entry("c.pdf", "exp_1", "c exp 2", 1, 0),
	}
	if err := s.Append(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, second); err != nil {
		t.Fatal(err)
	}

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Exists || st.TotalChunks != 7 || st.TotalResumes != 3 {
		t.Errorf("status = %+v, want exists, 7 chunks, 3 resumes", st)
	}
	if st.SizeBytes <= 0 {
		t.Errorf("size_bytes should be positive, got %d", st.SizeBytes)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 7 {
		t.Fatalf("loaded %d entries", len(loaded))
	}
	if loaded[0].Metadata.Text != "a profile" || loaded[6].Metadata.ChunkType != "exp_1" {
		t.Error("append should preserve insertion order")
	}
	for i, e := range loaded {
		if e.Model != "m1" {
			t.Errorf("entry %d not stamped: %q", i, e.Model)
		}
	}
}

func TestFileStore_DuplicatesAreKept(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	e := []models.StoreEntry{entry("a.pdf", "profile", "x", 1)}
	_ = s.Append(ctx, e)
	_ = s.Append(ctx, e)
	st, _ := s.Status(ctx)
	if st.TotalChunks != 2 || st.TotalResumes != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"not a list", `{"embedding":[1]}`},
		{"missing filename", `[{"embedding":[1],"metadata":{"chunk_type":"profile","text":"x"}}]`},
		{"missing metadata", `[{"embedding":[1]}]`},
		{"missing embedding", `[{"metadata":{"resume_filename":"a","chunk_type":"profile","text":"x"}}]`},
		{"mixed dimensions", `[
			{"embedding":[1,0],"metadata":{"resume_filename":"a","chunk_type":"profile","text":"x"}},
			{"embedding":[1],"metadata":{"resume_filename":"b","chunk_type":"profile","text":"y"}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			s := NewFileStore(path)
			if _, err := s.Load(context.Background()); !errors.Is(err, ErrStoreCorrupt) {
				t.Fatalf("expected ErrStoreCorrupt, got %v", err)
			}
			st, err := s.Status(context.Background())
			if err != nil {
				t.Fatalf("Status should not fail on corrupt store: %v", err)
			}
			if !st.Exists || st.Error == "" {
				t.Errorf("status = %+v, want exists with error", st)
			}
			if err := s.Append(context.Background(), []models.StoreEntry{entry("c", "profile", "z", 1)}); !errors.Is(err, ErrStoreCorrupt) {
				t.Errorf("append onto corrupt store should fail, got %v", err)
			}
			after, _ := os.ReadFile(path)
			if string(after) != tt.content {
				t.Error("corrupt store must not be overwritten")
			}
		})
	}
}

func TestFileStore_ModelMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	old := NewFileStore(path, WithModel("old-model", 2))
	if err := old.Append(ctx, []models.StoreEntry{entry("a", "profile", "x", 1, 0)}); err != nil {
		t.Fatal(err)
	}

	t.Run("different model", func(t *testing.T) {
		s := NewFileStore(path, WithModel("new-model", 2))
		_, err := s.Load(ctx)
		if !errors.Is(err, ErrModelMismatch) || !errors.Is(err, ErrStoreCorrupt) {
			t.Fatalf("expected model mismatch, got %v", err)
		}
	})
	t.Run("different dimension", func(t *testing.T) {
		s := NewFileStore(path, WithModel("old-model", 3))
		if _, err := s.Load(ctx); !errors.Is(err, ErrModelMismatch) {
			t.Fatalf("expected model mismatch, got %v", err)
		}
	})
	t.Run("append with wrong dimension rejected", func(t *testing.T) {
		s := NewFileStore(path, WithModel("old-model", 2))
		err := s.Append(ctx, []models.StoreEntry{entry("b", "profile", "y", 1, 0, 0)})
		if !errors.Is(err, ErrModelMismatch) {
			t.Fatalf("expected model mismatch, got %v", err)
		}
	})
	t.Run("unstamped legacy entries accepted", func(t *testing.T) {
		legacy := filepath.Join(t.TempDir(), "legacy.json")
		content := `[{"embedding":[1,0],"metadata":{"resume_filename":"a","chunk_type":"profile","text":"x","candidate_name":"A"}}]`
		if err := os.WriteFile(legacy, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		s := NewFileStore(legacy, WithModel("any", 2))
		if _, err := s.Load(ctx); err != nil {
			t.Fatalf("legacy entries should load: %v", err)
		}
	})
}

func TestFileStore_ReloadsWhenFileChanges(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s := NewFileStore(path)
	if err := s.Append(ctx, []models.StoreEntry{entry("a", "profile", "x", 1)}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(ctx); len(got) != 1 {
		t.Fatalf("got %d entries", len(got))
	}

	// Another writer replaces the file.
	other := NewFileStore(path)
	var many []models.StoreEntry
	for i := 0; i < 3; i++ {
		many = append(many, entry(fmt.Sprintf("f%d", i), "profile", "y", 1))
	}
	if err := other.Append(ctx, many); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	_ = os.Chtimes(path, future, future)

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("expected reload to see 4 entries, got %d", len(got))
	}
}

func TestFileStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	_ = s.Append(ctx, []models.StoreEntry{entry("a", "profile", "x", 1), entry("b", "profile", "y", 1)})
	got, _ := s.Load(ctx)
	got[0] = models.StoreEntry{}
	again, _ := s.Load(ctx)
	if again[0].Metadata.Filename != "a" {
		t.Error("mutating a loaded slice must not affect the cache")
	}
}

func TestFileStore_ReloadsSameSizeRewriteWithNewMtime(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	s := NewFileStore(path)
	if err := s.Append(ctx, []models.StoreEntry{entry("a", "profile", "x", 1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rewritten := bytes.Replace(data, []byte(`"x"`), []byte(`"z"`), 1)
	if len(rewritten) != len(data) || bytes.Equal(rewritten, data) {
		t.Fatal("rewrite should change the text but keep the size")
	}
	if err := os.WriteFile(path, rewritten, 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(3 * time.Second)
	_ = os.Chtimes(path, future, future)

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Metadata.Text != "z" {
		t.Errorf("cache keyed on mtime should pick up the rewrite, got text %q", got[0].Metadata.Text)
	}
}
