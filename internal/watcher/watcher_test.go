package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) ingest(_ context.Context, paths []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, paths)
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.got...)
}

// waitFor polls until at least n batches have arrived.
func (b *batches) waitFor(t *testing.T, n int) [][]string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := b.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d batches, have %v", n, b.snapshot())
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, roots []string, recursive bool, b *batches) *Watcher {
	t.Helper()
	w := New(roots, []string{".pdf", ".txt"}, recursive, b.ingest, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestWatcher_BatchesSettledFiles(t *testing.T) {
	dir := t.TempDir()
	b := &batches{}
	startWatcher(t, []string{dir}, false, b)

	writeFile(t, filepath.Join(dir, "b.txt"), "bob")
	writeFile(t, filepath.Join(dir, "a.pdf"), "alice")
	writeFile(t, filepath.Join(dir, "notes.xyz"), "ignored")
	writeFile(t, filepath.Join(dir, ".hidden.txt"), "ignored")

	got := b.waitFor(t, 1)
	if len(got[0]) != 2 {
		t.Fatalf("batch = %v, want a.pdf and b.txt", got[0])
	}
	if filepath.Base(got[0][0]) != "a.pdf" || filepath.Base(got[0][1]) != "b.txt" {
		t.Errorf("batch not sorted: %v", got[0])
	}
}

func TestWatcher_NonRecursiveIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "processed")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	b := &batches{}
	startWatcher(t, []string{dir}, false, b)

	writeFile(t, filepath.Join(sub, "old.pdf"), "x")
	writeFile(t, filepath.Join(dir, "new.pdf"), "y")

	b.waitFor(t, 1)
	time.Sleep(300 * time.Millisecond)
	for _, batch := range b.snapshot() {
		for _, p := range batch {
			if filepath.Base(p) == "old.pdf" {
				t.Errorf("file in subdirectory ingested: %s", p)
			}
		}
	}
}

func TestWatcher_RecursiveNewFolder(t *testing.T) {
	dir := t.TempDir()
	b := &batches{}
	startWatcher(t, []string{dir}, true, b)

	staging := filepath.Join(t.TempDir(), "drop")
	if err := os.Mkdir(staging, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(staging, "c.txt"), "carol")
	if err := os.Rename(staging, filepath.Join(dir, "drop")); err != nil {
		t.Fatal(err)
	}

	got := b.waitFor(t, 1)
	if len(got[0]) != 1 || filepath.Base(got[0][0]) != "c.txt" {
		t.Errorf("batch = %v, want c.txt", got[0])
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "skip.doc"), "x")

	b := &batches{}
	w := startWatcher(t, []string{dir}, false, b)
	w.SyncExisting()

	got := b.waitFor(t, 1)
	if len(got[0]) != 1 || filepath.Base(got[0][0]) != "a.txt" {
		t.Errorf("batch = %v, want a.txt", got[0])
	}
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	base := t.TempDir()
	first := filepath.Join(base, "inbox")
	second := filepath.Join(base, "other", "inbox")

	b := &batches{}
	w := startWatcher(t, []string{first}, false, b)
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("root not created: %v", err)
	}

	if err := w.AddDirectory(second, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(second, false); err != nil {
		t.Fatal(err)
	}
	if dirs := w.Directories(); len(dirs) != 2 {
		t.Fatalf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(first); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || dirs[0] != second {
		t.Errorf("after remove: %v", dirs)
	}
	if err := w.RemoveDirectory(filepath.Join(base, "never")); err != nil {
		t.Errorf("removing unknown root: %v", err)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.pdf", []string{".pdf"}, true},
		{"/a/b.PDF", []string{"pdf"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{".txt"}, false},
	}
	for _, tt := range tests {
		if got := MatchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("MatchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/tmp/a", "/tmp/a", false},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
