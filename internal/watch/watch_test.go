package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeOracle struct {
	invalidated chan string
}

func (f *fakeOracle) Invalidate(absolutePath string) {
	f.invalidated <- absolutePath
}

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	oracle := &fakeOracle{invalidated: make(chan string, 8)}
	w, err := New(dir, oracle)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond) // let the watcher's Add calls settle
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case got := <-oracle.invalidated:
		abs, _ := filepath.Abs(path)
		if got != abs {
			t.Errorf("invalidated %q, want %q", got, abs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an invalidation")
	}
}

func TestWatcherOnChangeCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	oracle := &fakeOracle{invalidated: make(chan string, 8)}
	w, err := New(dir, oracle)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	changed := make(chan []string, 8)
	w.OnChange = func(c []string) { changed <- c }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case c := <-changed:
		if len(c) != 1 {
			t.Errorf("OnChange batch = %v, want a single-path batch", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}
}
