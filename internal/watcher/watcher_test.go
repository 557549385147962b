package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(target, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changes []string
	w, err := NewWatcher([]string{target}, func(path string) {
		mu.Lock()
		changes = append(changes, path)
		mu.Unlock()
	}, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(`{"events":[]}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(changes)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	// allow any straggling timer to fire
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 {
		t.Fatalf("Expected 1 debounced change, got %d (%v)", len(changes), changes)
	}
	abs, _ := filepath.Abs(target)
	if changes[0] != filepath.Clean(abs) {
		t.Errorf("Expected %s, got %s", abs, changes[0])
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(target, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	called := false
	w, err := NewWatcher([]string{target}, func(string) {
		mu.Lock()
		called = true
		mu.Unlock()
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("Expected no change callback for an unwatched file")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher([]string{filepath.Join(dir, "x.json")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()

	if got := len(w.Files()); got != 1 {
		t.Errorf("Expected 1 watched file, got %d", got)
	}
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "x.json")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("Expected error watching a missing directory")
	}
}
