package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_Add(t *testing.T) {
	w, err := NewWatcher(0, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Join(t.TempDir(), "absent.lua")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("expected ErrPathNotExist, got %v", err)
	}

	path := writeFile(t, "scene.lua", "")
	if err := w.Add(path); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if files := w.Files(); len(files) != 1 || files[0] != path {
		t.Errorf("Files() = %v, want [%s]", files, path)
	}

	w.Close()
	if err := w.Add(path); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("expected ErrWatcherClosed, got %v", err)
	}
}

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "scene.lua")
	other := filepath.Join(dir, "other.lua")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte("-- v1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := NewWatcher(100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Add(watched); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(path string) { changes <- path })
	}()

	// Several writes in a burst are reported once.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(other, []byte("-- ignored\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(watched, []byte("-- v2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case path := <-changes:
		if path != watched {
			t.Errorf("change path = %s, want %s", path, watched)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	select {
	case path := <-changes:
		t.Errorf("unexpected second change: %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
