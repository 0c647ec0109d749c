package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func startWatcher(t *testing.T, cfg WatcherConfig) <-chan Change {
	t.Helper()
	if cfg.Interval == 0 {
		cfg.Interval = 20 * time.Millisecond
	}
	watcher := NewWatcher(cfg)

	changes := make(chan Change, 10)
	watcher.OnChange(func(c Change) {
		changes <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		watcher.Stop()
	})
	go watcher.Start(ctx)

	// Wait for the directories to be added.
	time.Sleep(80 * time.Millisecond)
	return changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for change")
		return Change{}
	}
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_Modified(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "index.js")
	if err := os.WriteFile(testFile, []byte("export {}"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, WatcherConfig{Paths: []string{tmpDir}})
	touch(t, testFile, "export const a = 1;")

	change := waitChange(t, changes)
	if change.Type != ChangeScript {
		t.Errorf("Expected script change, got %v", change.Type)
	}
	if change.Path != testFile {
		t.Errorf("Expected path %q, got %q", testFile, change.Path)
	}
}

func TestWatcher_NewFile(t *testing.T) {
	tmpDir := t.TempDir()
	changes := startWatcher(t, WatcherConfig{Paths: []string{tmpDir}})

	newFile := filepath.Join(tmpDir, "base.css")
	touch(t, newFile, "body{}")

	change := waitChange(t, changes)
	if change.Type != ChangeStyle || change.Path != newFile {
		t.Errorf("got %+v, want style change of %s", change, newFile)
	}
}

func TestWatcher_Deleted(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "logo.png")
	if err := os.WriteFile(testFile, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, WatcherConfig{Paths: []string{tmpDir}})
	if err := os.Remove(testFile); err != nil {
		t.Fatal(err)
	}

	change := waitChange(t, changes)
	if change.Type != ChangeAsset || change.Path != testFile {
		t.Errorf("got %+v, want asset change of %s", change, testFile)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	changes := startWatcher(t, WatcherConfig{Paths: []string{tmpDir}})

	dir := filepath.Join(tmpDir, "pages")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(80 * time.Millisecond)

	file := filepath.Join(dir, "trade.js")
	touch(t, file, "export {}")
	change := waitChange(t, changes)
	if change.Type != ChangeScript || change.Path != file {
		t.Errorf("got %+v, want script change of %s", change, file)
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	tmpDir := t.TempDir()
	changes := startWatcher(t, WatcherConfig{Paths: []string{tmpDir}, Interval: 100 * time.Millisecond})

	for i, name := range []string{"a.js", "b.js", "c.js"} {
		touch(t, filepath.Join(tmpDir, name), strings.Repeat("x", i))
	}
	if c := waitChange(t, changes); c.Type != ChangeScript {
		t.Errorf("got %+v", c)
	}
	select {
	case c := <-changes:
		t.Errorf("burst reported twice: %+v", c)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestWatcher_MissingPath(t *testing.T) {
	w := NewWatcher(WatcherConfig{Paths: []string{filepath.Join(t.TempDir(), "missing")}})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Start(ctx); err != context.DeadlineExceeded {
		t.Errorf("Start = %v, want deadline exceeded", err)
	}
}

func TestWatcher_Ignore(t *testing.T) {
	tmpDir := t.TempDir()
	ignored := filepath.Join(tmpDir, "node_modules")
	if err := os.MkdirAll(ignored, 0755); err != nil {
		t.Fatal(err)
	}

	changes := startWatcher(t, WatcherConfig{Paths: []string{tmpDir}})
	touch(t, filepath.Join(ignored, "lib.js"), "export {}")
	touch(t, filepath.Join(tmpDir, "notes.swp"), "x")

	select {
	case c := <-changes:
		t.Errorf("unexpected change %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher(WatcherConfig{Paths: []string{t.TempDir()}, Interval: 10 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for !w.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if w.IsRunning() {
		t.Error("watcher still running")
	}
}

func TestShouldIgnore(t *testing.T) {
	w := NewWatcher(WatcherConfig{Ignore: []string{"node_modules", "*.swp", "web/tmp", "web/gen/*.js"}})

	tests := []struct {
		path string
		want bool
	}{
		{"/p/node_modules/x.js", true},
		{"/p/web/src/a.swp", true},
		{"/p/web/tmp/a.js", true},
		{"/p/web/gen/a.js", false},
		{"web/gen/a.js", true},
		{"/p/web/src/index.js", false},
		{"/p/web/tmpfile.js", false},
	}
	for _, tt := range tests {
		if got := w.shouldIgnore(tt.path); got != tt.want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClassifyChange(t *testing.T) {
	tests := map[string]ChangeType{
		"web/src/index.js":         ChangeScript,
		"web/src/router.ts":        ChangeScript,
		"web/src/base.CSS":         ChangeStyle,
		"web/public/index.html":    ChangeTemplate,
		"web/src/images/logo.svg":  ChangeAsset,
		"web/src/images/photo.jpg": ChangeAsset,
	}
	for path, want := range tests {
		if got := classifyChange(path); got != want {
			t.Errorf("classifyChange(%q) = %v, want %v", path, got, want)
		}
	}
}
