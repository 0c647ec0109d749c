package dev

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeScript ChangeType = iota
	ChangeStyle
	ChangeAsset
	ChangeTemplate
)

func (t ChangeType) String() string {
	switch t {
	case ChangeScript:
		return "script"
	case ChangeStyle:
		return "style"
	case ChangeTemplate:
		return "template"
	default:
		return "asset"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch, recursively.
	Paths []string

	// Ignore patterns to skip (globs).
	Ignore []string

	// Interval is how long events are collected before they are reported.
	// Editors often write a file in several steps.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	".scaffold",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher reports file changes below a set of directories using fsnotify.
// Directories created while watching are added as they appear.
type Watcher struct {
	config   WatcherConfig
	onChange func(Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	return &Watcher{
		config: config,
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.Stop()
		return err
	}
	defer fw.Close()

	for _, root := range w.config.Paths {
		if err := w.watchTree(fw, root); err != nil {
			w.Stop()
			return err
		}
	}

	var (
		pending []Change
		flush   <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			change, ok := w.handleEvent(fw, event)
			if !ok {
				continue
			}
			pending = append(pending, change)
			if flush == nil {
				flush = time.After(w.config.Interval)
			}
		case _, ok := <-fw.Errors:
			// Overflowed event queues are reported here; watching goes on.
			if !ok {
				return nil
			}
		case <-flush:
			w.report(pending)
			pending = nil
			flush = nil
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// watchTree adds root and every directory below it that is not ignored.
// Missing roots are skipped.
func (w *Watcher) watchTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

// handleEvent turns an fsnotify event into a change. New directories are
// watched and reported as nothing.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	if !isWatchEvent(event.Op) || w.shouldIgnore(event.Name) {
		return Change{}, false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watchTree(fw, event.Name)
			return Change{}, false
		}
	}
	return Change{Path: event.Name, Type: classifyChange(event.Name)}, true
}

// report calls the callback with the first change of each type.
func (w *Watcher) report(changes []Change) {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	reported := make(map[ChangeType]bool)
	for _, change := range changes {
		if !reported[change.Type] {
			reported[change.Type] = true
			callback(change)
		}
	}
}

func isWatchEvent(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/") || strings.Contains(pattern, "\\")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		if hasGlob {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(path, segment string) bool {
	for _, part := range splitPathSegments(path) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(path, pattern string) bool {
	pathParts := splitPathSegments(path)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// classifyChange determines the type of change based on file extension.
func classifyChange(path string) ChangeType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".jsx", ".ts", ".tsx", ".json":
		return ChangeScript
	case ".css":
		return ChangeStyle
	case ".html", ".tmpl":
		return ChangeTemplate
	default:
		return ChangeAsset
	}
}
