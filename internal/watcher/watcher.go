// Package watcher provides file watching with event debouncing for
// incremental index updates.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/slateview/storyindex/internal/specifier"
)

// Operation represents the type of file change.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileEvent represents a single file change.
type FileEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Invalidation describes an index invalidation derived from a file event.
// Path is absolute; Removed is true when the file no longer exists.
type Invalidation struct {
	Specifier specifier.Specifier
	Path      string
	Removed   bool
}

// Config holds watcher configuration.
type Config struct {
	// WorkingDir is the root all specifier directories resolve against.
	WorkingDir string

	// Specifiers are the story globs whose files should trigger
	// invalidations. Events for paths no specifier matches are dropped.
	Specifiers []specifier.Specifier

	// Debounce is the window in which events for the same path coalesce.
	Debounce time.Duration
}

// Watcher watches specifier directories and emits invalidation batches.
type Watcher struct {
	cfg       Config
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	hashes    *hashCache
	out       chan []Invalidation
	stopOnce  sync.Once
	done      chan struct{}
}

// New creates a watcher for the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.WorkingDir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:       cfg,
		fsw:       fsw,
		debouncer: NewDebouncer(cfg.Debounce),
		hashes:    newHashCache(),
		out:       make(chan []Invalidation, 10),
		done:      make(chan struct{}),
	}, nil
}

// Start registers watches for every specifier directory and begins
// emitting invalidation batches. It returns once registration completes;
// event processing continues until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, spec := range w.cfg.Specifiers {
		root := spec.AbsDirectory(w.cfg.WorkingDir)
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	go w.readLoop(ctx)
	go w.batchLoop(ctx)
	return nil
}

// Invalidations returns the channel of debounced invalidation batches.
func (w *Watcher) Invalidations() <-chan []Invalidation {
	return w.out
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		err = w.fsw.Close()
	})
	return err
}

// addRecursive watches dir and every subdirectory beneath it, skipping
// hidden directories and node_modules.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && (strings.HasPrefix(name, ".") || name == "node_modules") {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// readLoop translates raw fsnotify events into debounced FileEvents.
func (w *Watcher) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New directories need their own watch so files created inside
	// them are seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				slog.Warn("failed to watch new directory",
					slog.String("path", path), slog.String("error", err.Error()))
			}
			return
		}
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		op = OpDelete
	default:
		return
	}

	if !w.matchesAny(path) {
		return
	}

	if op == OpDelete {
		w.hashes.forget(path)
	} else if !w.hashes.changed(path) {
		slog.Debug("content unchanged, ignoring event", slog.String("path", path))
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) matchesAny(path string) bool {
	for _, spec := range w.cfg.Specifiers {
		if spec.Matches(w.cfg.WorkingDir, path) {
			return true
		}
	}
	return false
}

// batchLoop maps debounced event batches onto invalidations, one per
// matching specifier.
func (w *Watcher) batchLoop(ctx context.Context) {
	defer close(w.out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case batch, ok := <-w.debouncer.Events():
			if !ok {
				return
			}
			invs := w.mapBatch(batch)
			if len(invs) == 0 {
				continue
			}
			select {
			case w.out <- invs:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watcher) mapBatch(batch []FileEvent) []Invalidation {
	invs := make([]Invalidation, 0, len(batch))
	for _, ev := range batch {
		for _, spec := range w.cfg.Specifiers {
			if !spec.Matches(w.cfg.WorkingDir, ev.Path) {
				continue
			}
			invs = append(invs, Invalidation{
				Specifier: spec,
				Path:      ev.Path,
				Removed:   ev.Operation == OpDelete,
			})
		}
	}
	return invs
}
