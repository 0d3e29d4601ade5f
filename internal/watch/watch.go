// Package watch reruns extraction whenever snapshot or annotation files
// change. Manifest edits are not picked up; watch mode must be restarted
// after changing blueprint.yaml.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

const defaultDebounce = 300 * time.Millisecond

// watchedSuffixes lists the file types that can affect an extraction run.
var watchedSuffixes = []string{".json", ".hcl"}

// Watcher coalesces file change bursts and triggers one rebuild per quiet
// period. A failing rebuild is logged and the watcher keeps running, so an
// edit loop survives intermediate broken states.
type Watcher struct {
	roots    []string
	ignores  []string
	debounce time.Duration
	rebuild  func(context.Context) error
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// New creates a watcher over the given root directories. Paths under any
// of the ignore directories never trigger a rebuild; the caller passes the
// artifact output directory here so generated files cannot retrigger the
// run that wrote them.
func New(roots, ignores []string, debounce time.Duration, rebuild func(context.Context) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		roots:    roots,
		ignores:  ignores,
		debounce: debounce,
		rebuild:  rebuild,
		fsw:      fsw,
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Run blocks until ctx is canceled, invoking the rebuild callback after
// every quiet period that saw at least one relevant change.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	defer w.fsw.Close()

	for _, root := range w.roots {
		if err := w.addWatchesRecursive(ctx, root); err != nil {
			return err
		}
	}
	logger.Info("Watching for changes.", "roots", len(w.roots), "debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watcher stopped.")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error.", "error", err)

		case <-ticker.C:
			if !w.takePending() {
				continue
			}
			logger.Info("Changes detected, rebuilding.")
			if err := w.rebuild(ctx); err != nil {
				logger.Error("Rebuild failed.", "error", err)
			}
		}
	}
}

// addWatchesRecursive watches every directory under root, skipping hidden
// directories and the ignore list.
func (w *Watcher) addWatchesRecursive(ctx context.Context, root string) error {
	logger := ctxlog.FromContext(ctx)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if w.ignored(path) || strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Warn("Failed to watch directory.", "path", path, "error", err)
		} else {
			logger.Debug("Watching directory.", "path", path)
		}
		return nil
	})
}

// handleFSEvent records one fsnotify event into the pending set.
func (w *Watcher) handleFSEvent(ctx context.Context, event fsnotify.Event) {
	logger := ctxlog.FromContext(ctx)
	path := event.Name

	if w.ignored(path) {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	// New directories need their own watch before files inside them are
	// visible.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(ctx, path); err != nil {
				logger.Warn("Failed to watch new directory.", "path", path, "error", err)
			}
			return
		}
	}

	if !relevant(path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()
	logger.Debug("File change detected.", "path", path, "op", event.Op.String())
}

// takePending clears the pending set and reports whether it held anything.
func (w *Watcher) takePending() bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	changed := len(w.pending) > 0
	w.pending = make(map[string]fsnotify.Op)
	return changed
}

func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignores {
		if path == dir || strings.HasPrefix(path, dir+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func relevant(path string) bool {
	for _, suffix := range watchedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
