package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/fsutil"
	"github.com/blueprintgo/blueprintgo/internal/watch"
)

// Run executes one full extraction, then in watch mode stays alive and
// rebuilds on file changes until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.logger.Info("🚀 Starting extraction...", "project", a.man.Project)
	report, err := a.extractor.Run(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	a.storeReport(report)
	a.logger.Info("🏁 Extraction finished.", "nodes", report.Nodes())

	if !a.config.Watch {
		a.logger.Debug("App.Run method finished.")
		return nil
	}

	if a.config.StatusPort > 0 {
		a.startStatusServer()
		defer a.closeStatusServer()
	}

	roots, ignores := a.watchPaths()
	watcher, err := watch.New(roots, ignores, a.man.Watch.Debounce, func(ctx context.Context) error {
		report, err := a.extractor.Run(ctx)
		if err != nil {
			return err
		}
		a.storeReport(report)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return watcher.Run(ctx)
}

// watchPaths derives the directories to watch from the manifest patterns,
// plus the directories whose writes must never retrigger a run.
func (a *App) watchPaths() ([]string, []string) {
	seen := make(map[string]struct{})
	var roots []string

	for i := range a.man.Libraries {
		lib := &a.man.Libraries[i]
		patterns := make([]string, 0, len(lib.Snapshots)+len(lib.Annotations))
		patterns = append(patterns, lib.Snapshots...)
		patterns = append(patterns, lib.Annotations...)

		for _, pattern := range patterns {
			root := fsutil.PatternRoot(a.man.BaseDir, pattern)
			info, err := os.Stat(root)
			if err != nil {
				a.logger.Warn("Watch root does not exist, skipping.", "path", root)
				continue
			}
			if !info.IsDir() {
				root = filepath.Dir(root)
			}
			if _, dup := seen[root]; dup {
				continue
			}
			seen[root] = struct{}{}
			roots = append(roots, root)
		}
	}
	sort.Strings(roots)

	outDir := a.man.Output
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(a.man.BaseDir, outDir)
	}
	return roots, []string{outDir}
}
