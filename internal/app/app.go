package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/extract"
	"github.com/blueprintgo/blueprintgo/internal/manifest"
)

// Version is stamped into generated library indexes.
const Version = "0.1.0"

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	man       *manifest.Manifest
	extractor *extract.Extractor

	httpServer *http.Server
	reportMu   sync.RWMutex
	lastReport *extract.Report
}

// NewApp is the constructor for the main application. It loads the
// manifest, applies the entrypoint's overrides on top of it, and prepares
// the extractor. The returned App owns an isolated logger writing to outW.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	man, err := manifest.Load(ctx, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if cfg.Output != "" {
		man.Output = cfg.Output
	}
	if cfg.UnknownRefs != "" {
		man.UnknownRefs = cfg.UnknownRefs
	}
	if cfg.Workers > 0 {
		man.Workers = cfg.Workers
	}
	if err := man.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	logger.Debug("Manifest loaded and validated.", "project", man.Project, "libraries", len(man.Libraries))

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		man:       man,
		extractor: extract.New(man, Version),
	}, nil
}

// Manifest returns the loaded manifest with overrides applied. This is
// primarily for testing.
func (a *App) Manifest() *manifest.Manifest {
	return a.man
}

// LastReport returns the report of the most recent completed run.
func (a *App) LastReport() *extract.Report {
	a.reportMu.RLock()
	defer a.reportMu.RUnlock()
	return a.lastReport
}

func (a *App) storeReport(r *extract.Report) {
	a.reportMu.Lock()
	a.lastReport = r
	a.reportMu.Unlock()
}
