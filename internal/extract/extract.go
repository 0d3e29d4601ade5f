// Package extract drives full blueprint runs: for each library in the
// manifest it loads snapshots and annotations, feeds every annotated
// declaration through the engine in a strict total order, and hands the
// finished nodes to the artifact writer.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/blueprintgo/blueprintgo/internal/annotation"
	"github.com/blueprintgo/blueprintgo/internal/artifact"
	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/inspect"
	"github.com/blueprintgo/blueprintgo/internal/kb"
	"github.com/blueprintgo/blueprintgo/internal/manifest"
)

// Extractor runs extractions against one manifest. The snapshot cache
// inside the loader is shared across runs, so repeated runs in watch mode
// only re-parse modules whose files actually changed.
type Extractor struct {
	man    *manifest.Manifest
	loader *kb.Loader
	writer *artifact.Writer
}

// New creates an extractor for a validated manifest. The version string
// ends up in generated library indexes.
func New(man *manifest.Manifest, version string) *Extractor {
	outDir := man.Output
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(man.BaseDir, outDir)
	}
	return &Extractor{
		man:    man,
		loader: kb.NewLoader(),
		writer: artifact.NewWriter(outDir, man.Workers, version),
	}
}

// Run executes one full extraction over every library in the manifest.
// Libraries are processed sequentially; the first failing library aborts
// the run.
func (e *Extractor) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	report := &Report{}
	for i := range e.man.Libraries {
		lib := &e.man.Libraries[i]
		libReport, err := e.extractLibrary(ctx, lib)
		if err != nil {
			return nil, fmt.Errorf("failed to extract library %s: %w", lib.Name, err)
		}
		report.Libraries = append(report.Libraries, *libReport)
	}
	report.Duration = time.Since(start)

	logger.Info("Extraction run finished.", "libraries", len(report.Libraries), "nodes", report.Nodes(), "duration", report.Duration)
	return report, nil
}

// extractLibrary runs the engine over one library. Engine calls are
// strictly sequential; only the artifact writes at the end fan out.
func (e *Extractor) extractLibrary(ctx context.Context, lib *manifest.Library) (*LibraryReport, error) {
	logger := ctxlog.FromContext(ctx).With("library", lib.Name)
	severity := e.man.Severity()

	snapPaths, err := e.man.ResolveSnapshots(lib)
	if err != nil {
		return nil, err
	}
	env, err := e.loader.LoadEnvironment(ctx, snapPaths)
	if err != nil {
		return nil, err
	}

	annPaths, err := e.man.ResolveAnnotations(lib)
	if err != nil {
		return nil, err
	}
	set, err := annotation.NewLoader(severity).Load(ctx, env, annPaths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Library inputs loaded.", "modules", env.Len(), "annotations", set.Len())

	registry := blueprint.NewRegistry()
	builder := blueprint.NewBuilder(env, inspect.New(env), registry)
	checker := blueprint.NewChecker(registry, severity)

	for _, label := range set.ExternalLabels() {
		registry.RecordExternalLabel(label)
	}

	consumed := make(map[kb.DeclID]struct{})
	var moduleNodes []artifact.ModuleNodes

	for _, mod := range env.Modules() {
		var nodes []*blueprint.Node
		for _, decl := range mod.Declarations {
			cfg, ok := set.ConfigFor(decl.Name)
			if !ok {
				continue
			}
			consumed[decl.Name] = struct{}{}

			node, err := builder.MkNode(ctx, decl.Name, cfg)
			if err != nil {
				return nil, err
			}
			if err := registry.Register(node); err != nil {
				return nil, err
			}
			registry.RecordLabel(node.Label, node.Name)
			if err := checker.CheckAcyclic(ctx, node.Label); err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		if len(nodes) > 0 {
			moduleNodes = append(moduleNodes, artifact.ModuleNodes{Module: mod.Name, Nodes: nodes})
		}
	}

	if err := e.reportUnconsumed(ctx, set, consumed, severity); err != nil {
		return nil, err
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}

	summary, err := e.writer.WriteLibrary(ctx, lib.Name, moduleNodes)
	if err != nil {
		return nil, err
	}

	return &LibraryReport{
		Library: lib.Name,
		Modules: len(moduleNodes),
		Nodes:   registry.Len(),
		Written: summary.Written,
		Skipped: summary.Skipped,
		RunID:   summary.RunID,
	}, nil
}

// reportUnconsumed handles annotations whose declaration appeared in none
// of the walked snapshots. They usually point at a typo or a stale
// annotation file, so by default they fail the run.
func (e *Extractor) reportUnconsumed(ctx context.Context, set *annotation.Set, consumed map[kb.DeclID]struct{}, severity blueprint.Severity) error {
	logger := ctxlog.FromContext(ctx)

	for _, name := range set.Names() {
		if _, ok := consumed[name]; ok {
			continue
		}
		cfg, _ := set.ConfigFor(name)
		switch severity {
		case blueprint.SeverityError:
			return fmt.Errorf("annotation at %s: %w", cfg.DeclRange, &blueprint.UnknownConstantError{Label: string(name)})
		case blueprint.SeverityWarn:
			logger.Warn("Annotation matches no declaration in the loaded snapshots.", "declaration", name, "at", cfg.DeclRange)
		}
	}
	return nil
}
