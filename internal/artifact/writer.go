package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

const (
	modulesDir = "modules"
	libraryDir = "library"
)

// Writer persists module and library artifacts under a single output
// directory. Module writes fan out over a bounded worker pool; each write
// goes through a temp file and rename so readers never observe a partial
// artifact.
type Writer struct {
	outDir  string
	workers int
	version string
}

// NewWriter returns a writer rooted at outDir. The workers count bounds
// concurrent module writes; values below one are treated as one.
func NewWriter(outDir string, workers int, version string) *Writer {
	if workers < 1 {
		workers = 1
	}
	return &Writer{outDir: outDir, workers: workers, version: version}
}

// ModuleNodes pairs a module name with its nodes in registration order.
type ModuleNodes struct {
	Module string
	Nodes  []*blueprint.Node
}

// Summary reports what one WriteLibrary call did.
type Summary struct {
	RunID   string
	Library string
	Written []string
	Skipped []string
}

// LibraryIndex is the wire form of the per-library index file.
type LibraryIndex struct {
	RunID     string       `json:"runId"`
	Library   string       `json:"library"`
	Generator string       `json:"generator"`
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	Modules   []string     `json:"modules"`
	Nodes     []NodeRecord `json:"nodes"`
}

type moduleResult struct {
	written bool
	err     error
}

// WriteLibrary writes the artifacts for every module of one library, then
// the library index. Modules whose fingerprint matches the one on disk are
// left untouched. The first module failure cancels the remaining writes.
func (w *Writer) WriteLibrary(ctx context.Context, library string, modules []ModuleNodes) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	for _, dir := range []string{modulesDir, libraryDir} {
		if err := os.MkdirAll(filepath.Join(w.outDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tasks := make(chan int, len(modules))
	results := make([]moduleResult, len(modules))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(len(modules))

	logger.Debug("Starting artifact workers.", "workers", w.workers, "modules", len(modules))
	for i := 0; i < w.workers; i++ {
		go w.worker(runCtx, modules, tasks, results, cancel, &wg, i)
	}
	for i := range modules {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	summary := &Summary{RunID: uuid.NewString(), Library: library}
	var failed []string
	var rootCause error
	for i, res := range results {
		if res.err != nil {
			if !errors.Is(res.err, context.Canceled) {
				failed = append(failed, modules[i].Module)
				if rootCause == nil {
					rootCause = res.err
				}
			}
			continue
		}
		if res.written {
			summary.Written = append(summary.Written, modules[i].Module)
		} else {
			summary.Skipped = append(summary.Skipped, modules[i].Module)
		}
	}
	if rootCause != nil {
		return nil, fmt.Errorf("artifact generation failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := w.writeIndex(library, summary.RunID, modules); err != nil {
		return nil, err
	}
	logger.Info("Library artifacts written.", "library", library, "written", len(summary.Written), "skipped", len(summary.Skipped))
	return summary, nil
}

// worker is the processing loop for a single concurrent artifact writer.
func (w *Writer) worker(ctx context.Context, modules []ModuleNodes, tasks chan int, results []moduleResult, cancel context.CancelFunc, wg *sync.WaitGroup, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Artifact worker started.", "workerID", workerID)

	for i := range tasks {
		m := modules[i]
		workerLogger := logger.With("workerID", workerID, "module", m.Module)

		if ctx.Err() != nil {
			results[i] = moduleResult{err: ctx.Err()}
			wg.Done()
			continue
		}

		written, err := w.writeModule(m)
		if err != nil {
			workerLogger.Error("Module artifact write failed.", "error", err)
			results[i] = moduleResult{err: err}
			cancel()
			wg.Done()
			continue
		}

		if written {
			workerLogger.Debug("Module artifacts written.")
		} else {
			workerLogger.Debug("Module artifacts up to date, skipping write.")
		}
		results[i] = moduleResult{written: written}
		wg.Done()
	}
	logger.Debug("Artifact worker finished.", "workerID", workerID)
}

func (w *Writer) writeModule(m ModuleNodes) (bool, error) {
	latex := RenderModule(m.Module, m.Nodes)
	records := make([]NodeRecord, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		records = append(records, RecordFromNode(n, m.Module))
	}
	jsonBytes, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode records for module %s: %w", m.Module, err)
	}
	jsonBytes = append(jsonBytes, '\n')

	sum := Fingerprint(latex, jsonBytes)
	texPath := filepath.Join(w.outDir, modulesDir, m.Module+".tex")
	jsonPath := filepath.Join(w.outDir, modulesDir, m.Module+".json")
	sumPath := filepath.Join(w.outDir, modulesDir, m.Module+".sum")

	if upToDate(sumPath, sum, texPath, jsonPath) {
		return false, nil
	}

	if err := writeFileAtomic(texPath, []byte(latex)); err != nil {
		return false, err
	}
	if err := writeFileAtomic(jsonPath, jsonBytes); err != nil {
		return false, err
	}
	if err := writeFileAtomic(sumPath, []byte(sum+"\n")); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Writer) writeIndex(library, runID string, modules []ModuleNodes) error {
	names := make([]string, 0, len(modules))
	records := make([]NodeRecord, 0)
	var tex strings.Builder
	fmt.Fprintf(&tex, "%% %s: generated by blueprintgo, do not edit.\n\n", library)
	for _, m := range modules {
		names = append(names, m.Module)
		fmt.Fprintf(&tex, "\\input{%s/%s.tex}\n", modulesDir, m.Module)
		for _, n := range m.Nodes {
			records = append(records, RecordFromNode(n, m.Module))
		}
	}

	index := LibraryIndex{
		RunID:     runID,
		Library:   library,
		Generator: "blueprintgo",
		Version:   w.version,
		CreatedAt: time.Now().UTC(),
		Modules:   names,
		Nodes:     records,
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index for library %s: %w", library, err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(filepath.Join(w.outDir, libraryDir, library+".tex"), []byte(tex.String())); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(w.outDir, libraryDir, library+".json"), data)
}

// upToDate reports whether the fingerprint on disk matches sum and every
// artifact file is still present.
func upToDate(sumPath, sum string, artifacts ...string) bool {
	prev, err := os.ReadFile(sumPath)
	if err != nil {
		return false
	}
	if strings.TrimSpace(string(prev)) != sum {
		return false
	}
	for _, p := range artifacts {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
