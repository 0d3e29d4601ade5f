package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/fsutil"
)

// Find walks upward from startDir looking for a blueprint.yaml. It returns
// the empty string when no manifest exists on the path to the filesystem
// root.
func Find(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ManifestFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads a manifest file and overlays it on the defaults. The result is
// not validated; callers apply their own overrides first and then call
// Validate.
func Load(ctx context.Context, path string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var fromFile Manifest
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fromFile.BaseDir = filepath.Dir(abs)

	m := Default()
	m.Merge(&fromFile)
	logger.Debug("Manifest loaded.", "path", path, "project", m.Project, "libraries", len(m.Libraries))
	return m, nil
}

// ResolveSnapshots expands a library's snapshot patterns against the
// manifest directory. A library whose patterns match nothing is an error;
// extracting from zero modules always means a misconfigured manifest.
func (m *Manifest) ResolveSnapshots(lib *Library) ([]string, error) {
	files, err := fsutil.ExpandGlobs(m.BaseDir, lib.Snapshots, ".json")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("library %q: snapshot patterns matched no files", lib.Name)
	}
	return files, nil
}

// ResolveAnnotations expands a library's annotation patterns. An empty
// match is fine, it just means nothing in the library is annotated yet.
func (m *Manifest) ResolveAnnotations(lib *Library) ([]string, error) {
	return fsutil.ExpandGlobs(m.BaseDir, lib.Annotations, ".hcl")
}
