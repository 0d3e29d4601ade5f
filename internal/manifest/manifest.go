// Package manifest loads and validates the blueprint.yaml project manifest.
package manifest

import (
	"fmt"
	"time"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
)

// ManifestFile is the file name a project manifest is discovered under.
const ManifestFile = "blueprint.yaml"

// Manifest is the project-level configuration: which libraries to extract,
// where artifacts go, and how strictly unresolved references are treated.
type Manifest struct {
	Project     string    `yaml:"project"`
	Output      string    `yaml:"output"`
	UnknownRefs string    `yaml:"unknown_refs"`
	Libraries   []Library `yaml:"libraries"`
	Watch       Watch     `yaml:"watch"`
	Workers     int       `yaml:"workers"`

	// BaseDir is the directory the manifest was loaded from; glob patterns
	// resolve relative to it. Not part of the file.
	BaseDir string `yaml:"-"`
}

// Library is one extraction unit: a named group of modules described by
// snapshot exports and annotated by node files.
type Library struct {
	Name        string   `yaml:"name"`
	Snapshots   []string `yaml:"snapshots"`
	Annotations []string `yaml:"annotations"`
}

// Watch configures the rebuild loop.
type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Manifest with the standard settings. Loading overlays
// the file's values on top of these.
func Default() *Manifest {
	return &Manifest{
		Output:      "blueprint/generated",
		UnknownRefs: "error",
		Workers:     4,
		Watch: Watch{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Merge overlays the set fields of other onto m.
func (m *Manifest) Merge(other *Manifest) {
	if other == nil {
		return
	}
	if other.Project != "" {
		m.Project = other.Project
	}
	if other.Output != "" {
		m.Output = other.Output
	}
	if other.UnknownRefs != "" {
		m.UnknownRefs = other.UnknownRefs
	}
	if len(other.Libraries) > 0 {
		m.Libraries = other.Libraries
	}
	if other.Watch.Debounce > 0 {
		m.Watch.Debounce = other.Watch.Debounce
	}
	if other.Workers > 0 {
		m.Workers = other.Workers
	}
	if other.BaseDir != "" {
		m.BaseDir = other.BaseDir
	}
}

// Validate checks that the manifest describes a runnable extraction.
func (m *Manifest) Validate() error {
	if m.Project == "" {
		return fmt.Errorf("manifest: project name is required")
	}
	if len(m.Libraries) == 0 {
		return fmt.Errorf("manifest: at least one library is required")
	}
	seen := make(map[string]struct{}, len(m.Libraries))
	for _, lib := range m.Libraries {
		if lib.Name == "" {
			return fmt.Errorf("manifest: every library needs a name")
		}
		if _, dup := seen[lib.Name]; dup {
			return fmt.Errorf("manifest: library %q is declared twice", lib.Name)
		}
		seen[lib.Name] = struct{}{}
		if len(lib.Snapshots) == 0 {
			return fmt.Errorf("manifest: library %q has no snapshot patterns", lib.Name)
		}
	}
	if _, ok := blueprint.ParseSeverity(m.UnknownRefs); !ok {
		return fmt.Errorf("manifest: unknown_refs must be 'error', 'warn' or 'ignore', got %q", m.UnknownRefs)
	}
	if m.Workers <= 0 {
		return fmt.Errorf("manifest: workers must be positive, got %d", m.Workers)
	}
	return nil
}

// Severity returns the parsed unknown_refs severity. Call Validate first.
func (m *Manifest) Severity() blueprint.Severity {
	s, _ := blueprint.ParseSeverity(m.UnknownRefs)
	return s
}
