package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/extract"
)

const testManifest = `project: chebyshev
libraries:
  - name: Chebyshev
    snapshots:
      - snapshots/**/*.json
    annotations:
      - blueprint/**/*.hcl
`

const testSnapshot = `{
  "module": "Chebyshev.Defs",
  "declarations": [
    {"name": "Chebyshev.theta", "kind": "def", "line": 10}
  ]
}`

const testAnnotations = `
node "Chebyshev.theta" {
  latex_label = "def:theta"
  statement   = "The Chebyshev function."
}
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func projectFiles() map[string]string {
	return map[string]string{
		"blueprint.yaml":                testManifest,
		"snapshots/Chebyshev.Defs.json": testSnapshot,
		"blueprint/nodes.hcl":           testAnnotations,
	}
}

func TestNewApp_AppliesOverrides(t *testing.T) {
	root := writeProject(t, projectFiles())

	testApp, _ := SetupAppTest(t, &Config{
		ManifestPath: filepath.Join(root, "blueprint.yaml"),
		Output:       "out/custom",
		UnknownRefs:  "warn",
		Workers:      2,
	})

	man := testApp.Manifest()
	assert.Equal(t, "out/custom", man.Output)
	assert.Equal(t, "warn", man.UnknownRefs)
	assert.Equal(t, 2, man.Workers)
	assert.Equal(t, "chebyshev", man.Project)
}

func TestNewApp_MissingManifest(t *testing.T) {
	_, err := NewApp(&SafeBuffer{}, &Config{
		ManifestPath: filepath.Join(t.TempDir(), "blueprint.yaml"),
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load manifest")
}

func TestNewApp_InvalidManifest(t *testing.T) {
	root := writeProject(t, map[string]string{
		"blueprint.yaml": "project: nolibs\n",
	})

	_, err := NewApp(&SafeBuffer{}, &Config{
		ManifestPath: filepath.Join(root, "blueprint.yaml"),
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid manifest")
}

func TestApp_Run(t *testing.T) {
	root := writeProject(t, projectFiles())

	testApp, logBuffer := SetupAppTest(t, &Config{
		ManifestPath: filepath.Join(root, "blueprint.yaml"),
	})

	require.NoError(t, testApp.Run(context.Background()))

	assert.FileExists(t, filepath.Join(root, "blueprint", "generated", "modules", "Chebyshev.Defs.tex"))
	assert.FileExists(t, filepath.Join(root, "blueprint", "generated", "library", "Chebyshev.json"))

	report := testApp.LastReport()
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Nodes())
	assert.Contains(t, logBuffer.String(), "Extraction finished.")
}

func TestApp_StatusHandlers(t *testing.T) {
	root := writeProject(t, projectFiles())
	testApp, _ := SetupAppTest(t, &Config{
		ManifestPath: filepath.Join(root, "blueprint.yaml"),
	})

	t.Run("health always answers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		testApp.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "OK")
	})

	t.Run("status before first run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		testApp.statusHandler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("status after a run", func(t *testing.T) {
		testApp.storeReport(&extract.Report{
			Libraries: []extract.LibraryReport{{Library: "Chebyshev", Nodes: 3}},
		})

		rec := httptest.NewRecorder()
		testApp.statusHandler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Chebyshev")
	})
}

func TestApp_WatchPaths(t *testing.T) {
	root := writeProject(t, projectFiles())
	testApp, _ := SetupAppTest(t, &Config{
		ManifestPath: filepath.Join(root, "blueprint.yaml"),
	})

	roots, ignores := testApp.watchPaths()
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "snapshots"),
		filepath.Join(root, "blueprint"),
	}, roots)
	assert.Equal(t, []string{filepath.Join(root, "blueprint", "generated")}, ignores)
}
