// Package testutil provides the shared harness for integration tests: it
// materializes a project tree from literal file contents, runs an
// extraction over it, and captures the log output.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an extraction test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App

	// Dir is the root of the materialized project tree, for asserting on
	// artifacts the run left behind.
	Dir string
}

// RunExtraction materializes the files into a temporary project and runs a
// single extraction over it with debug logging.
func RunExtraction(t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()
	return RunExtractionWithConfig(t, files, nil)
}

// RunExtractionWithConfig is RunExtraction with a hook to adjust the app
// configuration before startup. The manifest path and log settings are
// already filled in when the hook runs.
func RunExtractionWithConfig(t *testing.T, files map[string]string, configure func(*app.Config)) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	WriteProject(t, dir, files)

	cfg := &app.Config{
		ManifestPath: filepath.Join(dir, "blueprint.yaml"),
		LogLevel:     "debug",
		LogFormat:    "text",
	}
	if configure != nil {
		configure(cfg)
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{Dir: dir}

	testApp, err := app.NewApp(logBuffer, cfg)
	if err != nil {
		result.Err = err
		result.LogOutput = logBuffer.String()
		return result
	}

	result.App = testApp
	result.Err = testApp.Run(context.Background())
	result.LogOutput = logBuffer.String()

	if os.Getenv("BPGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
	}
	return result
}

// WriteProject writes literal file contents under root. Relative paths in
// the map create their subdirectories.
func WriteProject(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
