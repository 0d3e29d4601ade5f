package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertModuleWritten checks that one module's artifact set landed under
// the project's output directory.
func AssertModuleWritten(t *testing.T, result *HarnessResult, outDir, module string) {
	t.Helper()

	base := filepath.Join(result.Dir, outDir, "modules")
	require.FileExists(t, filepath.Join(base, module+".tex"), "rendered LaTeX for module %s", module)
	require.FileExists(t, filepath.Join(base, module+".json"), "node records for module %s", module)
	require.FileExists(t, filepath.Join(base, module+".sum"), "fingerprint for module %s", module)
}

// AssertLibraryIndexed checks that the per-library index pair was written.
func AssertLibraryIndexed(t *testing.T, result *HarnessResult, outDir, library string) {
	t.Helper()

	base := filepath.Join(result.Dir, outDir, "library")
	require.FileExists(t, filepath.Join(base, library+".tex"), "master include file for library %s", library)
	require.FileExists(t, filepath.Join(base, library+".json"), "index for library %s", library)
}
