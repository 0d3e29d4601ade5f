package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/testutil"
)

func projectWithGhostReference(unknownRefs string) map[string]string {
	manifest := `
project: ghosts
unknown_refs: ` + unknownRefs + `
libraries:
  - name: Demo
    snapshots:
      - snapshots/*.json
    annotations:
      - blueprint/*.hcl
`
	snapshot := `{
  "module": "Demo.Defs",
  "declarations": [
    {"name": "Demo.real", "kind": "def"}
  ]
}`
	annotations := `
node "Demo.real" {
  latex_label = "def:real"
  uses        = ["Demo.ghost"]
}
`
	return map[string]string{
		"blueprint.yaml":      manifest,
		"snapshots/defs.json": snapshot,
		"blueprint/nodes.hcl": annotations,
	}
}

func TestErrorHandling_UnknownReferenceSeverity(t *testing.T) {
	t.Parallel()

	t.Run("error aborts the run", func(t *testing.T) {
		t.Parallel()
		result := testutil.RunExtraction(t, projectWithGhostReference("error"))

		require.Error(t, result.Err)
		var unknown *blueprint.UnknownConstantError
		require.ErrorAs(t, result.Err, &unknown)
		assert.Equal(t, "Demo.ghost", unknown.Label)
	})

	t.Run("warn logs and continues", func(t *testing.T) {
		t.Parallel()
		result := testutil.RunExtraction(t, projectWithGhostReference("warn"))

		require.NoError(t, result.Err)
		assert.Contains(t, result.LogOutput, "Demo.ghost")
		assert.Contains(t, result.LogOutput, "unknown constant")
		testutil.AssertModuleWritten(t, result, "blueprint/generated", "Demo.Defs")
	})

	t.Run("ignore is silent", func(t *testing.T) {
		t.Parallel()
		result := testutil.RunExtraction(t, projectWithGhostReference("ignore"))

		require.NoError(t, result.Err)
		assert.NotContains(t, result.LogOutput, "Demo.ghost")
		testutil.AssertModuleWritten(t, result, "blueprint/generated", "Demo.Defs")
	})
}

func TestErrorHandling_AnnotationWithoutDeclaration(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The annotation names a declaration no snapshot exports. With the
	// default severity the run fails; with warn it survives and reports.
	manifest := `
project: ghosts
libraries:
  - name: Demo
    snapshots:
      - snapshots/*.json
    annotations:
      - blueprint/*.hcl
`
	snapshot := `{
  "module": "Demo.Defs",
  "declarations": [
    {"name": "Demo.real", "kind": "def"}
  ]
}`
	annotations := `
node "Demo.real" {
  latex_label = "def:real"
}

node "Demo.missing" {
  latex_label = "def:missing"
}
`
	files := map[string]string{
		"blueprint.yaml":      manifest,
		"snapshots/defs.json": snapshot,
		"blueprint/nodes.hcl": annotations,
	}

	t.Run("default severity fails", func(t *testing.T) {
		t.Parallel()
		result := testutil.RunExtraction(t, files)

		require.Error(t, result.Err)
		var unknown *blueprint.UnknownConstantError
		require.ErrorAs(t, result.Err, &unknown)
		assert.Equal(t, "Demo.missing", unknown.Label)
	})

	t.Run("warn severity reports and continues", func(t *testing.T) {
		t.Parallel()
		warnManifest := `
project: ghosts
unknown_refs: warn
libraries:
  - name: Demo
    snapshots:
      - snapshots/*.json
    annotations:
      - blueprint/*.hcl
`
		warnFiles := map[string]string{
			"blueprint.yaml":      warnManifest,
			"snapshots/defs.json": snapshot,
			"blueprint/nodes.hcl": annotations,
		}
		result := testutil.RunExtraction(t, warnFiles)

		require.NoError(t, result.Err)
		assert.Contains(t, result.LogOutput, "Demo.missing")
		assert.Contains(t, result.LogOutput, "matches no declaration")
	})
}
