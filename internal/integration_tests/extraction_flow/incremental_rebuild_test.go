package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/testutil"
)

func TestExtractionFlow_RerunSkipsUnchangedModules(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifest := `
project: demo
libraries:
  - name: Demo
    snapshots:
      - snapshots/*.json
    annotations:
      - blueprint/*.hcl
`
	defsSnapshot := `{
  "module": "Demo.Defs",
  "declarations": [
    {"name": "Demo.theta", "kind": "def", "line": 4}
  ]
}`
	mainSnapshot := `{
  "module": "Demo.Main",
  "declarations": [
    {"name": "Demo.theta_pos", "kind": "theorem", "bodyRefs": ["Demo.theta"], "line": 7}
  ]
}`
	annotations := `
node "Demo.theta" {
  latex_label = "def:theta"
  statement   = "The Chebyshev function."
}

node "Demo.theta_pos" {
  latex_label = "thm:theta-pos"
}
`
	files := map[string]string{
		"blueprint.yaml":      manifest,
		"snapshots/defs.json": defsSnapshot,
		"snapshots/main.json": mainSnapshot,
		"blueprint/nodes.hcl": annotations,
	}

	// --- Act ---
	result := testutil.RunExtraction(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	first := result.App.LastReport()
	require.NotNil(t, first)
	assert.ElementsMatch(t, []string{"Demo.Defs", "Demo.Main"}, first.Libraries[0].Written)
	assert.Empty(t, first.Libraries[0].Skipped)

	// A second run over the same tree finds every fingerprint unchanged.
	require.NoError(t, result.App.Run(context.Background()))
	second := result.App.LastReport()
	assert.Empty(t, second.Libraries[0].Written)
	assert.ElementsMatch(t, []string{"Demo.Defs", "Demo.Main"}, second.Libraries[0].Skipped)

	// Changing one module's statement invalidates only that module.
	changed := `
node "Demo.theta" {
  latex_label = "def:theta"
  statement   = "The first Chebyshev function."
}

node "Demo.theta_pos" {
  latex_label = "thm:theta-pos"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(result.Dir, "blueprint/nodes.hcl"), []byte(changed), 0o644))

	require.NoError(t, result.App.Run(context.Background()))
	third := result.App.LastReport()
	assert.Equal(t, []string{"Demo.Defs"}, third.Libraries[0].Written)
	assert.Equal(t, []string{"Demo.Main"}, third.Libraries[0].Skipped)

	tex, err := os.ReadFile(filepath.Join(result.Dir, "blueprint/generated/modules/Demo.Defs.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(tex), "The first Chebyshev function.")
}
