package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/testutil"
)

func TestErrorHandling_AmbiguousLabelNamesBothClaimants(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Two annotated declarations claim the same display label. Serializing
	// a graph like that would make every reference to the label ambiguous,
	// so the run must fail before any artifact is written.
	manifest := `
project: dup
libraries:
  - name: Dup
    snapshots:
      - snapshots/*.json
    annotations:
      - blueprint/*.hcl
`
	snapshot := `{
  "module": "Dup.Defs",
  "declarations": [
    {"name": "Dup.first", "kind": "def"},
    {"name": "Dup.second", "kind": "def"}
  ]
}`
	annotations := `
node "Dup.first" {
  latex_label = "shared"
}

node "Dup.second" {
  latex_label = "shared"
}
`
	files := map[string]string{
		"blueprint.yaml":      manifest,
		"snapshots/defs.json": snapshot,
		"blueprint/nodes.hcl": annotations,
	}

	// --- Act ---
	result := testutil.RunExtraction(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	var ambiguous *blueprint.AmbiguousLabelError
	require.ErrorAs(t, result.Err, &ambiguous)
	assert.Equal(t, "shared", ambiguous.Label)
	assert.Contains(t, result.Err.Error(), "Dup.first")
	assert.Contains(t, result.Err.Error(), "Dup.second")
}
