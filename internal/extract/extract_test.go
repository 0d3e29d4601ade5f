package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/artifact"
	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/manifest"
)

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

func testManifest(root string) *manifest.Manifest {
	m := manifest.Default()
	m.Project = "test"
	m.BaseDir = root
	m.Libraries = []manifest.Library{{
		Name:        "Chebyshev",
		Snapshots:   []string{"snapshots/**/*.json"},
		Annotations: []string{"blueprint/**/*.hcl"},
	}}
	return m
}

const defsSnapshot = `{
  "module": "Chebyshev.Defs",
  "declarations": [
    {"name": "Chebyshev.theta", "kind": "def", "line": 10},
    {"name": "Chebyshev.theta_pos", "kind": "theorem",
     "signatureRefs": ["Chebyshev.theta"],
     "bodyRefs": ["Chebyshev.theta"],
     "line": 20}
  ]
}`

const mainSnapshot = `{
  "module": "Chebyshev.Main",
  "declarations": [
    {"name": "Chebyshev.theta_lt", "kind": "theorem",
     "signatureRefs": ["Chebyshev.theta"],
     "bodyRefs": ["Chebyshev.theta_pos", "sorryAx"],
     "proofComments": ["By induction."],
     "line": 5}
  ]
}`

const mainAnnotations = `
node "Chebyshev.theta" {
  latex_label = "def:theta"
  latex_env   = "definition"
  statement   = "The Chebyshev function."
}

node "Chebyshev.theta_pos" {
  latex_label = "thm:theta-pos"
  statement   = "Theta is positive."
  proof       = "Sum of logs."
}

node "Chebyshev.theta_lt" {
  latex_label = "thm:theta-lt"
  title       = "Main bound"
  statement   = "Theta is bounded."
}
`

func TestExtractor_Run(t *testing.T) {
	root := writeProject(t, map[string]string{
		"snapshots/Chebyshev.Defs.json": defsSnapshot,
		"snapshots/Chebyshev.Main.json": mainSnapshot,
		"blueprint/nodes.hcl":           mainAnnotations,
	})
	man := testManifest(root)

	report, err := New(man, "test").Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Libraries, 1)
	lib := report.Libraries[0]
	assert.Equal(t, "Chebyshev", lib.Library)
	assert.Equal(t, 3, lib.Nodes)
	assert.Equal(t, 2, lib.Modules)
	assert.ElementsMatch(t, []string{"Chebyshev.Defs", "Chebyshev.Main"}, lib.Written)

	outDir := filepath.Join(root, "blueprint", "generated")

	texData, err := os.ReadFile(filepath.Join(outDir, "modules", "Chebyshev.Defs.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(texData), `\begin{definition}`)
	assert.Contains(t, string(texData), `\label{def:theta}`)

	jsonData, err := os.ReadFile(filepath.Join(outDir, "modules", "Chebyshev.Main.json"))
	require.NoError(t, err)
	var records []artifact.NodeRecord
	require.NoError(t, json.Unmarshal(jsonData, &records))
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Chebyshev.theta_lt", rec.Name)
	assert.Equal(t, "thm:theta-lt", rec.LatexLabel)
	assert.Equal(t, "Main bound", rec.Title)
	assert.True(t, rec.Statement.LeanOk)
	assert.Equal(t, []string{"def:theta"}, rec.Statement.Uses)
	require.NotNil(t, rec.Proof)
	assert.False(t, rec.Proof.LeanOk)
	assert.Equal(t, []string{"thm:theta-pos"}, rec.Proof.Uses)
	assert.Equal(t, "By induction.", rec.Proof.Text)

	idxData, err := os.ReadFile(filepath.Join(outDir, "library", "Chebyshev.json"))
	require.NoError(t, err)
	var index artifact.LibraryIndex
	require.NoError(t, json.Unmarshal(idxData, &index))
	assert.Equal(t, lib.RunID, index.RunID)
	assert.Equal(t, []string{"Chebyshev.Defs", "Chebyshev.Main"}, index.Modules)
	assert.Len(t, index.Nodes, 3)
}

func TestExtractor_SecondRunSkipsUnchangedModules(t *testing.T) {
	root := writeProject(t, map[string]string{
		"snapshots/Chebyshev.Defs.json": defsSnapshot,
		"snapshots/Chebyshev.Main.json": mainSnapshot,
		"blueprint/nodes.hcl":           mainAnnotations,
	})
	man := testManifest(root)
	ex := New(man, "test")

	_, err := ex.Run(context.Background())
	require.NoError(t, err)

	report, err := ex.Run(context.Background())
	require.NoError(t, err)

	lib := report.Libraries[0]
	assert.Empty(t, lib.Written)
	assert.ElementsMatch(t, []string{"Chebyshev.Defs", "Chebyshev.Main"}, lib.Skipped)
}

func TestExtractor_UnconsumedAnnotation(t *testing.T) {
	files := map[string]string{
		"snapshots/Chebyshev.Defs.json": defsSnapshot,
		"blueprint/nodes.hcl": `
node "Chebyshev.theta" {
  latex_label = "def:theta"
}

node "Chebyshev.ghost" {}
`,
	}

	t.Run("fails by default", func(t *testing.T) {
		root := writeProject(t, files)
		man := testManifest(root)

		_, err := New(man, "test").Run(context.Background())
		require.Error(t, err)

		var unknownErr *blueprint.UnknownConstantError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "Chebyshev.ghost", unknownErr.Label)
	})

	t.Run("warn severity keeps the run alive", func(t *testing.T) {
		root := writeProject(t, files)
		man := testManifest(root)
		man.UnknownRefs = "warn"

		var buf strings.Builder
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		ctx := ctxlog.WithLogger(context.Background(), logger)

		report, err := New(man, "test").Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Libraries[0].Nodes)
		assert.Contains(t, buf.String(), "matches no declaration")
	})
}

func TestExtractor_CycleFails(t *testing.T) {
	root := writeProject(t, map[string]string{
		"snapshots/Chebyshev.Loop.json": `{
  "module": "Chebyshev.Loop",
  "declarations": [
    {"name": "Loop.a", "kind": "theorem", "line": 1},
    {"name": "Loop.b", "kind": "theorem", "line": 2}
  ]
}`,
		"blueprint/nodes.hcl": `
node "Loop.a" {
  latex_label = "a"
  uses_labels = ["b"]
}

node "Loop.b" {
  latex_label = "b"
  uses_labels = ["a"]
}
`,
	})
	man := testManifest(root)

	_, err := New(man, "test").Run(context.Background())
	require.Error(t, err)

	var cycleErr *blueprint.CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"b", "a", "b"}, cycleErr.Path)
}

func TestExtractor_AmbiguousLabelFails(t *testing.T) {
	root := writeProject(t, map[string]string{
		"snapshots/Chebyshev.Dup.json": `{
  "module": "Chebyshev.Dup",
  "declarations": [
    {"name": "Dup.a", "kind": "def", "line": 1},
    {"name": "Dup.b", "kind": "def", "line": 2}
  ]
}`,
		"blueprint/nodes.hcl": `
node "Dup.a" {
  latex_label = "shared"
}

node "Dup.b" {
  latex_label = "shared"
}
`,
	})
	man := testManifest(root)

	_, err := New(man, "test").Run(context.Background())
	require.Error(t, err)

	var ambiguousErr *blueprint.AmbiguousLabelError
	require.ErrorAs(t, err, &ambiguousErr)
	assert.Equal(t, "shared", ambiguousErr.Label)
}

func TestExtractor_NoSnapshotsMatched(t *testing.T) {
	root := writeProject(t, map[string]string{
		"blueprint/nodes.hcl": `node "X.a" {}`,
	})
	man := testManifest(root)

	_, err := New(man, "test").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched no files")
}
