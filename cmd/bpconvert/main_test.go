package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintgo/blueprintgo/internal/cli"
)

const testBlueprint = `\input{defs}
\begin{theorem}
  \label{thm:main}
  \lean{Demo.main}
  \uses{def:base}
  The main result.
\end{theorem}
\begin{proof}
  Follows from the base definition.
\end{proof}
`

const testDefs = `\begin{definition}
  \label{def:base}
  \lean{Demo.base}
  The base definition.
\end{definition}
`

func writeBlueprint(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "web.tex"), []byte(testBlueprint), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defs.tex"), []byte(testDefs), 0o644))
	return dir
}

func TestRun_Help(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	err := run(context.Background(), &out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "bpconvert [options] ROOT_TEX")
}

func TestRun_MissingRoot(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	err := run(context.Background(), &out, nil)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "no root LaTeX file")
}

func TestRun_InvalidLogFormat(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	err := run(context.Background(), &out, []string{"-log-format", "xml", "web.tex"})
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid log format")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()
	dir := writeBlueprint(t)
	outDir := filepath.Join(dir, "nodes")
	var out bytes.Buffer

	err := run(context.Background(), &out, []string{"-out", outDir, filepath.Join(dir, "web.tex")})
	require.NoError(t, err)

	web, err := os.ReadFile(filepath.Join(outDir, "web.hcl"))
	require.NoError(t, err)
	assert.Contains(t, string(web), `node "Demo.main" {`)
	assert.Contains(t, string(web), `uses_labels = ["def:base"]`)

	defs, err := os.ReadFile(filepath.Join(outDir, "defs.hcl"))
	require.NoError(t, err)
	assert.Contains(t, string(defs), `node "Demo.base" {`)
}

func TestRun_DirectoryArgument(t *testing.T) {
	t.Parallel()
	dir := writeBlueprint(t)
	outDir := filepath.Join(dir, "nodes")
	var out bytes.Buffer

	err := run(context.Background(), &out, []string{"-out", outDir, dir})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "web.hcl"))
}

func TestRun_JSONDump(t *testing.T) {
	t.Parallel()
	dir := writeBlueprint(t)
	outDir := filepath.Join(dir, "nodes")
	var out bytes.Buffer

	err := run(context.Background(), &out, []string{"-json", "-out", outDir, filepath.Join(dir, "web.tex")})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"name": "Demo.main"`)
	assert.Contains(t, out.String(), `"latexLabel": "thm:main"`)
	assert.NoDirExists(t, outDir, "the JSON dump writes no files")
}
