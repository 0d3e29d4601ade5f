package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.json", "sub/b.json", "sub/deep/c.json", "sub/skip.txt")

	files, err := FindFilesByExtension(dir, ".json")
	require.NoError(t, err)
	assert.Len(t, files, 3)
	for _, f := range files {
		assert.Equal(t, ".json", filepath.Ext(f))
	}
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = FindFilesByExtension(t.TempDir(), "")
	})
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "export/a.json", "export/nested/b.json", "export/nested/c.txt", "other/d.json")

	t.Run("doublestar pattern", func(t *testing.T) {
		files, err := ExpandGlobs(dir, []string{"export/**/*.json"}, ".json")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "export", "a.json"),
			filepath.Join(dir, "export", "nested", "b.json"),
		}, files)
	})

	t.Run("directory pattern matches by extension", func(t *testing.T) {
		files, err := ExpandGlobs(dir, []string{"export"}, ".json")
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("overlapping patterns are deduplicated and sorted", func(t *testing.T) {
		files, err := ExpandGlobs(dir, []string{"export/**/*.json", "export/a.json", "other/*.json"}, ".json")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "export", "a.json"),
			filepath.Join(dir, "export", "nested", "b.json"),
			filepath.Join(dir, "other", "d.json"),
		}, files)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		files, err := ExpandGlobs(dir, []string{"missing/**/*.json"}, ".json")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := ExpandGlobs(dir, []string{"exports/[bad"}, ".json")
		assert.ErrorContains(t, err, "invalid glob pattern")
	})
}

func TestPatternRoot(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "proj")

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"doublestar", "snapshots/**/*.json", filepath.Join(base, "snapshots")},
		{"single star", "blueprint/*.hcl", filepath.Join(base, "blueprint")},
		{"no metacharacters", "blueprint/nodes.hcl", filepath.Join(base, "blueprint", "nodes.hcl")},
		{"leading metacharacter", "*/export.json", base},
		{"absolute pattern", filepath.Join(base, "x", "**"), filepath.Join(base, "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternRoot(base, tt.pattern))
		})
	}
}
