// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ExpandGlobs resolves a list of patterns relative to baseDir into a sorted,
// deduplicated file list. A pattern naming an existing directory matches
// every file with the extension under it; anything else is treated as a
// glob with ** support.
func ExpandGlobs(baseDir string, patterns []string, extension string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	for _, pattern := range patterns {
		resolved := pattern
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(baseDir, resolved)
		}

		if info, err := os.Stat(resolved); err == nil && info.IsDir() {
			files, err := FindFilesByExtension(resolved, extension)
			if err != nil {
				return nil, fmt.Errorf("failed to scan directory %s: %w", resolved, err)
			}
			for _, f := range files {
				add(f)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(resolved)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			add(m)
		}
	}

	sort.Strings(out)
	return out, nil
}

// PatternRoot returns the deepest path prefix of pattern that contains no
// glob metacharacters, resolved against baseDir. For a pattern with no
// metacharacters at all this is the pattern itself.
func PatternRoot(baseDir, pattern string) string {
	resolved := pattern
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(baseDir, resolved)
	}

	sep := string(filepath.Separator)
	segments := strings.Split(resolved, sep)
	cut := len(segments)
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			cut = i
			break
		}
	}

	root := strings.Join(segments[:cut], sep)
	if root == "" {
		return baseDir
	}
	return root
}
