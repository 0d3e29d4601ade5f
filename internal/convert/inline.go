package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

var inputRe = regexp.MustCompile(`\\input\s*\{([^}]*)\}`)

// Source is a LaTeX document with every \input command resolved and
// inlined. The segment table remembers which file each byte of the inlined
// text came from.
type Source struct {
	Text     string
	segments []segment
}

type segment struct {
	start int
	file  string
}

// FileFor returns the source file that contributed the byte at the given
// offset of the inlined text.
func (s *Source) FileFor(offset int) string {
	i := sort.Search(len(s.segments), func(i int) bool {
		return s.segments[i].start > offset
	})
	if i == 0 {
		return ""
	}
	return s.segments[i-1].file
}

// Inline reads the root LaTeX file and recursively resolves \input
// commands. Input paths are relative to the root file's directory, matching
// how LaTeX resolves them when the root is compiled. A file is inlined at
// most once; repeated or circular inputs are skipped with a warning, and
// missing input files are replaced with nothing.
func Inline(ctx context.Context, root string) (*Source, error) {
	logger := ctxlog.FromContext(ctx)

	rootDir := filepath.Dir(root)
	src := &Source{}
	seen := make(map[string]bool)

	var b strings.Builder
	var read func(path string) error
	read = func(path string) error {
		clean := filepath.Clean(path)
		if seen[clean] {
			logger.Warn("Skipping repeated \\input; file already inlined.", "file", path)
			return nil
		}
		seen[clean] = true

		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rest := string(text)
		for {
			loc := inputRe.FindStringSubmatchIndex(rest)
			if loc == nil {
				break
			}
			src.emit(&b, rest[:loc[0]], path)

			inputPath := strings.TrimSpace(rest[loc[2]:loc[3]])
			rest = rest[loc[1]:]
			if inputPath == "" {
				continue
			}
			if !strings.HasSuffix(inputPath, ".tex") {
				inputPath += ".tex"
			}
			child := filepath.Join(rootDir, inputPath)
			if err := read(child); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					logger.Warn("\\input file not found.", "file", child)
					continue
				}
				return err
			}
		}
		src.emit(&b, rest, path)
		return nil
	}

	if err := read(root); err != nil {
		return nil, fmt.Errorf("failed to read LaTeX source %s: %w", root, err)
	}
	src.Text = b.String()
	return src, nil
}

func (s *Source) emit(b *strings.Builder, text, file string) {
	if text == "" {
		return
	}
	s.segments = append(s.segments, segment{start: b.Len(), file: file})
	b.WriteString(text)
}
