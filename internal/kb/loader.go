package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

// snapshotCacheSize bounds the number of parsed snapshots kept across runs.
// Watch mode re-runs extraction on every change; the cache keeps unchanged
// modules from being re-parsed.
const snapshotCacheSize = 256

// Loader reads snapshot files into Module values, caching parse results by
// path and content hash.
type Loader struct {
	cache *lru.Cache[string, *Module]
}

// NewLoader creates a snapshot loader.
func NewLoader() *Loader {
	cache, _ := lru.New[string, *Module](snapshotCacheSize)
	return &Loader{cache: cache}
}

// LoadModule reads and parses a single snapshot file.
func (l *Loader) LoadModule(ctx context.Context, path string) (*Module, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	sum := xxhash.Sum64(data)
	key := fmt.Sprintf("%s@%016x", path, sum)
	if m, ok := l.cache.Get(key); ok {
		logger.Debug("Snapshot cache hit.", "path", path, "module", m.Name)
		return m, nil
	}

	m, err := ParseModule(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	m.Checksum = sum

	l.cache.Add(key, m)
	logger.Debug("Snapshot parsed.", "path", path, "module", m.Name, "declarations", len(m.Declarations))
	return m, nil
}

// LoadEnvironment loads every given snapshot into a fresh environment.
func (l *Loader) LoadEnvironment(ctx context.Context, paths []string) (*Environment, error) {
	env := NewEnvironment()
	for _, path := range paths {
		m, err := l.LoadModule(ctx, path)
		if err != nil {
			return nil, err
		}
		if err := env.AddModule(m); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// ParseModule decodes a snapshot from raw JSON and checks its basic shape.
func ParseModule(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Name == "" {
		return nil, fmt.Errorf("snapshot has no module name")
	}

	seen := make(map[DeclID]struct{}, len(m.Declarations))
	for _, d := range m.Declarations {
		if d.Name == "" {
			return nil, fmt.Errorf("module %q contains a declaration without a name", m.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("module %q exports %q twice", m.Name, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return &m, nil
}
