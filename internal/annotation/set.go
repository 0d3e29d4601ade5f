// Package annotation parses the user-maintained node files into the
// engine's config records. It owns all user-facing syntax; the engine only
// ever sees finished blueprint.Config values.
package annotation

import (
	"sort"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// Set is the parsed annotation layer for one library: a config per
// annotated declaration plus every raw label the configs declare.
type Set struct {
	configs  map[kb.DeclID]*blueprint.Config
	external map[string]struct{}
}

func newSet() *Set {
	return &Set{
		configs:  make(map[kb.DeclID]*blueprint.Config),
		external: make(map[string]struct{}),
	}
}

func (s *Set) add(name kb.DeclID, cfg *blueprint.Config) {
	s.configs[name] = cfg
	for _, label := range cfg.UsesLabels {
		s.external[label] = struct{}{}
	}
	for _, label := range cfg.ProofUsesLabels {
		s.external[label] = struct{}{}
	}
}

// ConfigFor returns the config of an annotated declaration.
func (s *Set) ConfigFor(id kb.DeclID) (*blueprint.Config, bool) {
	cfg, ok := s.configs[id]
	return cfg, ok
}

// Names returns every annotated declaration in sorted order.
func (s *Set) Names() []kb.DeclID {
	out := make([]kb.DeclID, 0, len(s.configs))
	for name := range s.configs {
		out = append(out, name)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// ExternalLabels returns the raw labels declared across all configs, sorted.
func (s *Set) ExternalLabels() []string {
	out := make([]string, 0, len(s.external))
	for label := range s.external {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of annotated declarations.
func (s *Set) Len() int {
	return len(s.configs)
}
