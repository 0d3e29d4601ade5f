package blueprint

import (
	"context"
	"sort"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

// Checker validates that the label graph held by a registry stays acyclic.
// It runs once after every registration, rooted at the new node's label, so
// a malformed dependency is caught next to the declaration that introduced
// it.
type Checker struct {
	registry *Registry
	severity Severity
}

// NewChecker creates a checker over the given registry. The severity
// controls how labels with neither a node claim nor an external declaration
// are reported.
func NewChecker(registry *Registry, severity Severity) *Checker {
	return &Checker{registry: registry, severity: severity}
}

// frame is one label on the traversal stack, with its outgoing edges and a
// cursor into them.
type frame struct {
	label string
	edges []string
	next  int
}

// CheckAcyclic walks the label graph from newLabel. It fails with
// CyclicDependencyError carrying the full path on the first cycle, and per
// the configured severity on labels nothing claims. Labels already proven
// acyclic within this call are never re-expanded. The walk keeps an
// explicit stack; graph depth is not bounded by the call stack.
func (c *Checker) CheckAcyclic(ctx context.Context, newLabel string) error {
	logger := ctxlog.FromContext(ctx)

	visited := make(map[string]struct{})
	onPath := map[string]struct{}{newLabel: {}}
	path := []string{newLabel}
	stack := []frame{{label: newLabel, edges: c.edgesOf(newLabel)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next >= len(top.edges) {
			visited[top.label] = struct{}{}
			delete(onPath, top.label)
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}

		edge := top.edges[top.next]
		top.next++

		if _, repeat := onPath[edge]; repeat {
			cycle := append(append([]string(nil), path...), edge)
			return &CyclicDependencyError{Path: cycle}
		}
		if _, done := visited[edge]; done {
			continue
		}

		if !c.registry.HasLabel(edge) {
			if c.registry.ExternalLabel(edge) {
				visited[edge] = struct{}{}
				continue
			}
			switch c.severity {
			case SeverityError:
				return &UnknownConstantError{Label: edge}
			case SeverityWarn:
				logger.Warn("Dependency label resolves to nothing.", "label", edge, "reached_from", top.label)
			}
			visited[edge] = struct{}{}
			continue
		}

		onPath[edge] = struct{}{}
		path = append(path, edge)
		stack = append(stack, frame{label: edge, edges: c.edgesOf(edge)})
	}

	return nil
}

// edgesOf returns the outgoing labels of a label: the union of the
// statement and proof dependencies of every node claiming it, sorted so
// traversal order is deterministic.
func (c *Checker) edgesOf(label string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range c.registry.ClaimantsOf(label) {
		node, ok := c.registry.NodeByName(id)
		if !ok {
			continue
		}
		for _, use := range node.Uses() {
			if _, dup := seen[use]; dup {
				continue
			}
			seen[use] = struct{}{}
			out = append(out, use)
		}
	}
	sort.Strings(out)
	return out
}
