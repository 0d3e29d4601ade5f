package blueprint

import (
	"sort"

	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// Registry accumulates the nodes and label claims of one extraction run.
// It is created empty at the start of a run, filled incrementally in
// declaration processing order, and discarded when the run ends. All
// operations are plain map accesses; the driver serializes every call.
type Registry struct {
	nodes    map[kb.DeclID]*Node
	order    []*Node
	labels   map[string][]kb.DeclID
	external map[string]struct{}
}

// NewRegistry returns an empty registry for a fresh run.
func NewRegistry() *Registry {
	return &Registry{
		nodes:    make(map[kb.DeclID]*Node),
		labels:   make(map[string][]kb.DeclID),
		external: make(map[string]struct{}),
	}
}

// Register stores a node under its declaration name. Registering a name
// twice in one run fails with DuplicateDeclarationError and leaves the
// first registration intact.
func (r *Registry) Register(node *Node) error {
	if _, exists := r.nodes[node.Name]; exists {
		return &DuplicateDeclarationError{Name: node.Name}
	}
	r.nodes[node.Name] = node
	r.order = append(r.order, node)
	return nil
}

// RecordLabel appends a declaration to the label's claim set. Multiple
// declarations may claim the same label.
func (r *Registry) RecordLabel(label string, id kb.DeclID) {
	r.labels[label] = append(r.labels[label], id)
}

// RecordExternalLabel marks a label as declared by an annotation without a
// backing declaration. The cycle checker treats such labels as leaves.
func (r *Registry) RecordExternalLabel(label string) {
	r.external[label] = struct{}{}
}

// NodeByName looks up the node registered for a declaration.
func (r *Registry) NodeByName(id kb.DeclID) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// ClaimantsOf returns the declarations claiming a label, in claim order.
func (r *Registry) ClaimantsOf(label string) []kb.DeclID {
	return r.labels[label]
}

// HasLabel reports whether any declaration claims the label.
func (r *Registry) HasLabel(label string) bool {
	return len(r.labels[label]) > 0
}

// ExternalLabel reports whether the label was declared as external.
func (r *Registry) ExternalLabel(label string) bool {
	_, ok := r.external[label]
	return ok
}

// NodeForLabel resolves a label to its single node. It returns nil without
// error when nothing claims the label, and AmbiguousLabelError when more
// than one declaration does.
func (r *Registry) NodeForLabel(label string) (*Node, error) {
	claimants := r.labels[label]
	switch len(claimants) {
	case 0:
		return nil, nil
	case 1:
		node, ok := r.nodes[claimants[0]]
		if !ok {
			return nil, nil
		}
		return node, nil
	default:
		return nil, &AmbiguousLabelError{Label: label, Names: append([]kb.DeclID(nil), claimants...)}
	}
}

// AllNodes returns every registered node in registration order.
func (r *Registry) AllNodes() []*Node {
	return append([]*Node(nil), r.order...)
}

// Labels returns every claimed label in sorted order.
func (r *Registry) Labels() []string {
	out := make([]string, 0, len(r.labels))
	for label := range r.labels {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every label resolves to at most one declaration.
// Serialization requires unique labels; this runs once the registry is
// fully populated, before artifacts are written.
func (r *Registry) Validate() error {
	for _, label := range r.Labels() {
		if _, err := r.NodeForLabel(label); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.order)
}
