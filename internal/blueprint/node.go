package blueprint

import "github.com/blueprintgo/blueprintgo/internal/kb"

// NodePart is one typeset fragment of a node: the statement or its proof.
type NodePart struct {
	// Checked is true when no incompleteness sentinel was found in the
	// part's dependency set.
	Checked bool

	// Text is the opaque typeset text of the part, possibly empty. The
	// engine passes it through unchanged.
	Text string

	// Uses lists the dependency labels of the part in display order,
	// deduplicated, with the node's own label removed.
	Uses []string

	// Env is the typeset environment the part is rendered in.
	Env string
}

// Node is the extracted blueprint record for one declaration. A node with a
// nil Proof has no separate proof part; its statement part then subsumes the
// proof-level dependencies. Nodes are immutable once built.
type Node struct {
	Name       kb.DeclID
	Label      string
	Title      string
	NotReady   bool
	Discussion *int
	Statement  NodePart
	Proof      *NodePart
}

// Checked reports whether every part of the node is free of the sentinel.
func (n *Node) Checked() bool {
	if n.Proof != nil && !n.Proof.Checked {
		return false
	}
	return n.Statement.Checked
}

// Uses returns the union of the statement and proof dependency labels,
// statement labels first, without duplicates.
func (n *Node) Uses() []string {
	if n.Proof == nil {
		return append([]string(nil), n.Statement.Uses...)
	}
	seen := make(map[string]struct{}, len(n.Statement.Uses))
	out := make([]string, 0, len(n.Statement.Uses)+len(n.Proof.Uses))
	for _, lists := range [][]string{n.Statement.Uses, n.Proof.Uses} {
		for _, label := range lists {
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			out = append(out, label)
		}
	}
	return out
}
