// Package inspect computes the dependencies a declaration exposes to the
// blueprint: which declarations its statement reaches and which only its
// proof reaches.
package inspect

import (
	"fmt"
	"sort"

	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// Inspector is a pure reader over the knowledge base. Calling it has no
// side effects and repeated calls for the same identifier return identical
// results.
type Inspector struct {
	env *kb.Environment
}

// New creates an inspector over the environment.
func New(env *kb.Environment) *Inspector {
	return &Inspector{env: env}
}

// CollectUsed returns the statement-level and proof-level dependency sets
// of a declaration, both sorted. A declaration referenced by both parts is
// reported only under the statement; statement dependencies are the more
// visible category and take precedence. The sentinel is exempt from that
// rule, it signals non-readiness per part rather than a dependency.
func (i *Inspector) CollectUsed(id kb.DeclID) ([]kb.DeclID, []kb.DeclID, error) {
	root, ok := i.env.Lookup(id)
	if !ok {
		return nil, nil, fmt.Errorf("declaration %q not found in the knowledge base", id)
	}

	stmtSet := i.surface(id, root.SignatureRefs)
	proofSet := i.surface(id, root.BodyRefs)

	statement := sortedIDs(stmtSet)

	proof := make([]kb.DeclID, 0, len(proofSet))
	for ref := range proofSet {
		if ref != kb.SorryAx {
			if _, dup := stmtSet[ref]; dup {
				continue
			}
		}
		proof = append(proof, ref)
	}
	sort.Slice(proof, func(a, b int) bool { return proof[a] < proof[b] })

	return statement, proof, nil
}

// surface resolves one raw reference list into the set of identifiers the
// blueprint should see. Compiler-generated auxiliaries of the inspected
// declaration are expanded in place; auxiliaries of other declarations are
// attributed back to their owner. Identifiers absent from the environment,
// the sentinel included, are surfaced as-is. Self references are dropped.
func (i *Inspector) surface(rootID kb.DeclID, refs []kb.DeclID) map[kb.DeclID]struct{} {
	out := make(map[kb.DeclID]struct{})
	expanded := make(map[kb.DeclID]struct{})
	queue := append([]kb.DeclID(nil), refs...)

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		if ref == rootID {
			continue
		}
		decl, ok := i.env.Lookup(ref)
		if !ok {
			out[ref] = struct{}{}
			continue
		}
		if !decl.Auxiliary() {
			out[ref] = struct{}{}
			continue
		}

		owner := i.owner(decl)
		if owner == rootID {
			if _, done := expanded[ref]; done {
				continue
			}
			expanded[ref] = struct{}{}
			queue = append(queue, decl.SignatureRefs...)
			queue = append(queue, decl.BodyRefs...)
			continue
		}
		if owner != "" {
			out[owner] = struct{}{}
		}
	}
	return out
}

// owner follows an auxiliary's parent chain up to the user-written
// declaration it was generated for.
func (i *Inspector) owner(decl *kb.Declaration) kb.DeclID {
	seen := make(map[kb.DeclID]struct{})
	cur := decl
	for cur.Auxiliary() {
		if _, loop := seen[cur.Name]; loop {
			return cur.Name
		}
		seen[cur.Name] = struct{}{}
		parent, ok := i.env.Lookup(cur.Parent)
		if !ok {
			return cur.Parent
		}
		cur = parent
	}
	return cur.Name
}

func sortedIDs(set map[kb.DeclID]struct{}) []kb.DeclID {
	out := make([]kb.DeclID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
