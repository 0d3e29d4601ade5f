// Package artifact serializes registry contents into the per-module and
// per-library output files the document pipeline consumes: typeset blocks,
// machine-readable records, and content fingerprints for rebuild avoidance.
package artifact

import (
	"github.com/blueprintgo/blueprintgo/internal/blueprint"
)

// PartRecord is the machine-readable form of one node part.
type PartRecord struct {
	LeanOk   bool     `json:"leanOk"`
	Text     string   `json:"text"`
	Uses     []string `json:"uses"`
	LatexEnv string   `json:"latexEnv"`
}

// NodeRecord is the machine-readable form of one node. Proof is null for
// nodes without a separate proof part.
type NodeRecord struct {
	Name       string      `json:"name"`
	LatexLabel string      `json:"latexLabel"`
	Title      string      `json:"title,omitempty"`
	NotReady   bool        `json:"notReady"`
	Discussion *int        `json:"discussion,omitempty"`
	Statement  PartRecord  `json:"statement"`
	Proof      *PartRecord `json:"proof"`
	Module     string      `json:"module,omitempty"`
}

// RecordFromNode converts an engine node into its wire form. Dependency
// lists are never null in the output, only empty.
func RecordFromNode(n *blueprint.Node, module string) NodeRecord {
	rec := NodeRecord{
		Name:       string(n.Name),
		LatexLabel: n.Label,
		Title:      n.Title,
		NotReady:   n.NotReady,
		Discussion: n.Discussion,
		Statement:  partRecord(&n.Statement),
		Module:     module,
	}
	if n.Proof != nil {
		proof := partRecord(n.Proof)
		rec.Proof = &proof
	}
	return rec
}

func partRecord(p *blueprint.NodePart) PartRecord {
	uses := make([]string, 0, len(p.Uses))
	uses = append(uses, p.Uses...)
	return PartRecord{
		LeanOk:   p.Checked,
		Text:     p.Text,
		Uses:     uses,
		LatexEnv: p.Env,
	}
}
