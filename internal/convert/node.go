package convert

import "sort"

// NodePart is one typeset part of a converted node, either the statement
// or the proof.
type NodePart struct {
	LeanOk   bool     `json:"leanOk"`
	Text     string   `json:"text"`
	Uses     []string `json:"uses"`
	LatexEnv string   `json:"latexEnv"`
}

// Node is one blueprint node recovered from the legacy LaTeX document. Name
// is the declaration the document attached via \lean; File is the LaTeX
// source file the statement environment was found in.
type Node struct {
	Name       string    `json:"name"`
	LatexLabel string    `json:"latexLabel"`
	Statement  NodePart  `json:"statement"`
	Proof      *NodePart `json:"proof"`
	NotReady   bool      `json:"notReady"`
	Discussion *int      `json:"discussion,omitempty"`
	Title      string    `json:"title,omitempty"`
	File       string    `json:"file,omitempty"`
}

// addUses merges labels into the part's dependency list, dropping
// duplicates.
func (p *NodePart) addUses(labels []string) {
	for _, label := range labels {
		if !p.hasUse(label) {
			p.Uses = append(p.Uses, label)
		}
	}
}

func (p *NodePart) hasUse(label string) bool {
	for _, use := range p.Uses {
		if use == label {
			return true
		}
	}
	return false
}

func (p *NodePart) removeUse(label string) {
	kept := p.Uses[:0]
	for _, use := range p.Uses {
		if use != label {
			kept = append(kept, use)
		}
	}
	p.Uses = kept
}

// finalize drops self-references and sorts the dependency lists so output
// does not depend on the order commands appeared in the document.
func (n *Node) finalize() {
	n.Statement.removeUse(n.LatexLabel)
	sort.Strings(n.Statement.Uses)
	if n.Proof != nil {
		n.Proof.removeUse(n.LatexLabel)
		sort.Strings(n.Proof.Uses)
	}
}
