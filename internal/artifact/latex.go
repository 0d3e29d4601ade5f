package artifact

import (
	"fmt"
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
)

// RenderNode typesets one node as a statement environment, followed by a
// proof environment when the node carries a separate proof part.
func RenderNode(n *blueprint.Node) string {
	var b strings.Builder

	b.WriteString(`\begin{` + n.Statement.Env + `}`)
	if n.Title != "" {
		b.WriteString(`[` + n.Title + `]`)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "\\label{%s}\n", n.Label)
	fmt.Fprintf(&b, "\\lean{%s}\n", n.Name)
	if n.Statement.Checked {
		b.WriteString("\\leanok\n")
	}
	if n.NotReady {
		b.WriteString("\\notready\n")
	}
	if n.Discussion != nil {
		fmt.Fprintf(&b, "\\discussion{%d}\n", *n.Discussion)
	}
	writeUses(&b, n.Statement.Uses)
	if n.Statement.Text != "" {
		b.WriteString(n.Statement.Text)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\\end{%s}\n", n.Statement.Env)

	if n.Proof != nil {
		fmt.Fprintf(&b, "\\begin{%s}\n", n.Proof.Env)
		if n.Proof.Checked {
			b.WriteString("\\leanok\n")
		}
		writeUses(&b, n.Proof.Uses)
		if n.Proof.Text != "" {
			b.WriteString(n.Proof.Text)
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "\\end{%s}\n", n.Proof.Env)
	}

	return b.String()
}

// RenderModule typesets every node of one module into a single document
// fragment, in registration order.
func RenderModule(module string, nodes []*blueprint.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%% %s: generated by blueprintgo, do not edit.\n\n", module)
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(RenderNode(n))
	}
	return b.String()
}

func writeUses(b *strings.Builder, uses []string) {
	if len(uses) == 0 {
		return
	}
	fmt.Fprintf(b, "\\uses{%s}\n", strings.Join(uses, ", "))
}
