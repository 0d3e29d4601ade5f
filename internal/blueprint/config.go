package blueprint

import (
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// Config is the format-agnostic override record for one annotated
// declaration. Every field defaults to "unset", meaning the builder derives
// the value from inspection. The annotation layer is responsible for
// producing Config values; the engine never sees user-facing syntax.
type Config struct {
	// Statement replaces the typeset statement text.
	Statement string

	// Proof replaces the proof text. Setting it, even to the empty string,
	// also marks the declaration as having a proof part unless HasProof
	// says otherwise.
	Proof *string

	// HasProof overrides the proof-part inference entirely.
	HasProof *bool

	// Uses and ProofUses add dependencies on other declarations to the
	// statement and proof parts. UsesLabels and ProofUsesLabels add raw
	// labels not backed by any declaration.
	Uses            []kb.DeclID
	UsesLabels      []string
	ProofUses       []kb.DeclID
	ProofUsesLabels []string

	// NotReady marks the node as not ready for formalization work
	// regardless of what inspection finds.
	NotReady bool

	// Discussion references an issue or discussion thread by number.
	Discussion *int

	// Title is the display title of the node.
	Title string

	// LatexEnv overrides the typeset environment of the statement part.
	LatexEnv string

	// LatexLabel overrides the node's label. Defaults to the declaration
	// name.
	LatexLabel string

	// Debug logs the finished node after building.
	Debug bool

	// DeclRange locates the annotation that produced this config, for
	// diagnostics only.
	DeclRange string
}

// Severity controls how a dependency on an unresolvable label is reported.
// Forward references to labels that appear later in the run are common, so
// hosts working against a partial knowledge base can relax this.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarn
	SeverityIgnore
)

// ParseSeverity maps a configuration string onto a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warn":
		return SeverityWarn, true
	case "ignore":
		return SeverityIgnore, true
	}
	return SeverityError, false
}

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityIgnore:
		return "ignore"
	default:
		return "error"
	}
}
