// Package kb models the knowledge base: the declarations exported from the
// proof assistant, grouped by module, with the cross-reference information
// the extraction engine consumes.
package kb

// DeclID is the fully-qualified name of a declaration, unique across the
// whole knowledge base.
type DeclID string

// SorryAx is the reserved identifier of the incompleteness sentinel. A
// declaration whose elaboration filled a gap references it like any other
// constant; it is never a real declaration in any snapshot.
const SorryAx DeclID = "sorryAx"

// Kind classifies a declaration. The exporter maps host-specific kinds onto
// this fixed set.
type Kind string

const (
	KindDef       Kind = "def"
	KindTheorem   Kind = "theorem"
	KindLemma     Kind = "lemma"
	KindAxiom     Kind = "axiom"
	KindAbbrev    Kind = "abbrev"
	KindInductive Kind = "inductive"
	KindStructure Kind = "structure"
	KindInstance  Kind = "instance"
	KindOpaque    Kind = "opaque"
)

// TheoremLike reports whether declarations of this kind carry a proof, which
// selects the default typesetting taxonomy for their nodes.
func (k Kind) TheoremLike() bool {
	return k == KindTheorem || k == KindLemma
}

// Declaration is one exported declaration. SignatureRefs and BodyRefs list
// the constants referenced by the statement and by the proof or body,
// exactly as the elaborator recorded them, auxiliaries and sentinel
// included.
type Declaration struct {
	Name DeclID `json:"name"`
	Kind Kind   `json:"kind"`

	// Parent is set on compiler-generated auxiliary declarations and names
	// the user-written declaration they were split out of.
	Parent DeclID `json:"parent,omitempty"`

	SignatureRefs []DeclID `json:"signatureRefs,omitempty"`
	BodyRefs      []DeclID `json:"bodyRefs,omitempty"`

	// ProofComments carries the documentation comments attached to the
	// proof, in source order.
	ProofComments []string `json:"proofComments,omitempty"`

	Line int `json:"line,omitempty"`
}

// Auxiliary reports whether the declaration is compiler-generated.
func (d *Declaration) Auxiliary() bool {
	return d.Parent != ""
}

// Module is one snapshot file: a module's declarations in export order,
// which is the order the engine processes them in.
type Module struct {
	Name         string         `json:"module"`
	Declarations []*Declaration `json:"declarations"`

	// Checksum is the content hash of the snapshot file this module was
	// parsed from. Set by the loader, never serialized.
	Checksum uint64 `json:"-"`
}
