package blueprint

import (
	"fmt"
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// DuplicateDeclarationError reports a second registration for a declaration
// that already holds a node. The first registration stays intact.
type DuplicateDeclarationError struct {
	Name kb.DeclID
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("duplicate blueprint node for declaration %q", e.Name)
}

// CyclicDependencyError reports a dependency cycle among node labels. Path
// starts at the label whose registration closed the cycle and ends with the
// repeated label.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency between blueprint nodes: %s", strings.Join(e.Path, " -> "))
}

// UnknownConstantError reports a dependency on a label that no registered
// node claims and no annotation declares as external.
type UnknownConstantError struct {
	Label string
}

func (e *UnknownConstantError) Error() string {
	return fmt.Sprintf("unknown constant %q in dependency list", e.Label)
}

// AmbiguousLabelError reports a label claimed by more than one declaration.
// Multiple claims are legal while the registry is being filled; they become
// an error once a single node must be resolved for the label.
type AmbiguousLabelError struct {
	Label string
	Names []kb.DeclID
}

func (e *AmbiguousLabelError) Error() string {
	names := make([]string, len(e.Names))
	for i, n := range e.Names {
		names[i] = string(n)
	}
	return fmt.Sprintf("label %q is claimed by multiple declarations: %s", e.Label, strings.Join(names, ", "))
}
