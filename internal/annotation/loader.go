package annotation

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// fileSchema admits only node blocks at the top level of an annotation
// file.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "node", LabelNames: []string{"name"}},
	},
}

// Loader parses annotation files against a loaded environment.
type Loader struct {
	severity blueprint.Severity
}

// NewLoader creates an annotation loader. The severity controls how
// references to constants missing from the environment are reported.
func NewLoader(severity blueprint.Severity) *Loader {
	return &Loader{severity: severity}
}

// Load parses every given file into a Set. Malformed syntax, unknown
// attributes, and duplicate node blocks are always fatal; unresolvable
// constant references follow the configured severity.
func (l *Loader) Load(ctx context.Context, env *kb.Environment, paths []string) (*Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Annotation loader started.", "file_count", len(paths))

	set := newSet()
	firstRange := make(map[kb.DeclID]string)
	parser := hclparse.NewParser()

	for _, path := range paths {
		hclFile, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse annotation file %s: %w", path, diags)
		}

		content, diags := hclFile.Body.Content(fileSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode annotation file %s: %w", path, diags)
		}

		for _, block := range content.Blocks {
			name := kb.DeclID(block.Labels[0])
			if name == "" {
				return nil, fmt.Errorf("%s: node block needs a declaration name", block.DefRange)
			}

			cfg, nodeDiags := decodeNodeBody(block.Body)
			if nodeDiags.HasErrors() {
				return nil, fmt.Errorf("invalid annotation for %q: %w", name, nodeDiags)
			}
			cfg.DeclRange = block.DefRange.String()

			if first, dup := firstRange[name]; dup {
				return nil, fmt.Errorf("duplicate annotation for %q: %s and %s", name, first, cfg.DeclRange)
			}
			firstRange[name] = cfg.DeclRange

			set.add(name, cfg)
		}
	}

	if err := l.resolveReferences(ctx, env, set); err != nil {
		return nil, err
	}

	logger.Debug("Annotations loaded.", "nodes", set.Len(), "external_labels", len(set.external))
	return set, nil
}

// resolveReferences checks every configured constant reference against the
// environment. A reference the environment cannot resolve will never gain a
// label in this run, so it is reported eagerly, next to the annotation that
// declared it.
func (l *Loader) resolveReferences(ctx context.Context, env *kb.Environment, set *Set) error {
	logger := ctxlog.FromContext(ctx)

	for _, name := range set.Names() {
		cfg, _ := set.ConfigFor(name)
		for _, refs := range [][]kb.DeclID{cfg.Uses, cfg.ProofUses} {
			for _, ref := range refs {
				if _, ok := env.Lookup(ref); ok {
					continue
				}
				switch l.severity {
				case blueprint.SeverityError:
					return fmt.Errorf("annotation for %q at %s: %w", name, cfg.DeclRange, &blueprint.UnknownConstantError{Label: string(ref)})
				case blueprint.SeverityWarn:
					logger.Warn("Annotation references an unknown constant.", "declaration", name, "constant", ref, "at", cfg.DeclRange)
				}
			}
		}
	}
	return nil
}
