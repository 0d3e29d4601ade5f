package blueprint

import (
	"context"
	"fmt"
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// UsedCollector surfaces the dependencies of a declaration as two disjoint
// identifier sets: those reachable from the statement and those reachable
// only from the proof. Implementations must be idempotent.
type UsedCollector interface {
	CollectUsed(id kb.DeclID) (statement []kb.DeclID, proof []kb.DeclID, err error)
}

// Builder assembles finished nodes from a declaration, its config, and the
// dependencies the collector surfaces. It reads the registry for label
// translation but never mutates it.
type Builder struct {
	env       *kb.Environment
	collector UsedCollector
	registry  *Registry
}

// NewBuilder creates a node builder working against one extraction run's
// registry.
func NewBuilder(env *kb.Environment, collector UsedCollector, registry *Registry) *Builder {
	return &Builder{env: env, collector: collector, registry: registry}
}

// MkNode builds the node for a declaration. It fails only when the
// declaration lookup or the collector fails; config merging itself cannot
// fail. The result is deterministic given the registry state at call time:
// identifiers without a registered node contribute no label, so a node
// built early can miss labels of declarations registered after it.
func (b *Builder) MkNode(ctx context.Context, id kb.DeclID, cfg *Config) (*Node, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	decl, ok := b.env.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("declaration %q not found in the knowledge base", id)
	}

	stmtUsed, proofUsed, err := b.collector.CollectUsed(id)
	if err != nil {
		return nil, err
	}

	hasProof := decl.Kind.TheoremLike() || cfg.Proof != nil
	if cfg.HasProof != nil {
		hasProof = *cfg.HasProof
	}

	label := cfg.LatexLabel
	if label == "" {
		label = string(id)
	}

	node := &Node{
		Name:       id,
		Label:      label,
		Title:      cfg.Title,
		NotReady:   cfg.NotReady,
		Discussion: cfg.Discussion,
	}

	if hasProof {
		env := cfg.LatexEnv
		if env == "" {
			env = "theorem"
		}
		node.Statement = NodePart{
			Checked: !hasSentinel(stmtUsed),
			Text:    cfg.Statement,
			Uses:    b.partLabels(label, stmtUsed, cfg.Uses, cfg.UsesLabels),
			Env:     env,
		}
		node.Proof = &NodePart{
			Checked: !hasSentinel(proofUsed),
			Text:    proofText(cfg, decl),
			Uses:    b.partLabels(label, proofUsed, cfg.ProofUses, cfg.ProofUsesLabels),
			Env:     "proof",
		}
	} else {
		// A single part subsumes the proof-level dependencies and both
		// override lists.
		env := cfg.LatexEnv
		if env == "" {
			env = "definition"
		}
		merged := append(append([]kb.DeclID(nil), stmtUsed...), proofUsed...)
		declRefs := append(append([]kb.DeclID(nil), cfg.Uses...), cfg.ProofUses...)
		rawLabels := append(append([]string(nil), cfg.UsesLabels...), cfg.ProofUsesLabels...)
		node.Statement = NodePart{
			Checked: !hasSentinel(merged),
			Text:    cfg.Statement,
			Uses:    b.partLabels(label, merged, declRefs, rawLabels),
			Env:     env,
		}
	}

	if cfg.Debug {
		logger := ctxlog.FromContext(ctx)
		attrs := []any{"name", id, "label", node.Label, "env", node.Statement.Env, "checked", node.Checked(), "statement_uses", node.Statement.Uses}
		if node.Proof != nil {
			attrs = append(attrs, "proof_uses", node.Proof.Uses)
		}
		logger.Info("Blueprint node built.", attrs...)
	}

	return node, nil
}

// partLabels translates one part's dependency set into its display label
// list: inferred identifiers first, then configured identifier references,
// then raw labels. First occurrence wins; the node's own label and the
// sentinel never appear. Identifiers with no registered node are dropped,
// they have no known label yet.
func (b *Builder) partLabels(own string, inferred []kb.DeclID, declRefs []kb.DeclID, raw []string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(label string) {
		if label == own {
			return
		}
		if _, dup := seen[label]; dup {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}

	translate := func(ids []kb.DeclID) {
		for _, ref := range ids {
			if ref == kb.SorryAx {
				continue
			}
			if n, ok := b.registry.NodeByName(ref); ok {
				add(n.Label)
			}
		}
	}
	translate(inferred)
	translate(declRefs)

	for _, label := range raw {
		add(label)
	}
	return out
}

// proofText resolves the proof part's text: the configured override wins,
// otherwise the declaration's own justification comments are joined.
func proofText(cfg *Config, decl *kb.Declaration) string {
	if cfg.Proof != nil {
		return *cfg.Proof
	}
	return strings.Join(decl.ProofComments, "\n\n")
}

func hasSentinel(ids []kb.DeclID) bool {
	for _, id := range ids {
		if id == kb.SorryAx {
			return true
		}
	}
	return false
}
