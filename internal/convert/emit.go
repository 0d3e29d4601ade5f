package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

// WriteAnnotations writes one annotation file per source LaTeX file, named
// after the file's stem, into outDir. Returns the written paths in document
// order.
func WriteAnnotations(ctx context.Context, nodes []*Node, outDir string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var order []string
	groups := make(map[string][]*Node)
	for _, n := range nodes {
		key := stem(n.File)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], n)
	}

	var written []string
	for _, key := range order {
		path := filepath.Join(outDir, key+".hcl")
		if err := os.WriteFile(path, EmitHCL(groups[key], key+".tex"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("Annotation file written.", "path", path, "nodes", len(groups[key]))
		written = append(written, path)
	}
	return written, nil
}

func stem(file string) string {
	if file == "" {
		return "nodes"
	}
	return strings.TrimSuffix(filepath.Base(file), ".tex")
}

// EmitHCL renders nodes as annotation blocks. Attributes the extractor
// derives on its own are left out: a node's environment is only written
// when it differs from the default for its shape, and leanok never carries
// over because completeness now comes from the knowledge base.
func EmitHCL(nodes []*Node, source string) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	body.AppendUnstructuredTokens(hclwrite.Tokens{{
		Type:  hclsyntax.TokenComment,
		Bytes: []byte(fmt.Sprintf("# Converted from %s by bpconvert.\n", source)),
	}})

	for _, n := range nodes {
		body.AppendNewline()
		nb := body.AppendNewBlock("node", []string{n.Name}).Body()

		nb.SetAttributeValue("latex_label", cty.StringVal(n.LatexLabel))
		if n.Title != "" {
			nb.SetAttributeValue("title", cty.StringVal(n.Title))
		}
		if env := defaultEnv(n); n.Statement.LatexEnv != env {
			nb.SetAttributeValue("latex_env", cty.StringVal(n.Statement.LatexEnv))
		}
		if strings.TrimSpace(n.Statement.Text) != "" {
			nb.SetAttributeValue("statement", cty.StringVal(n.Statement.Text))
		}
		if len(n.Statement.Uses) > 0 {
			nb.SetAttributeValue("uses_labels", labelList(n.Statement.Uses))
		}
		if n.Proof != nil {
			// Written even when empty: the attribute's presence is what
			// marks the proof part.
			nb.SetAttributeValue("proof", cty.StringVal(n.Proof.Text))
			if len(n.Proof.Uses) > 0 {
				nb.SetAttributeValue("proof_uses_labels", labelList(n.Proof.Uses))
			}
		}
		if n.NotReady {
			nb.SetAttributeValue("not_ready", cty.BoolVal(true))
		}
		if n.Discussion != nil && *n.Discussion != 0 {
			nb.SetAttributeValue("discussion", cty.NumberIntVal(int64(*n.Discussion)))
		}
	}
	return f.Bytes()
}

// defaultEnv is the environment the extractor would pick for the node's
// shape when the annotation stays silent.
func defaultEnv(n *Node) string {
	if n.Proof != nil {
		return "theorem"
	}
	return "definition"
}

func labelList(labels []string) cty.Value {
	vals := make([]cty.Value, len(labels))
	for i, label := range labels {
		vals[i] = cty.StringVal(label)
	}
	return cty.ListVal(vals)
}
