package annotation

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/blueprintgo/blueprintgo/internal/blueprint"
	"github.com/blueprintgo/blueprintgo/internal/kb"
)

// nodeBodySchema lists every attribute a node block may carry. Content
// rejects anything else, so typos fail at parse time rather than silently
// configuring nothing.
var nodeBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "latex_label"},
		{Name: "title"},
		{Name: "latex_env"},
		{Name: "statement"},
		{Name: "proof"},
		{Name: "has_proof"},
		{Name: "uses"},
		{Name: "uses_labels"},
		{Name: "proof_uses"},
		{Name: "proof_uses_labels"},
		{Name: "not_ready"},
		{Name: "discussion"},
		{Name: "debug"},
	},
}

// decodeNodeBody turns one node block body into a config. Attribute
// presence matters: an attribute that is absent stays "unset" in the
// config, which is not the same as being set to a zero value.
func decodeNodeBody(body hcl.Body) (*blueprint.Config, hcl.Diagnostics) {
	cfg := &blueprint.Config{}

	content, diags := body.Content(nodeBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	for name, attr := range content.Attributes {
		var attrDiags hcl.Diagnostics
		switch name {
		case "latex_label":
			cfg.LatexLabel, attrDiags = stringValue(attr)
		case "title":
			cfg.Title, attrDiags = stringValue(attr)
		case "latex_env":
			cfg.LatexEnv, attrDiags = stringValue(attr)
		case "statement":
			cfg.Statement, attrDiags = stringValue(attr)
		case "proof":
			var text string
			text, attrDiags = stringValue(attr)
			if !attrDiags.HasErrors() {
				cfg.Proof = &text
			}
		case "has_proof":
			var flag bool
			flag, attrDiags = boolValue(attr)
			if !attrDiags.HasErrors() {
				cfg.HasProof = &flag
			}
		case "uses":
			cfg.Uses, attrDiags = declListValue(attr)
		case "uses_labels":
			cfg.UsesLabels, attrDiags = stringListValue(attr)
		case "proof_uses":
			cfg.ProofUses, attrDiags = declListValue(attr)
		case "proof_uses_labels":
			cfg.ProofUsesLabels, attrDiags = stringListValue(attr)
		case "not_ready":
			cfg.NotReady, attrDiags = boolValue(attr)
		case "discussion":
			var ref int
			ref, attrDiags = intValue(attr)
			if !attrDiags.HasErrors() {
				cfg.Discussion = &ref
			}
		case "debug":
			cfg.Debug, attrDiags = boolValue(attr)
		}
		diags = append(diags, attrDiags...)
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return cfg, diags
}

// attrValue evaluates an attribute expression and converts it to the wanted
// type. Annotation files are self-contained; expressions cannot reference
// variables.
func attrValue(attr *hcl.Attribute, want cty.Type) (cty.Value, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}

	converted, err := convert.Convert(val, want)
	if err != nil || converted.IsNull() {
		detail := fmt.Sprintf("The %q attribute must be a %s.", attr.Name, want.FriendlyName())
		if err != nil {
			detail = fmt.Sprintf("The %q attribute is invalid: %s.", attr.Name, err)
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute value",
			Detail:   detail,
			Subject:  attr.Expr.Range().Ptr(),
		})
		return cty.NilVal, diags
	}
	return converted, diags
}

func stringValue(attr *hcl.Attribute) (string, hcl.Diagnostics) {
	val, diags := attrValue(attr, cty.String)
	if diags.HasErrors() {
		return "", diags
	}
	return val.AsString(), diags
}

func boolValue(attr *hcl.Attribute) (bool, hcl.Diagnostics) {
	val, diags := attrValue(attr, cty.Bool)
	if diags.HasErrors() {
		return false, diags
	}
	return val.True(), diags
}

func intValue(attr *hcl.Attribute) (int, hcl.Diagnostics) {
	val, diags := attrValue(attr, cty.Number)
	if diags.HasErrors() {
		return 0, diags
	}

	var out int
	if err := gocty.FromCtyValue(val, &out); err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute value",
			Detail:   fmt.Sprintf("The %q attribute must be a whole number: %s.", attr.Name, err),
			Subject:  attr.Expr.Range().Ptr(),
		})
		return 0, diags
	}
	return out, diags
}

func stringListValue(attr *hcl.Attribute) ([]string, hcl.Diagnostics) {
	val, diags := attrValue(attr, cty.List(cty.String))
	if diags.HasErrors() {
		return nil, diags
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid attribute value",
				Detail:   fmt.Sprintf("The %q attribute must not contain null entries.", attr.Name),
				Subject:  attr.Expr.Range().Ptr(),
			})
			return nil, diags
		}
		out = append(out, elem.AsString())
	}
	return out, diags
}

func declListValue(attr *hcl.Attribute) ([]kb.DeclID, hcl.Diagnostics) {
	raw, diags := stringListValue(attr)
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([]kb.DeclID, len(raw))
	for i, s := range raw {
		out[i] = kb.DeclID(s)
	}
	return out, diags
}
