// Package convert migrates a legacy leanblueprint LaTeX document into
// annotation files. The legacy toolchain typeset its dependency graph from
// commands embedded in theorem environments; this package recovers those
// nodes with the same environment scanning rules and emits their
// declaration-keyed equivalents.
package convert

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/blueprintgo/blueprintgo/internal/ctxlog"
)

// DefaultEnvironments lists the theorem environments recognized when the
// document does not configure its own set through the thms package option.
var DefaultEnvironments = []string{"definition", "lemma", "proposition", "theorem", "corollary"}

var (
	labelArgRe      = argPattern("label")
	usesArgRe       = argPattern("uses")
	alsoInArgRe     = argPattern("alsoIn")
	provesArgRe     = argPattern("proves")
	leanArgRe       = argPattern("lean")
	discussionArgRe = argPattern("discussion")

	leanokRe    = flagPattern("leanok")
	notreadyRe  = flagPattern("notready")
	mathlibokRe = flagPattern("mathlibok")

	beginAnyRe     = regexp.MustCompile(`\\begin\s*\{([^}]*)\}`)
	thmsOptionRe   = regexp.MustCompile(`\\usepackage\s*\[[^\]]*\bthms\s*=\s*([^,\]}]*)`)
	leadingWSRe    = regexp.MustCompile(`^\s*`)
	leadingLineRe  = regexp.MustCompile(`^(?:[ \t]*\r?\n)+`)
	trailingLineRe = regexp.MustCompile(`(?:\r?\n[ \t]*)+$`)
)

func argPattern(command string) *regexp.Regexp {
	return regexp.MustCompile(`\\` + command + `\s*\{([^}]*)\}`)
}

func flagPattern(command string) *regexp.Regexp {
	return regexp.MustCompile(`\\` + command + `\b`)
}

// Parser extracts blueprint nodes from legacy LaTeX source.
type Parser struct {
	envs       []string
	warnedVerb bool
}

// NewParser creates a parser. An explicit environment list overrides
// whatever the document's package options configure; nil means detect from
// the document.
func NewParser(envs []string) *Parser {
	return &Parser{envs: envs}
}

// SplitEnvList splits a plus-separated environment list, the format the
// legacy package option uses.
func SplitEnvList(s string) []string {
	var envs []string
	for _, part := range strings.Split(s, "+") {
		if part = strings.TrimSpace(part); part != "" {
			envs = append(envs, part)
		}
	}
	return envs
}

// sourceInfo carries the graph commands stripped out of one environment
// body.
type sourceInfo struct {
	label      string
	uses       []string
	proves     string
	leanok     bool
	notready   bool
	lean       []string
	discussion *int
}

// stmtRef remembers which label the i-th scanned environment carried, so a
// proof environment can attach to the statement right before it.
type stmtRef struct {
	label string
	ok    bool
}

// Parse walks the inlined document twice: once collecting statement
// environments into nodes, once attaching proof environments to them.
// Environments that are commented out are skipped, as are statements
// without a \label or without a \lean declaration to key the node by.
func (p *Parser) Parse(ctx context.Context, src *Source) []*Node {
	logger := ctxlog.FromContext(ctx)

	envs := p.envs
	if len(envs) == 0 {
		envs = detectEnvironments(src.Text)
	}
	isStatement := make(map[string]bool, len(envs))
	for _, env := range envs {
		isStatement[env] = true
	}

	matches := scanEnvironments(src.Text, append(append([]string(nil), envs...), "proof"))
	logger.Debug("Environments scanned.", "environments", strings.Join(envs, "+"), "matches", len(matches))

	var nodes []*Node
	stmtLabels := make(map[int]stmtRef)
	byName := make(map[string]*Node)
	byLabel := make(map[string][]*Node)
	seenLabels := make(map[string]bool)

	// Two statements naming the same declaration collapse into the first;
	// the alias map redirects proofs written against the dropped label.
	labelAlias := make(map[string]string)

	for i, m := range matches {
		if !isStatement[m.env] {
			continue
		}
		if commentedOut(src.Text, m.start) {
			continue
		}

		info, text := p.processSource(ctx, m.content)
		stmtLabels[i] = stmtRef{label: info.label, ok: info.label != ""}
		if info.label == "" {
			logger.Warn("Ignoring a node without a \\label.", "environment", m.env, "source", snippet(m.content))
			continue
		}
		if seenLabels[info.label] {
			logger.Warn("Label occurs multiple times; merging.", "label", info.label)
		}
		seenLabels[info.label] = true

		if len(info.lean) == 0 {
			logger.Warn("Skipping an informal node without a \\lean declaration.", "label", info.label)
			continue
		}

		for _, name := range info.lean {
			if prev, ok := byName[name]; ok {
				logger.Warn("Two labels name the same declaration; merging.", "declaration", name, "label", info.label, "kept", prev.LatexLabel)
				prev.Statement.addUses(info.uses)
				labelAlias[info.label] = prev.LatexLabel
				continue
			}
			node := &Node{
				Name:       name,
				LatexLabel: info.label,
				Title:      m.title,
				NotReady:   info.notready,
				Discussion: info.discussion,
				File:       src.FileFor(m.start),
				Statement: NodePart{
					LeanOk:   info.leanok,
					Text:     text,
					LatexEnv: m.env,
				},
			}
			node.Statement.addUses(info.uses)
			byName[name] = node
			byLabel[info.label] = append(byLabel[info.label], node)
			nodes = append(nodes, node)
		}
	}

	for i, m := range matches {
		if m.env != "proof" {
			continue
		}
		if commentedOut(src.Text, m.start) {
			continue
		}

		info, text := p.processSource(ctx, m.content)
		label := info.proves
		if label == "" {
			ref, ok := stmtLabels[i-1]
			if !ok {
				logger.Warn("Cannot determine the statement this proof belongs to.", "source", snippet(text))
				continue
			}
			if !ref.ok {
				continue
			}
			label = ref.label
		}
		if canon, ok := labelAlias[label]; ok {
			label = canon
		}

		targets := byLabel[label]
		if len(targets) == 0 {
			if !seenLabels[label] {
				logger.Warn("Proof names a label with no statement.", "label", label)
			}
			continue
		}
		for _, target := range targets {
			if target.Proof != nil {
				logger.Warn("Multiple proofs for one label; merging.", "label", label)
				target.Proof.addUses(info.uses)
				continue
			}
			target.Proof = &NodePart{
				LeanOk:   info.leanok,
				Text:     text,
				LatexEnv: m.env,
			}
			target.Proof.addUses(info.uses)
		}
	}

	for _, node := range nodes {
		node.finalize()
	}

	logger.Debug("Legacy blueprint parsed.", "nodes", len(nodes))
	return nodes
}

// processSource strips the graph commands out of one environment body and
// returns what they configured together with the remaining prose.
func (p *Parser) processSource(ctx context.Context, source string) (sourceInfo, string) {
	var info sourceInfo

	// Only the outermost environment's \label counts; inner environments
	// label their own equations.
	info.label, _ = findFirstArg(ctx, labelArgRe, "label", removeEnvironments(source))
	if info.label != "" {
		source = strings.ReplaceAll(source, `\label{`+info.label+`}`, "")
	}

	info.uses, source = findArgs(usesArgRe, source)
	_, source = findArgs(alsoInArgRe, source)
	info.proves, source = findFirstArg(ctx, provesArgRe, "proves", source)
	info.leanok, source = findFlag(leanokRe, source)
	info.notready, source = findFlag(notreadyRe, source)
	_, source = findFlag(mathlibokRe, source)
	info.lean, source = findArgs(leanArgRe, source)

	var rawDiscussion string
	rawDiscussion, source = findFirstArg(ctx, discussionArgRe, "discussion", source)
	if n, err := strconv.Atoi(rawDiscussion); err == nil {
		info.discussion = &n
	}

	source = stripEmptyLines(source)

	if strings.Contains(source, `\verb`) && !p.warnedVerb {
		p.warnedVerb = true
		ctxlog.FromContext(ctx).Warn(`Converting \verb to \Verb, which is friendlier to macros.`)
	}
	source = strings.ReplaceAll(source, `\verb`, `\Verb`)

	return info, source
}

// envMatch is one matched environment in the inlined document. Matches are
// ordered and non-overlapping; start is the byte offset of \begin.
type envMatch struct {
	env     string
	title   string
	content string
	start   int
}

// scanEnvironments finds every environment from the given set, in document
// order. An optional [title] directly after \begin is split off; the
// content runs to the nearest matching \end.
func scanEnvironments(text string, envs []string) []envMatch {
	quoted := make([]string, len(envs))
	endRes := make(map[string]*regexp.Regexp, len(envs))
	for i, env := range envs {
		quoted[i] = regexp.QuoteMeta(env)
		endRes[env] = regexp.MustCompile(`\\end\s*\{` + regexp.QuoteMeta(env) + `\}`)
	}
	beginRe := regexp.MustCompile(`\\begin\s*\{(` + strings.Join(quoted, "|") + `)\}`)

	var matches []envMatch
	pos := 0
	for pos < len(text) {
		loc := beginRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		env := text[pos+loc[2] : pos+loc[3]]
		after := pos + loc[1]

		contentStart := after + len(leadingWSRe.FindString(text[after:]))
		endLoc := endRes[env].FindStringIndex(text[contentStart:])
		if endLoc == nil {
			// No matching \end; resume after the dangling \begin.
			pos = after
			continue
		}
		contentEnd := contentStart + endLoc[0]
		matchEnd := contentStart + endLoc[1]

		var title string
		if contentStart < contentEnd && text[contentStart] == '[' {
			if end := strings.IndexByte(text[contentStart:contentEnd], ']'); end >= 0 {
				title = text[contentStart+1 : contentStart+end]
				contentStart += end + 1
			}
		}

		matches = append(matches, envMatch{
			env:     env,
			title:   title,
			content: text[contentStart:contentEnd],
			start:   start,
		})
		pos = matchEnd
	}
	return matches
}

// detectEnvironments reads the theorem environment set from the document's
// package options, falling back to the default set.
func detectEnvironments(text string) []string {
	m := thmsOptionRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultEnvironments
	}
	return SplitEnvList(m[1])
}

// removeEnvironments strips inner environments so a nested \label is not
// mistaken for the node's own. Nested environments with the same name are
// not handled.
func removeEnvironments(source string) string {
	var b strings.Builder
	for {
		loc := beginAnyRe.FindStringSubmatchIndex(source)
		if loc == nil {
			break
		}
		name := source[loc[2]:loc[3]]
		endRe := regexp.MustCompile(`\\end\s*\{` + regexp.QuoteMeta(name) + `\}`)
		endLoc := endRe.FindStringIndex(source[loc[1]:])
		if endLoc == nil {
			b.WriteString(source[:loc[1]])
			source = source[loc[1]:]
			continue
		}
		b.WriteString(source[:loc[0]])
		source = source[loc[1]+endLoc[1]:]
	}
	b.WriteString(source)
	return b.String()
}

// findFlag reports whether the command occurs and strips every occurrence.
func findFlag(re *regexp.Regexp, source string) (bool, string) {
	if !re.MatchString(source) {
		return false, source
	}
	return true, re.ReplaceAllString(source, "")
}

// findArgs collects the comma-separated arguments of every occurrence of
// the command and strips all occurrences.
func findArgs(re *regexp.Regexp, source string) ([]string, string) {
	ms := re.FindAllStringSubmatch(source, -1)
	if ms == nil {
		return nil, source
	}
	var values []string
	for _, m := range ms {
		for _, item := range strings.Split(m[1], ",") {
			if v := strings.TrimSpace(item); v != "" {
				values = append(values, v)
			}
		}
	}
	return values, re.ReplaceAllString(source, "")
}

// findFirstArg returns the first argument of the command and strips only
// its first occurrence.
func findFirstArg(ctx context.Context, re *regexp.Regexp, command, source string) (string, string) {
	values, _ := findArgs(re, source)
	if len(values) == 0 {
		return "", source
	}
	if len(values) > 1 {
		ctxlog.FromContext(ctx).Warn("Multiple arguments for a single-use command; using the first.", "command", `\`+command, "arguments", strings.Join(values, ", "))
	}
	if loc := re.FindStringIndex(source); loc != nil {
		source = source[:loc[0]] + source[loc[1]:]
	}
	return values[0], source
}

// commentedOut reports whether the line leading up to the offset carries a
// LaTeX comment marker.
func commentedOut(text string, start int) bool {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	return strings.Contains(strings.TrimSpace(text[lineStart:start]), "%")
}

func stripEmptyLines(text string) string {
	text = leadingLineRe.ReplaceAllString(text, "")
	return trailingLineRe.ReplaceAllString(text, "")
}

func snippet(s string) string {
	if len(s) > 30 {
		return s[:30] + "..."
	}
	return s
}
