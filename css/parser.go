package css

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// DefaultParseOptions returns limits suitable for untrusted author stylesheets.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Origin:                 OriginAuthor,
		MaxRules:               50000,
		MaxSelectorsPerRule:    1024,
		MaxDeclarationsPerRule: 1024,
		MaxNestingDepth:        16,
	}
}

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log  *zap.Logger
	opts ParseOptions
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger, opts ParseOptions) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser"), opts: opts}
}

// Parse parses CSS text with default options and no logging.
func Parse(text string, opts ParseOptions) *Stylesheet {
	return NewParser(nil, opts).Parse([]byte(text))
}

// Parse parses CSS text into a Stylesheet. It never fails: problems are
// recorded as diagnostics and parsing recovers at rule boundaries.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Origin:  p.opts.Origin,
		BaseURL: p.opts.BaseURL,
		Hash:    xxhash.Sum64(data),
		Items:   make([]StylesheetItem, 0),
	}

	log := p.log
	if len(source) > 0 && source[0] != "" {
		log = log.With(zap.String("source", source[0]))
	}
	log.Debug("Parsing CSS", zap.Int("bytes", len(data)), zap.Stringer("origin", p.opts.Origin))

	ps := &parseState{log: log, opts: p.opts, sheet: sheet, start: time.Now()}
	if p.opts.BaseURL != "" {
		base, err := url.Parse(p.opts.BaseURL)
		if err != nil {
			log.Debug("Ignoring bad base URL", zap.String("url", p.opts.BaseURL), zap.Error(err))
		} else {
			ps.base = base
		}
	}
	sheet.Items = ps.items(tokenizeBytes(data), 0, nil)

	log.Debug("Parsed CSS",
		zap.Int("rules", sheet.Stats.Rules),
		zap.Int("diagnostics", len(sheet.Diagnostics)),
		zap.Bool("truncated", sheet.Stats.Truncated),
		zap.Duration("elapsed", time.Since(ps.start)))
	return sheet
}

// ParseInline parses the contents of a style attribute. Shorthands are kept
// as written, use ExpandDeclarations to get longhands.
func ParseInline(style string) ([]Declaration, Diagnostics) {
	ps := &parseState{log: zap.NewNop(), sheet: &Stylesheet{Origin: OriginInline}, start: time.Now()}
	decls := ps.declarations(tokenize(style))
	return decls, ps.sheet.Diagnostics
}

// parseState holds everything a single Parse call mutates.
type parseState struct {
	log     *zap.Logger
	opts    ParseOptions
	sheet   *Stylesheet
	base    *url.URL
	start   time.Time
	stopped bool // a resource limit was hit
}

func (ps *parseState) diag(kind DiagnosticKind, msg string, line int, context string) {
	switch kind {
	case MalformedRule:
		ps.sheet.Stats.MalformedRules++
	case MalformedSelector:
		ps.sheet.Stats.MalformedSelectors++
	case InvalidValue:
		ps.sheet.Stats.InvalidValues++
	}
	ps.sheet.Diagnostics = append(ps.sheet.Diagnostics, Diagnostic{Kind: kind, Message: msg, Line: line, Context: context})
	ps.log.Debug("CSS diagnostic", zap.Stringer("kind", kind), zap.String("message", msg), zap.Int("line", line))
}

// limit stops parsing. Only the first exceeded limit is reported.
func (ps *parseState) limit(msg string, line int) {
	if ps.stopped {
		return
	}
	ps.stopped = true
	ps.sheet.Stats.Truncated = true
	ps.diag(ResourceLimitExceeded, msg, line, "")
}

func (ps *parseState) overBudget() bool {
	return ps.opts.TimeBudget > 0 && time.Since(ps.start) > ps.opts.TimeBudget
}

// preludeEnd returns the position of the first '{', ';' or '}' at or after i
// which is not nested inside parentheses or brackets, len(toks) if none.
func preludeEnd(toks []token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		switch toks[i].tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.SemicolonToken, css.RightBraceToken:
			if depth == 0 {
				return i
			}
		}
	}
	return i
}

// items parses a list of rules: the whole stylesheet or a @media body.
func (ps *parseState) items(toks []token, depth int, media []MediaQueryList) []StylesheetItem {
	var items []StylesheetItem
	for i := 0; i < len(toks) && !ps.stopped; {
		t := toks[i]
		switch {
		case t.is(css.WhitespaceToken), t.is(css.SemicolonToken):
			i++
			continue
		case depth == 0 && ps.overBudget():
			ps.limit(fmt.Sprintf("time budget of %s exhausted", ps.opts.TimeBudget), t.line)
			continue
		}
		switch {
		case t.is(css.RightBraceToken):
			ps.diag(MalformedRule, "unexpected '}'", t.line, "")
			i++
		case t.is(css.AtKeywordToken):
			i = ps.atRule(toks, i, depth, media, &items)
		default:
			i = ps.qualifiedRule(toks, i, media, &items)
		}
	}
	return items
}

// block locates the {} block of a rule whose prelude starts at i. It
// returns the prelude, the block contents and the position after the rule.
// ok is false when the rule has no well formed block, next is then where
// parsing resumes.
func (ps *parseState) block(toks []token, i int, what string) (prelude, body []token, next int, ok bool) {
	end := preludeEnd(toks, i)
	prelude = toks[i:end]
	var line int
	if i < len(toks) {
		line = toks[i].line
	}
	switch {
	case end == len(toks):
		ps.diag(MalformedRule, what+" without block", line, joinTokens(prelude))
		return prelude, nil, end, false
	case toks[end].is(css.SemicolonToken):
		ps.diag(MalformedRule, what+" without block", line, joinTokens(prelude))
		return prelude, nil, end + 1, false
	case toks[end].is(css.RightBraceToken):
		// stray '}', let the caller report it
		ps.diag(MalformedRule, what+" without block", line, joinTokens(prelude))
		return prelude, nil, end, false
	}
	closeAt := closing(toks, end)
	if closeAt < 0 {
		ps.diag(MalformedRule, "unbalanced braces", line, joinTokens(prelude))
		return prelude, nil, len(toks), false
	}
	return prelude, toks[end+1 : closeAt], closeAt + 1, true
}

func (ps *parseState) qualifiedRule(toks []token, i int, media []MediaQueryList, items *[]StylesheetItem) int {
	line := toks[i].line
	prelude, body, next, ok := ps.block(toks, i, "rule")
	if !ok {
		return next
	}
	if ps.opts.MaxRules > 0 && ps.sheet.Stats.Rules >= ps.opts.MaxRules {
		ps.limit(fmt.Sprintf("more than %d rules", ps.opts.MaxRules), line)
		return next
	}
	if n := len(splitTopLevel(prelude)); ps.opts.MaxSelectorsPerRule > 0 && n > ps.opts.MaxSelectorsPerRule {
		ps.limit(fmt.Sprintf("%d selectors in one rule, limit is %d", n, ps.opts.MaxSelectorsPerRule), line)
		return next
	}

	sels, errs := parseSelectorList(prelude, 0)
	for _, err := range errs {
		ps.diag(MalformedSelector, err.Error(), line, joinTokens(prelude))
	}
	if len(sels) == 0 {
		ps.diag(MalformedRule, "no valid selector", line, joinTokens(prelude))
		return next
	}

	rule := &Rule{
		Selectors:    sels,
		Declarations: ps.declarations(body),
		SourceOrder:  uint32(len(ps.sheet.Rules)),
		Origin:       ps.opts.Origin,
		Media:        slices.Clone(media),
		Line:         line,
	}
	rule.longhands, _ = ExpandDeclarations(rule.Declarations)

	scope := rule.SelectorText()
	for _, d := range rule.Declarations {
		if IsCustomProperty(d.Property) {
			ps.sheet.Variables = append(ps.sheet.Variables, CustomProperty{
				Name: d.Property, Value: d.Raw, Scope: scope, Important: d.Important,
			})
			ps.sheet.Stats.Variables++
		}
	}

	ps.sheet.Stats.Rules++
	ps.sheet.Stats.Selectors += len(sels)
	ps.sheet.Stats.Declarations += len(rule.Declarations)
	ps.sheet.Rules = append(ps.sheet.Rules, rule)
	*items = append(*items, StylesheetItem{Rule: rule})
	return next
}

func (ps *parseState) atRule(toks []token, i, depth int, media []MediaQueryList, items *[]StylesheetItem) int {
	name := strings.ToLower(toks[i].data)
	line := toks[i].line

	switch name {
	case "@import", "@charset", "@namespace":
		end := preludeEnd(toks, i+1)
		next := end
		if end < len(toks) {
			switch {
			case toks[end].is(css.SemicolonToken):
				next = end + 1
			case toks[end].is(css.LeftBraceToken):
				ps.diag(MalformedRule, "unexpected block after "+name, line, "")
				if c := closing(toks, end); c >= 0 {
					return c + 1
				}
				return len(toks)
			}
		}
		if name == "@import" {
			ps.importRule(toks[i+1:end], line, items)
		}
		return next
	}

	prelude, body, next, ok := ps.block(toks, i+1, name)
	if !ok {
		return next
	}
	switch {
	case name == "@media":
		if ps.opts.MaxNestingDepth > 0 && depth+1 > ps.opts.MaxNestingDepth {
			ps.limit(fmt.Sprintf("@media nested deeper than %d", ps.opts.MaxNestingDepth), line)
			return next
		}
		block := &MediaBlock{Queries: parseMediaQueryList(trimSpace(prelude)), Line: line}
		ps.sheet.Stats.MediaBlocks++
		*items = append(*items, StylesheetItem{MediaBlock: block})
		block.Items = ps.items(body, depth+1, append(slices.Clone(media), block.Queries))
		ps.log.Debug("Parsed @media block", zap.String("query", block.Queries.String()), zap.Int("items", len(block.Items)))
	case strings.HasSuffix(name, "keyframes") && strings.HasPrefix(name, "@"):
		if kf := ps.keyframes(name, prelude, body, line); kf != nil {
			*items = append(*items, StylesheetItem{Keyframes: kf})
		}
	case name == "@font-face":
		ff := ps.fontFace(body)
		ps.sheet.Stats.FontFaces++
		*items = append(*items, StylesheetItem{FontFace: &ff})
		if ff.Family != "" {
			ps.sheet.FontFaces = append(ps.sheet.FontFaces, &ff)
		}
	default:
		ps.sheet.Stats.SkippedAtRules++
		ps.log.Debug("Skipping @-rule", zap.String("rule", name), zap.Int("line", line))
	}
	return next
}

func (ps *parseState) importRule(prelude []token, line int, items *[]StylesheetItem) {
	prelude = trimSpace(prelude)
	if len(prelude) == 0 {
		ps.diag(MalformedRule, "@import without URL", line, "")
		return
	}
	var (
		target string
		rest   []token
	)
	switch t := prelude[0]; {
	case t.is(css.StringToken):
		target, rest = unquote(t.data), prelude[1:]
	case t.is(css.URLToken):
		target, rest = urlTarget(t.data), prelude[1:]
	case t.is(css.FunctionToken) && strings.EqualFold(t.data, "url("):
		end := closing(prelude, 0)
		if end < 0 {
			ps.diag(MalformedRule, "unbalanced @import URL", line, joinTokens(prelude))
			return
		}
		target, rest = unquote(joinTokens(prelude[1:end])), prelude[end+1:]
	default:
		ps.diag(MalformedRule, "@import without URL", line, joinTokens(prelude))
		return
	}

	imp := Import{URL: target, Media: parseMediaQueryList(trimSpace(rest)), Line: line}
	imp.Resolved = target
	if ps.base != nil {
		if u, err := url.Parse(target); err == nil {
			imp.Resolved = ps.base.ResolveReference(u).String()
		}
	}
	ps.sheet.Stats.Imports++
	ps.sheet.Imports = append(ps.sheet.Imports, &imp)
	*items = append(*items, StylesheetItem{Import: &imp})
	ps.log.Debug("Parsed @import", zap.String("url", imp.URL), zap.String("resolved", imp.Resolved))
}

func (ps *parseState) keyframes(name string, prelude, body []token, line int) *Keyframes {
	vendor := strings.TrimSuffix(strings.TrimPrefix(name, "@"), "keyframes")
	prelude = trimSpace(prelude)
	if len(prelude) != 1 || !(prelude[0].is(css.IdentToken) || prelude[0].is(css.StringToken)) {
		ps.diag(MalformedRule, "bad @keyframes name", line, joinTokens(prelude))
		return nil
	}
	kf := &Keyframes{Name: unquote(prelude[0].data), Vendor: vendor, Line: line}
	for i := 0; i < len(body) && !ps.stopped; {
		if body[i].is(css.WhitespaceToken) || body[i].is(css.SemicolonToken) {
			i++
			continue
		}
		stepLine := body[i].line
		sel, decls, next, ok := ps.block(body, i, "keyframe")
		if next == i {
			next++ // stray '}'
		}
		i = next
		if !ok {
			continue
		}
		offsets, err := keyframeOffsets(sel)
		if err != nil {
			ps.diag(MalformedSelector, err.Error(), stepLine, joinTokens(sel))
			continue
		}
		kf.Steps = append(kf.Steps, KeyframeStep{
			Selector:     joinTokens(sel),
			Offsets:      offsets,
			Declarations: ps.declarations(decls),
		})
	}
	ps.sheet.Stats.Keyframes++
	ps.sheet.Keyframes = append(ps.sheet.Keyframes, kf)
	ps.log.Debug("Parsed @keyframes", zap.String("name", kf.Name), zap.Int("steps", len(kf.Steps)))
	return kf
}

func keyframeOffsets(sel []token) ([]float64, error) {
	var offsets []float64
	for _, part := range splitTopLevel(sel) {
		part = trimSpace(part)
		if len(part) != 1 {
			return nil, fmt.Errorf("bad keyframe selector %q", joinTokens(part))
		}
		t := part[0]
		switch {
		case t.isIdent("from"):
			offsets = append(offsets, 0)
		case t.isIdent("to"):
			offsets = append(offsets, 100)
		case t.is(css.PercentageToken):
			n, err := strconv.ParseFloat(strings.TrimSuffix(t.data, "%"), 64)
			if err != nil || n < 0 || n > 100 {
				return nil, fmt.Errorf("bad keyframe offset %q", t.data)
			}
			offsets = append(offsets, n)
		default:
			return nil, fmt.Errorf("bad keyframe selector %q", t.data)
		}
	}
	return offsets, nil
}

func (ps *parseState) fontFace(body []token) FontFace {
	ff := FontFace{Declarations: ps.declarations(body)}
	for _, d := range ff.Declarations {
		switch d.Property {
		case "font-family":
			ff.Family = unquote(d.Raw)
		case "src":
			ff.Src = d.Raw
		case "font-style":
			ff.Style = d.Raw
		case "font-weight":
			ff.Weight = d.Raw
		}
	}
	ps.log.Debug("Parsed @font-face", zap.String("family", ff.Family), zap.String("src", ff.Src))
	return ff
}

// splitDeclarations splits a block on semicolons outside of nested blocks.
func splitDeclarations(toks []token) [][]token {
	var (
		parts [][]token
		depth int
		start int
	)
	for i, t := range toks {
		switch t.tt {
		case css.LeftBraceToken, css.LeftBracketToken, css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightBraceToken, css.RightBracketToken, css.RightParenthesisToken:
			if depth > 0 {
				depth--
			}
		case css.SemicolonToken:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// declarations parses a declaration block.
func (ps *parseState) declarations(toks []token) []Declaration {
	var decls []Declaration
	for _, part := range splitDeclarations(toks) {
		d, ok := ps.declaration(trimSpace(part))
		if !ok {
			continue
		}
		if n := ps.opts.MaxDeclarationsPerRule; n > 0 && len(decls) >= n {
			ps.limit(fmt.Sprintf("more than %d declarations in one block", n), d.Line)
			break
		}
		decls = append(decls, d)
	}
	return decls
}

func (ps *parseState) declaration(part []token) (Declaration, bool) {
	if len(part) == 0 {
		return Declaration{}, false
	}
	line := part[0].line
	j := 1
	if j < len(part) && part[j].is(css.WhitespaceToken) {
		j++
	}
	if !part[0].is(css.IdentToken) || j >= len(part) || !part[j].is(css.ColonToken) {
		ps.diag(MalformedRule, "unparsable declaration", line, joinTokens(part))
		return Declaration{}, false
	}

	value := trimSpace(part[j+1:])
	important := false
	if n := len(value); n >= 2 && value[n-1].isIdent("important") {
		k := n - 2
		if value[k].is(css.WhitespaceToken) {
			k--
		}
		if k >= 0 && value[k].isDelim('!') {
			important = true
			value = trimSpace(value[:k])
		}
	}
	for _, t := range value {
		switch t.tt {
		case css.BadStringToken, css.BadURLToken, css.LeftBraceToken:
			ps.diag(MalformedRule, "unparsable declaration", line, joinTokens(part))
			return Declaration{}, false
		}
	}

	name := part[0].data
	if !IsCustomProperty(name) {
		name = strings.ToLower(name)
	}
	d := Declaration{Property: name, Raw: joinTokens(value), Important: important, Line: line}
	if IsCustomProperty(name) {
		// kept verbatim, typed on substitution
		d.Value = Value{Kind: KindUnresolved, Raw: d.Raw}
		if !HasVar(d.Raw) {
			d.Value, _ = ParseValue(name, d.Raw)
		}
		return d, true
	}

	v, err := parseDeclarationValue(name, d.Raw)
	if err != nil {
		ps.diag(InvalidValue, err.Error(), line, name+": "+d.Raw)
		v = Value{Raw: d.Raw}
	}
	d.Value = v
	return d, true
}

// parseDeclarationValue types a declaration value. Shorthands are validated
// by expanding them.
func parseDeclarationValue(property, raw string) (Value, error) {
	if !IsShorthand(property) || HasVar(raw) {
		return ParseValue(property, raw)
	}
	if _, err := ExpandShorthand(property, raw); err != nil {
		return Value{}, err
	}
	v, err := ParseValue(property, raw)
	if err != nil {
		// valid as a shorthand even when not a plain component list
		v = Value{Kind: KindList, Raw: raw}
	}
	return v, nil
}

// ExpandDeclarations replaces shorthand declarations with their longhands.
// Shorthands referencing custom properties are kept as they are, they can
// only be expanded after substitution. Longhands keep importance and line
// of their shorthand.
func ExpandDeclarations(decls []Declaration) ([]Declaration, Diagnostics) {
	var (
		out   = make([]Declaration, 0, len(decls))
		diags Diagnostics
	)
	for _, d := range decls {
		if !IsShorthand(d.Property) || d.Value.Kind == KindUnresolved || !d.Value.IsValid() {
			out = append(out, d)
			continue
		}
		lhs, err := ExpandShorthand(d.Property, d.Raw)
		if err != nil {
			diags = append(diags, Diagnostic{Kind: InvalidValue, Message: err.Error(), Line: d.Line, Context: d.Property})
			out = append(out, Declaration{Property: d.Property, Raw: d.Raw, Important: d.Important, Line: d.Line})
			continue
		}
		for _, lh := range lhs {
			ld := Declaration{Property: lh.Property, Raw: lh.Raw, Important: d.Important, Line: d.Line, Shorthand: d.Property}
			if v, err := ParseValue(lh.Property, lh.Raw); err == nil {
				ld.Value = v
			} else {
				diags = append(diags, Diagnostic{Kind: InvalidValue, Message: err.Error(), Line: d.Line, Context: lh.Property})
				ld.Value = Value{Raw: lh.Raw}
			}
			out = append(out, ld)
		}
	}
	return out, diags
}
