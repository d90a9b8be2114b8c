package css_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stylecore/css"
)

// topRules collects top-level rules from a stylesheet's Items.
// It does NOT flatten @media blocks.
func topRules(sheet *css.Stylesheet) []*css.Rule {
	var rules []*css.Rule
	for _, item := range sheet.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

func parse(t *testing.T, text string) *css.Stylesheet {
	t.Helper()
	return css.NewParser(zap.NewNop(), css.DefaultParseOptions()).Parse([]byte(text))
}

func TestParser_ElementSelector(t *testing.T) {
	sheet := parse(t, `p { text-indent: 1em; }`)

	rules := topRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	rule := rules[0]
	if rule.SelectorText() != "p" {
		t.Errorf("expected selector 'p', got %q", rule.SelectorText())
	}
	d, ok := rule.GetProperty("text-indent")
	if !ok {
		t.Fatal("expected text-indent property")
	}
	if d.Value.Kind != css.KindLength || d.Value.Number != 1 || d.Value.Unit != "em" {
		t.Errorf("unexpected text-indent value %+v", d.Value)
	}
	if rule.Origin != css.OriginAuthor {
		t.Errorf("expected author origin, got %s", rule.Origin)
	}
	if len(sheet.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", sheet.Diagnostics)
	}
}

func TestParser_SelectorListAndSpecificity(t *testing.T) {
	sheet := parse(t, `ul li.item, #main > p:first-child, a[href^="http"]::before { color: red }`)
	rules := topRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	want := []string{"(0,1,2)", "(1,1,1)", "(0,1,2)"}
	if len(rules[0].Selectors) != len(want) {
		t.Fatalf("expected %d selectors, got %d", len(want), len(rules[0].Selectors))
	}
	for i, sel := range rules[0].Selectors {
		if got := sel.Specificity.String(); got != want[i] {
			t.Errorf("selector %q: specificity %s, want %s", sel.Raw, got, want[i])
		}
	}
	if sheet.Stats.Selectors != 3 {
		t.Errorf("expected 3 selectors in stats, got %d", sheet.Stats.Selectors)
	}
}

func TestParser_CommentsAreNotWhitespace(t *testing.T) {
	sheet := parse(t, `a/**/.b, li/* first */:first-child { margin: 1px/**/2px }`)
	rules := topRules(sheet)
	if len(rules) != 1 || len(rules[0].Selectors) != 2 {
		t.Fatalf("unexpected rules: %+v", rules)
	}
	compound := rules[0].Selectors[0]
	if compound.Raw != "a.b" || len(compound.Parts) != 1 || compound.Specificity.String() != "(0,1,1)" {
		t.Errorf("comment inside a compound: raw %q, %d compounds, specificity %s",
			compound.Raw, len(compound.Parts), compound.Specificity)
	}
	if sel := rules[0].Selectors[1]; len(sel.Parts) != 1 || sel.Raw != "li:first-child" {
		t.Errorf("comment before a pseudo-class: raw %q, %d compounds", sel.Raw, len(sel.Parts))
	}
	if len(sheet.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", sheet.Diagnostics)
	}

	if d, _ := rules[0].GetProperty("margin"); d.Raw != "1px 2px" {
		t.Errorf("a comment between values keeps them apart, got %q", d.Raw)
	}
	lh := rules[0].Longhands()
	if len(lh) != 4 || lh[0].Raw != "1px" || lh[1].Raw != "2px" {
		t.Errorf("unexpected longhands %+v", lh)
	}

	expanded, err := css.ExpandShorthand("padding", "1px/**/2px")
	if err != nil || len(expanded) != 4 || expanded[1].Raw != "2px" {
		t.Errorf("components split at comments: %+v, %v", expanded, err)
	}
}

func TestParser_MalformedSelectorKeepsRest(t *testing.T) {
	sheet := parse(t, `p, a >> b, .ok { color: red }`)
	rules := topRules(sheet)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if got := rules[0].SelectorText(); got != "p, .ok" {
		t.Errorf("expected surviving selectors 'p, .ok', got %q", got)
	}
	if n := sheet.Diagnostics.Count(css.MalformedSelector); n != 1 {
		t.Errorf("expected 1 MalformedSelector diagnostic, got %d", n)
	}
}

func TestParser_RecoveryAtRuleBoundaries(t *testing.T) {
	input := `
a { color: red }
b { color: blue; ; width: }
>>> { color: green }
c { margin 10px; padding: 1px }
}
d { color: black }
`
	sheet := parse(t, input)
	rules := topRules(sheet)

	var sels []string
	for _, r := range rules {
		sels = append(sels, r.SelectorText())
	}
	if got := strings.Join(sels, " "); got != "a b c d" {
		t.Fatalf("expected rules 'a b c d', got %q", got)
	}
	if n := sheet.Diagnostics.Count(css.MalformedRule); n < 3 {
		t.Errorf("expected at least 3 MalformedRule diagnostics, got %d: %v", n, sheet.Diagnostics)
	}
	if n := sheet.Diagnostics.Count(css.InvalidValue); n != 1 {
		t.Errorf("expected 1 InvalidValue for empty width, got %d", n)
	}
	// c keeps the valid declaration
	if _, ok := rules[2].GetProperty("padding"); !ok {
		t.Error("expected padding to survive in rule c")
	}
	for _, d := range sheet.Diagnostics {
		if d.Line == 0 {
			t.Errorf("diagnostic without line: %v", d)
		}
	}
}

func TestParser_UnbalancedBraces(t *testing.T) {
	sheet := parse(t, `a { color: red } b { color: blue`)
	if len(topRules(sheet)) != 1 {
		t.Fatalf("expected only the balanced rule, got %d", len(topRules(sheet)))
	}
	if n := sheet.Diagnostics.Count(css.MalformedRule); n != 1 {
		t.Errorf("expected 1 MalformedRule diagnostic, got %d", n)
	}
	if !errors.Is(sheet.Diagnostics.Err(), css.ErrMalformedRule) {
		t.Errorf("expected aggregated error to wrap ErrMalformedRule")
	}
}

func TestParser_Important(t *testing.T) {
	sheet := parse(t, `p { color: red !important; margin: 0 ! IMPORTANT; width: 10px }`)
	rule := topRules(sheet)[0]
	want := map[string]bool{"color": true, "margin": true, "width": false}
	for _, d := range rule.Declarations {
		if d.Important != want[d.Property] {
			t.Errorf("%s: important = %v, want %v", d.Property, d.Important, want[d.Property])
		}
	}
	if d, _ := rule.GetProperty("color"); d.Raw != "red" {
		t.Errorf("expected raw 'red' without !important, got %q", d.Raw)
	}
	for _, d := range rule.Longhands() {
		if d.Shorthand == "margin" && !d.Important {
			t.Errorf("longhand %s lost importance", d.Property)
		}
	}
}

func TestParser_ShorthandLonghands(t *testing.T) {
	sheet := parse(t, `p { margin: 1px 2px; color: red; padding: var(--p) }`)
	rule := topRules(sheet)[0]
	if len(rule.Declarations) != 3 {
		t.Fatalf("expected declarations as written, got %d", len(rule.Declarations))
	}
	var props []string
	for _, d := range rule.Longhands() {
		props = append(props, d.Property)
	}
	want := "margin-top margin-right margin-bottom margin-left color padding"
	if got := strings.Join(props, " "); got != want {
		t.Errorf("longhands = %q, want %q", got, want)
	}
}

func TestParser_CustomProperties(t *testing.T) {
	sheet := parse(t, `:root { --Main-Color: #06c; --gap: calc(1px + 2px) } .x { --local: { a } ; color: var(--Main-Color) }`)
	if len(sheet.Variables) != 2 {
		t.Fatalf("expected 2 variables, got %d: %+v", len(sheet.Variables), sheet.Variables)
	}
	v := sheet.Variables[0]
	if v.Name != "--Main-Color" || v.Value != "#06c" || v.Scope != ":root" {
		t.Errorf("unexpected variable %+v", v)
	}
	if sheet.Variables[1].Value != "calc(1px + 2px)" {
		t.Errorf("expected value kept verbatim, got %q", sheet.Variables[1].Value)
	}
	rule := sheet.RulesBySelector(".x")
	if len(rule) != 1 {
		t.Fatalf("expected .x rule")
	}
	d, _ := rule[0].GetProperty("color")
	if d.Value.Kind != css.KindUnresolved {
		t.Errorf("expected unresolved value, got %s", d.Value.Kind)
	}
}

func TestParser_Media(t *testing.T) {
	input := `
p { color: black }
@media screen and (max-width: 768px) {
  p { color: red }
  @media (orientation: landscape) {
    p { color: blue }
  }
}
`
	sheet := parse(t, input)
	if len(sheet.Rules) != 3 {
		t.Fatalf("expected 3 rules in total, got %d", len(sheet.Rules))
	}
	if len(topRules(sheet)) != 1 {
		t.Errorf("expected one top-level rule")
	}
	inner := sheet.Rules[2]
	if len(inner.Media) != 2 {
		t.Fatalf("expected 2 enclosing media lists, got %d", len(inner.Media))
	}
	if inner.SourceOrder != 2 {
		t.Errorf("expected source order 2, got %d", inner.SourceOrder)
	}
	landscape := css.MediaContext{Width: 700, Height: 400, Type: "screen"}
	portrait := css.MediaContext{Width: 700, Height: 900, Type: "screen"}
	if !inner.AppliesTo(landscape) || inner.AppliesTo(portrait) {
		t.Errorf("nested media not evaluated correctly")
	}
	if sheet.Stats.MediaBlocks != 2 {
		t.Errorf("expected 2 media blocks, got %d", sheet.Stats.MediaBlocks)
	}
}

func TestParser_MediaWidths(t *testing.T) {
	sheet := parse(t, `@media (max-width: 768px) { .nav { display: none } }`)
	rule := sheet.Rules[0]
	for _, tc := range []struct {
		width float64
		want  bool
	}{
		{320, true},
		{768, true},
		{769, false},
	} {
		if got := rule.AppliesTo(css.MediaContext{Width: tc.width, Height: 600}); got != tc.want {
			t.Errorf("width %v: applies = %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestParser_Keyframes(t *testing.T) {
	sheet := parse(t, `
@keyframes fade { from { opacity: 0 } 50%, 75% { opacity: .5 } to { opacity: 1 } }
@-webkit-keyframes "spin" { 0% { transform: rotate(0deg) } bogus { opacity: 1 } }
`)
	if len(sheet.Keyframes) != 2 {
		t.Fatalf("expected 2 keyframes, got %d", len(sheet.Keyframes))
	}
	fade := sheet.KeyframesByName("fade")
	if fade == nil || len(fade.Steps) != 3 {
		t.Fatalf("unexpected fade keyframes %+v", fade)
	}
	if got := fade.Steps[1].Offsets; len(got) != 2 || got[0] != 50 || got[1] != 75 {
		t.Errorf("unexpected offsets %v", got)
	}
	if fade.Steps[2].Offsets[0] != 100 {
		t.Errorf("expected 'to' to be 100%%")
	}
	spin := sheet.KeyframesByName("spin")
	if spin == nil || spin.Vendor != "-webkit-" || len(spin.Steps) != 1 {
		t.Fatalf("unexpected spin keyframes %+v", spin)
	}
	if n := sheet.Diagnostics.Count(css.MalformedSelector); n != 1 {
		t.Errorf("expected 1 MalformedSelector for bogus step, got %d", n)
	}
	if len(sheet.Rules) != 0 {
		t.Errorf("keyframe steps must not be style rules")
	}
}

func TestParser_ImportAndFontFace(t *testing.T) {
	opts := css.DefaultParseOptions()
	opts.BaseURL = "https://example.com/css/main.css"
	sheet := css.Parse(`
@charset "utf-8";
@import "reset.css";
@import url(print.css) print;
@font-face { font-family: "My Font"; src: url(fonts/my.woff2) format("woff2"); font-weight: 700 }
@page { margin: 1in }
`, opts)

	if len(sheet.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(sheet.Imports))
	}
	if got := sheet.Imports[0].Resolved; got != "https://example.com/css/reset.css" {
		t.Errorf("unexpected resolved import %q", got)
	}
	if sheet.Imports[1].URL != "print.css" || sheet.Imports[1].Media.String() != "print" {
		t.Errorf("unexpected second import %+v", sheet.Imports[1])
	}
	if len(sheet.FontFaces) != 1 {
		t.Fatalf("expected 1 font face, got %d", len(sheet.FontFaces))
	}
	ff := sheet.FontFaces[0]
	if ff.Family != "My Font" || ff.Weight != "700" || !strings.Contains(ff.Src, "fonts/my.woff2") {
		t.Errorf("unexpected font face %+v", ff)
	}
	if sheet.Stats.SkippedAtRules != 1 {
		t.Errorf("expected @page to be skipped, got %d skipped", sheet.Stats.SkippedAtRules)
	}
	if len(sheet.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", sheet.Diagnostics)
	}
}

func TestParser_ResourceLimitRules(t *testing.T) {
	var sb strings.Builder
	for i := range 2000 {
		fmt.Fprintf(&sb, ".r%d { width: %dpx }\n", i, i)
	}
	opts := css.DefaultParseOptions()
	opts.MaxRules = 1000
	sheet := css.Parse(sb.String(), opts)

	if len(sheet.Rules) != 1000 {
		t.Errorf("expected exactly 1000 rules, got %d", len(sheet.Rules))
	}
	if n := sheet.Diagnostics.Count(css.ResourceLimitExceeded); n != 1 {
		t.Errorf("expected 1 ResourceLimitExceeded diagnostic, got %d", n)
	}
	if !sheet.Stats.Truncated {
		t.Error("expected truncated stats")
	}
	if got := sheet.Rules[999].SelectorText(); got != ".r999" {
		t.Errorf("expected last rule .r999, got %q", got)
	}
}

func TestParser_ResourceLimitsOther(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  func(*css.ParseOptions)
		rules int
	}{
		{
			name:  "selectors",
			input: `a { color: red } b, c, d { color: red } e { color: red }`,
			opts:  func(o *css.ParseOptions) { o.MaxSelectorsPerRule = 2 },
			rules: 1,
		},
		{
			name:  "declarations",
			input: `a { color: red; width: 1px; height: 2px } b { color: red }`,
			opts:  func(o *css.ParseOptions) { o.MaxDeclarationsPerRule = 2 },
			rules: 1,
		},
		{
			name:  "nesting",
			input: `@media screen { @media print { a { color: red } } } b { color: red }`,
			opts:  func(o *css.ParseOptions) { o.MaxNestingDepth = 1 },
			rules: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := css.DefaultParseOptions()
			tc.opts(&opts)
			sheet := css.Parse(tc.input, opts)
			if len(sheet.Rules) != tc.rules {
				t.Errorf("expected %d rules, got %d", tc.rules, len(sheet.Rules))
			}
			if n := sheet.Diagnostics.Count(css.ResourceLimitExceeded); n != 1 {
				t.Errorf("expected 1 ResourceLimitExceeded diagnostic, got %d", n)
			}
		})
	}
}

func TestParser_DeclarationLimitKeepsPartialRule(t *testing.T) {
	opts := css.DefaultParseOptions()
	opts.MaxDeclarationsPerRule = 2
	sheet := css.Parse(`a { color: red; width: 1px; height: 2px }`, opts)
	if len(sheet.Rules) != 1 || len(sheet.Rules[0].Declarations) != 2 {
		t.Fatalf("expected a rule with 2 declarations, got %+v", sheet.Rules)
	}
}

func TestParser_InvalidValues(t *testing.T) {
	sheet := parse(t, `p { width: red; color: 12px; margin: 1px 2px 3px 4px 5px; height: -10px; opacity: 2 }`)
	rule := topRules(sheet)[0]
	if n := sheet.Diagnostics.Count(css.InvalidValue); n != 3 {
		t.Errorf("expected 3 InvalidValue diagnostics, got %d: %v", n, sheet.Diagnostics)
	}
	if len(rule.Declarations) != 5 {
		t.Fatalf("invalid declarations are kept, got %d", len(rule.Declarations))
	}
	if d, _ := rule.GetProperty("width"); d.Value.IsValid() {
		t.Errorf("expected invalid width value")
	}
	if d, _ := rule.GetProperty("height"); d.Value.Number != 0 {
		t.Errorf("expected negative height clamped to 0, got %v", d.Value.Number)
	}
	if d, _ := rule.GetProperty("opacity"); d.Value.Number != 1 {
		t.Errorf("expected opacity clamped to 1, got %v", d.Value.Number)
	}
}

func TestParser_HashAndDebugLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := css.NewParser(zap.New(core), css.DefaultParseOptions())
	a := p.Parse([]byte(`a { color: red }`), "a.css")
	b := p.Parse([]byte(`a { color: red }`))
	c := p.Parse([]byte(`a { color: blue }`))
	if a.Hash != b.Hash || a.Hash == c.Hash {
		t.Errorf("hash should depend on content only")
	}
	if logs.FilterMessage("Parsing CSS").FilterField(zap.String("source", "a.css")).Len() != 1 {
		t.Errorf("expected source to be logged")
	}
}

func TestParser_TimeBudget(t *testing.T) {
	opts := css.DefaultParseOptions()
	opts.TimeBudget = 1 // a nanosecond budget is exhausted right away
	var sb strings.Builder
	for i := range 100 {
		fmt.Fprintf(&sb, ".r%d { color: red }", i)
	}
	sheet := css.Parse(sb.String(), opts)
	if len(sheet.Rules) >= 100 {
		t.Errorf("expected parsing to stop early, got %d rules", len(sheet.Rules))
	}
	if n := sheet.Diagnostics.Count(css.ResourceLimitExceeded); n != 1 {
		t.Errorf("expected 1 ResourceLimitExceeded diagnostic, got %d", n)
	}
}

func TestParseInline(t *testing.T) {
	decls, diags := css.ParseInline(`color: red; border: 1px solid blue !important; bogus`)
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if !decls[1].Important {
		t.Errorf("expected border to be important")
	}
	if diags.Count(css.MalformedRule) != 1 {
		t.Errorf("expected one MalformedRule diagnostic, got %v", diags)
	}
	lh, _ := css.ExpandDeclarations(decls)
	if len(lh) != 1+12 {
		t.Errorf("expected color plus 12 border longhands, got %d", len(lh))
	}
}

func TestRewriteURLs(t *testing.T) {
	sheet := parse(t, `
@import "a.css";
@font-face { font-family: F; src: url(f.woff) }
p { background: url('img/x.png') no-repeat }
`)
	sheet.RewriteURLs(func(u string) string { return "https://cdn.example/" + u })

	if got := sheet.Imports[0].Resolved; got != "https://cdn.example/a.css" {
		t.Errorf("unexpected import %q", got)
	}
	out := sheet.String()
	for _, want := range []string{`url("https://cdn.example/f.woff")`, `url("https://cdn.example/img/x.png")`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output:\n%s", want, out)
		}
	}
	for _, d := range sheet.Rules[0].Longhands() {
		if d.Property == "background-image" && !strings.Contains(d.Raw, "cdn.example") {
			t.Errorf("longhands not refreshed: %q", d.Raw)
		}
	}
}
