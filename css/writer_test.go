package css_test

import (
	"encoding/json"
	"strings"
	"testing"
)

const roundTripCSS = `
@charset "utf-8";
@import url("base.css") screen;
/* comment */
:root { --accent: #06c; --pad: 4px }
html, body { margin: 0; padding: 0 }
#nav > li.item:not(.hidden) a[href$=".pdf"]::after { content: "(pdf)"; color: var(--accent) !important }
p{font:italic 12px/1.5 "Helvetica Neue",serif;border:1px solid rgba(0,0,0,.5)}
@media screen and (max-width: 768px) {
  .nav { display: none }
  @media (orientation: landscape) { .nav { display: block } }
}
@keyframes pulse { from { opacity: 0 } 50% { opacity: .5 } to { opacity: 1 } }
@font-face { font-family: "Body"; src: url(body.woff2) format("woff2") }
`

func TestWriter_RoundTrip(t *testing.T) {
	first := parse(t, roundTripCSS)
	if len(first.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", first.Diagnostics)
	}
	text := first.String()
	second := parse(t, text)
	if len(second.Diagnostics) != 0 {
		t.Fatalf("re-parse produced diagnostics: %v\n%s", second.Diagnostics, text)
	}

	if len(first.Rules) != len(second.Rules) {
		t.Fatalf("rule count changed: %d -> %d", len(first.Rules), len(second.Rules))
	}
	for i, r1 := range first.Rules {
		r2 := second.Rules[i]
		if r1.SelectorText() != r2.SelectorText() {
			t.Errorf("rule %d: selectors %q -> %q", i, r1.SelectorText(), r2.SelectorText())
		}
		for j, s := range r1.Selectors {
			if s.Specificity != r2.Selectors[j].Specificity {
				t.Errorf("rule %d: specificity of %q changed", i, s.Raw)
			}
		}
		if len(r1.Declarations) != len(r2.Declarations) {
			t.Errorf("rule %d: declaration count changed", i)
			continue
		}
		for j, d := range r1.Declarations {
			d2 := r2.Declarations[j]
			if d.Property != d2.Property || d.Raw != d2.Raw || d.Important != d2.Important {
				t.Errorf("rule %d: declaration %+v -> %+v", i, d, d2)
			}
		}
		if len(r1.Media) != len(r2.Media) {
			t.Errorf("rule %d: media nesting changed", i)
		}
	}
	if len(second.Keyframes) != 1 || len(second.Keyframes[0].Steps) != 3 {
		t.Errorf("keyframes lost in round trip")
	}
	if len(second.Imports) != 1 || second.Imports[0].Media.String() != "screen" {
		t.Errorf("import lost in round trip: %+v", second.Imports)
	}
	if len(second.FontFaces) != 1 || second.FontFaces[0].Family != "Body" {
		t.Errorf("font face lost in round trip")
	}
	if len(second.Variables) != len(first.Variables) {
		t.Errorf("variables lost in round trip")
	}

	// serialization is a fixed point after the first pass
	if again := second.String(); again != text {
		t.Errorf("serialization not stable:\n%s\n---\n%s", text, again)
	}
}

func TestWriter_Format(t *testing.T) {
	sheet := parse(t, `a{color:red!important;margin:0}@media print{a{color:black}}`)
	want := "a {\n  color: red !important;\n  margin: 0;\n}\n\n@media print {\n  a {\n    color: black;\n  }\n}\n"
	if got := sheet.String(); got != want {
		t.Errorf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestStylesheet_JSON(t *testing.T) {
	sheet := parse(t, `#a .b { color: red } @media (max-width: 10px) { p { width: -1px } }`)
	data, err := json.Marshal(sheet)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"selector":"#a .b"`,
		`"specificity":[1,1,0]`,
		`"queries":"(max-width: 10px)"`,
		`"origin":"author"`,
		`"kind":"color"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}
