package css_test

import (
	"errors"
	"math"
	"testing"

	"stylecore/css"
)

func TestParseValue_Lengths(t *testing.T) {
	tests := []struct {
		property string
		raw      string
		kind     css.ValueKind
		number   float64
		unit     string
	}{
		{"width", "10px", css.KindLength, 10, "px"},
		{"width", "1.5EM", css.KindLength, 1.5, "em"},
		{"width", "2rem", css.KindLength, 2, "rem"},
		{"width", "50%", css.KindPercentage, 50, "%"},
		{"width", "100vw", css.KindLength, 100, "vw"},
		{"height", "10vmin", css.KindLength, 10, "vmin"},
		{"width", "12pt", css.KindLength, 12, "pt"},
		{"width", "1in", css.KindLength, 1, "in"},
		{"width", "0", css.KindNumber, 0, ""},
		{"margin-left", "-5px", css.KindLength, -5, "px"},
		{"width", "-5px", css.KindLength, 0, "px"},
		{"padding-top", "-1em", css.KindLength, 0, "em"},
		{"line-height", "1.2", css.KindNumber, 1.2, ""},
		{"transition-duration", "250ms", css.KindTime, 250, "ms"},
	}
	for _, tc := range tests {
		v, err := css.ParseValue(tc.property, tc.raw)
		if err != nil {
			t.Errorf("%s: %q: unexpected error %v", tc.property, tc.raw, err)
			continue
		}
		if v.Kind != tc.kind || v.Number != tc.number || v.Unit != tc.unit {
			t.Errorf("%s: %q: got %s %v%s, want %s %v%s", tc.property, tc.raw, v.Kind, v.Number, v.Unit, tc.kind, tc.number, tc.unit)
		}
	}
}

func TestParseValue_Keywords(t *testing.T) {
	for _, tc := range []struct{ property, raw, keyword string }{
		{"width", "auto", "auto"},
		{"width", "AUTO", "auto"},
		{"color", "inherit", "inherit"},
		{"margin-top", "initial", "initial"},
		{"transform", "none", "none"},
		{"display", "none", "none"},
		{"anything-at-all", "unset", "unset"},
	} {
		v, err := css.ParseValue(tc.property, tc.raw)
		if err != nil {
			t.Errorf("%s: %q: %v", tc.property, tc.raw, err)
			continue
		}
		if !v.IsKeyword(tc.keyword) {
			t.Errorf("%s: %q: expected keyword %q, got %s %q", tc.property, tc.raw, tc.keyword, v.Kind, v.Raw)
		}
		if v.IsNumeric() {
			t.Errorf("%s: %q: keywords are not numeric", tc.property, tc.raw)
		}
	}
}

func TestParseValue_Errors(t *testing.T) {
	for _, tc := range []struct{ property, raw string }{
		{"width", ""},
		{"width", "red"},
		{"width", "10px 20px"},
		{"color", "12px"},
		{"color", "#12345"},
		{"color", "notacolor"},
		{"opacity", "10px"},
		{"width", "10furlongs"},
		{"transform", "rotate(10deg) 5px"},
		{"transform", "rotate(10deg"},
	} {
		_, err := css.ParseValue(tc.property, tc.raw)
		if err == nil {
			t.Errorf("%s: %q: expected error", tc.property, tc.raw)
			continue
		}
		if !errors.Is(err, css.ErrInvalidValue) {
			t.Errorf("%s: %q: error %v does not wrap ErrInvalidValue", tc.property, tc.raw, err)
		}
	}
}

func TestColorRoundTrip(t *testing.T) {
	want := css.NewColor(255, 0, 0, 1)
	for _, raw := range []string{"rgb(255, 0, 0)", "#ff0000", "#f00", "red", "RED", "rgb(255 0 0)", "rgba(300, -4, 0, 1.5)", "hsl(0, 100%, 50%)", "hsla(0, 100%, 50%, 1)"} {
		v, err := css.ParseValue("color", raw)
		if err != nil {
			t.Errorf("%q: %v", raw, err)
			continue
		}
		c, ok := v.AsColor()
		if !ok {
			t.Errorf("%q: expected a color, got %s", raw, v.Kind)
			continue
		}
		if c.R != want.R || c.G != want.G || c.B != want.B || c.A != want.A {
			t.Errorf("%q: got {%d,%d,%d,%v}, want {255,0,0,1}", raw, c.R, c.G, c.B, c.A)
		}
		if c.String() != "#ff0000" {
			t.Errorf("%q: hex %q", raw, c.String())
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		raw        string
		r, g, b    uint8
		a          float64
		hex        string
		wantErrNil bool
	}{
		{"#0000ff80", 0, 0, 255, 128.0 / 255, "#0000ff80", true},
		{"#abcd", 0xaa, 0xbb, 0xcc, float64(0xdd) / 255, "#aabbccdd", true},
		{"rgba(0, 128, 0, 0.5)", 0, 128, 0, 0.5, "#00800080", true},
		{"rgb(100% 0% 0% / 50%)", 255, 0, 0, 0.5, "#ff000080", true},
		{"transparent", 0, 0, 0, 0, "#00000000", true},
		{"rebeccapurple", 0x66, 0x33, 0x99, 1, "#663399", true},
		{"rgb(1, 2)", 0, 0, 0, 0, "", false},
		{"#ggg", 0, 0, 0, 0, "", false},
	}
	for _, tc := range tests {
		c, err := css.ParseColor(tc.raw)
		if (err == nil) != tc.wantErrNil {
			t.Errorf("%q: unexpected error state %v", tc.raw, err)
			continue
		}
		if err != nil {
			continue
		}
		if c.R != tc.r || c.G != tc.g || c.B != tc.b || math.Abs(c.A-tc.a) > 1e-9 {
			t.Errorf("%q: got {%d,%d,%d,%v}", tc.raw, c.R, c.G, c.B, c.A)
		}
		if c.Hex != tc.hex {
			t.Errorf("%q: hex %q, want %q", tc.raw, c.Hex, tc.hex)
		}
	}
}

func TestParseValue_Transforms(t *testing.T) {
	v, err := css.ParseValue("transform", "translateX(10px) rotate(45deg) scale(1.2) wobble(3)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != css.KindTransformList {
		t.Fatalf("expected transform list, got %s", v.Kind)
	}
	want := []struct {
		name  string
		known bool
	}{{"translatex", true}, {"rotate", true}, {"scale", true}, {"wobble", false}}
	if len(v.Funcs) != len(want) {
		t.Fatalf("expected %d functions, got %d", len(want), len(v.Funcs))
	}
	for i, w := range want {
		f := v.Funcs[i]
		if f.Name != w.name || f.Known != w.known {
			t.Errorf("func %d: got %s known=%v, want %s known=%v", i, f.Name, f.Known, w.name, w.known)
		}
	}
	if arg := v.Funcs[0].Args[0]; arg.Kind != css.KindLength || arg.Number != 10 {
		t.Errorf("unexpected translateX argument %+v", arg)
	}
	if deg, ok := v.Funcs[1].Args[0].Degrees(); !ok || deg != 45 {
		t.Errorf("unexpected rotate argument %v", deg)
	}
}

func TestParseValue_Filters(t *testing.T) {
	v, err := css.ParseValue("filter", "blur(2px) drop-shadow(1px 1px 2px black) url(#f)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != css.KindFilterList || len(v.Funcs) != 3 {
		t.Fatalf("unexpected filter value %+v", v)
	}
	if v.Funcs[2].Name != "url" || v.Funcs[2].Args[0].Str != "#f" {
		t.Errorf("unexpected url filter %+v", v.Funcs[2])
	}
}

func TestParseValue_VarIsUnresolved(t *testing.T) {
	v, err := css.ParseValue("width", "calc(var(--w) * 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != css.KindUnresolved || v.Raw != "calc(var(--w) * 2)" {
		t.Errorf("unexpected value %+v", v)
	}
}

func TestParseValue_ListsAndOpacity(t *testing.T) {
	v, err := css.ParseValue("font-family", `"Helvetica Neue", Arial, sans-serif`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != css.KindList || !v.Comma || len(v.Items()) != 3 {
		t.Fatalf("unexpected list %+v", v)
	}
	if v.List[0].Kind != css.KindString || v.List[0].Str != "Helvetica Neue" {
		t.Errorf("unexpected first family %+v", v.List[0])
	}

	for raw, want := range map[string]float64{"0.5": 0.5, "50%": 0.5, "-1": 0, "3": 1} {
		v, err := css.ParseValue("opacity", raw)
		if err != nil {
			t.Errorf("opacity %q: %v", raw, err)
			continue
		}
		if v.Kind != css.KindNumber || v.Number != want {
			t.Errorf("opacity %q: got %v, want %v", raw, v.Number, want)
		}
	}
}

func TestToPx(t *testing.T) {
	ctx := css.LengthContext{FontSize: 20, RootFontSize: 16, ViewportWidth: 1000, ViewportHeight: 500}
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"10px", 10, true},
		{"2em", 40, true},
		{"2rem", 32, true},
		{"10vw", 100, true},
		{"10vh", 50, true},
		{"10vmin", 50, true},
		{"10vmax", 100, true},
		{"1in", 96, true},
		{"72pt", 96, true},
		{"6pc", 96, true},
		{"2.54cm", 96, true},
		{"0", 0, true},
		{"50%", 0, false},
	}
	for _, tc := range tests {
		v, err := css.ParseValue("margin-left", tc.raw)
		if err != nil {
			t.Fatalf("%q: %v", tc.raw, err)
		}
		got, ok := v.ToPx(ctx)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%q: got %v %v, want %v %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}

	pct, _ := css.ParseValue("width", "25%")
	ctx.PercentBase, ctx.HasPercentBase = 400, true
	if got, ok := pct.ToPx(ctx); !ok || got != 100 {
		t.Errorf("25%% of 400: got %v %v", got, ok)
	}
}

func TestProperties(t *testing.T) {
	if !css.Inherited("color") || !css.Inherited("font-family") || css.Inherited("margin-top") {
		t.Error("unexpected inheritance table")
	}
	if !css.Inherited("--anything") {
		t.Error("custom properties always inherit")
	}
	if css.InitialValue("display") != "inline" {
		t.Errorf("unexpected display initial %q", css.InitialValue("display"))
	}
	if !css.NonNegative("width") || css.NonNegative("margin-top") {
		t.Error("unexpected non-negative table")
	}
	if n, ok := css.FontSizeKeyword("medium"); !ok || n != 16 {
		t.Errorf("unexpected medium font size %v", n)
	}
	if n, ok := css.BorderWidthKeyword("thick"); !ok || n != 5 {
		t.Errorf("unexpected thick border width %v", n)
	}
	props := css.Properties()
	for i := 1; i < len(props); i++ {
		if props[i-1] >= props[i] {
			t.Fatalf("properties not sorted at %q", props[i])
		}
	}
}
