package css_test

import (
	"errors"
	"strings"
	"testing"

	"stylecore/css"
)

func longhandString(lhs []css.Longhand) string {
	parts := make([]string, len(lhs))
	for i, lh := range lhs {
		parts[i] = lh.Property + "=" + lh.Raw
	}
	return strings.Join(parts, "; ")
}

func TestExpandShorthand(t *testing.T) {
	tests := []struct {
		property string
		raw      string
		want     string
	}{
		{"margin", "1px", "margin-top=1px; margin-right=1px; margin-bottom=1px; margin-left=1px"},
		{"margin", "1px 2px", "margin-top=1px; margin-right=2px; margin-bottom=1px; margin-left=2px"},
		{"margin", "1px 2px 3px", "margin-top=1px; margin-right=2px; margin-bottom=3px; margin-left=2px"},
		{"padding", "1px 2px 3px 4px", "padding-top=1px; padding-right=2px; padding-bottom=3px; padding-left=4px"},
		{"margin", "inherit", "margin-top=inherit; margin-right=inherit; margin-bottom=inherit; margin-left=inherit"},
		{"inset", "0 auto", "top=0; right=auto; bottom=0; left=auto"},
		{"border-color", "red blue", "border-top-color=red; border-right-color=blue; border-bottom-color=red; border-left-color=blue"},
		{"border-top", "2px dashed #f00", "border-top-width=2px; border-top-style=dashed; border-top-color=#f00"},
		{"border-left", "solid", "border-left-width=medium; border-left-style=solid; border-left-color=currentcolor"},
		{"outline", "thick red dotted", "outline-width=thick; outline-style=dotted; outline-color=red"},
		{"gap", "10px 20px", "row-gap=10px; column-gap=20px"},
		{"overflow", "hidden", "overflow-x=hidden; overflow-y=hidden"},
		{"border-radius", "4px 8px / 2px", "border-top-left-radius=4px 2px; border-top-right-radius=8px 2px; border-bottom-right-radius=4px 2px; border-bottom-left-radius=8px 2px"},
		{"text-decoration", "underline wavy red", "text-decoration-line=underline; text-decoration-style=wavy; text-decoration-color=red"},
		{"font", "italic bold 12px/1.5 \"Helvetica Neue\", serif",
			`font-style=italic; font-variant=normal; font-weight=bold; font-stretch=normal; font-size=12px; line-height=1.5; font-family="Helvetica Neue", serif`},
		{"font", "700 larger monospace",
			"font-style=normal; font-variant=normal; font-weight=700; font-stretch=normal; font-size=larger; line-height=normal; font-family=monospace"},
	}
	for _, tc := range tests {
		lhs, err := css.ExpandShorthand(tc.property, tc.raw)
		if err != nil {
			t.Errorf("%s: %q: unexpected error %v", tc.property, tc.raw, err)
			continue
		}
		if got := longhandString(lhs); got != tc.want {
			t.Errorf("%s: %q:\n got %s\nwant %s", tc.property, tc.raw, got, tc.want)
		}
	}
}

func TestExpandShorthand_Border(t *testing.T) {
	lhs, err := css.ExpandShorthand("border", "1px solid blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lhs) != 12 {
		t.Fatalf("expected 12 longhands, got %d", len(lhs))
	}
	for _, lh := range lhs {
		switch {
		case strings.HasSuffix(lh.Property, "-width") && lh.Raw != "1px",
			strings.HasSuffix(lh.Property, "-style") && lh.Raw != "solid",
			strings.HasSuffix(lh.Property, "-color") && lh.Raw != "blue":
			t.Errorf("unexpected %s=%s", lh.Property, lh.Raw)
		}
	}
}

func TestExpandShorthand_Background(t *testing.T) {
	lhs, err := css.ExpandShorthand("background", `url(a.png) no-repeat 10px 20px / cover, linear-gradient(red, blue) fixed #eee`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := map[string]string{}
	for _, lh := range lhs {
		got[lh.Property] = lh.Raw
	}
	want := map[string]string{
		"background-color":      "#eee",
		"background-image":      "url(a.png), linear-gradient(red, blue)",
		"background-repeat":     "no-repeat, repeat",
		"background-position":   "10px 20px, 0% 0%",
		"background-size":       "cover, auto",
		"background-attachment": "scroll, fixed",
	}
	for p, w := range want {
		if got[p] != w {
			t.Errorf("%s = %q, want %q", p, got[p], w)
		}
	}

	lhs, err = css.ExpandShorthand("background", "red")
	if err != nil || lhs[0].Raw != "red" || lhs[1].Raw != "none" {
		t.Errorf("unexpected color only background %v %v", lhs, err)
	}
}

func TestExpandShorthand_Errors(t *testing.T) {
	for _, tc := range []struct{ property, raw string }{
		{"margin", "1px 2px 3px 4px 5px"},
		{"margin", ""},
		{"border", "solid solid solid"},
		{"gap", "1px 2px 3px"},
		{"font", "bold"},
		{"font", "12px"},
		{"background", "red, url(a.png)"},
		{"text-decoration", "underline 10px"},
		{"border-radius", "1px / 2px / 3px"},
	} {
		_, err := css.ExpandShorthand(tc.property, tc.raw)
		if err == nil {
			t.Errorf("%s: %q: expected error", tc.property, tc.raw)
			continue
		}
		if !errors.Is(err, css.ErrInvalidValue) {
			t.Errorf("%s: %q: %v does not wrap ErrInvalidValue", tc.property, tc.raw, err)
		}
	}
	if _, err := css.ExpandShorthand("color", "red"); err == nil {
		t.Error("color is not a shorthand")
	}
}

func TestShorthandTables(t *testing.T) {
	if !css.IsShorthand("margin") || css.IsShorthand("margin-top") || css.IsShorthand("flex") {
		t.Error("unexpected shorthand table")
	}
	if got := css.ShorthandLonghands("gap"); len(got) != 2 || got[0] != "row-gap" {
		t.Errorf("unexpected gap longhands %v", got)
	}
}
