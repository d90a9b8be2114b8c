package css

import (
	"fmt"
	"strings"
)

// Longhand is a single property produced by shorthand expansion.
type Longhand struct {
	Property string
	Raw      string
}

type expander func(comps [][]token, toks []token) ([]Longhand, error)

var (
	sides       = [4]string{"top", "right", "bottom", "left"}
	corners     = [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}
	borderSides = []string{"border-top", "border-right", "border-bottom", "border-left"}
)

func sideNames(format string) [4]string {
	var names [4]string
	for i, s := range sides {
		names[i] = fmt.Sprintf(format, s)
	}
	return names
}

// shorthandLonghands lists longhands of every supported shorthand in order.
var shorthandLonghands = map[string][]string{}

var shorthands = map[string]expander{}

func registerShorthand(name string, longhands []string, fn expander) {
	shorthands[name] = fn
	shorthandLonghands[name] = longhands
}

func init() {
	for _, box := range []struct{ name, format string }{
		{"margin", "margin-%s"},
		{"padding", "padding-%s"},
		{"inset", "%s"},
		{"border-width", "border-%s-width"},
		{"border-style", "border-%s-style"},
		{"border-color", "border-%s-color"},
	} {
		names := sideNames(box.format)
		registerShorthand(box.name, names[:], func(comps [][]token, _ []token) ([]Longhand, error) {
			return expandBox(names, comps)
		})
	}

	var radii []string
	for _, c := range corners {
		radii = append(radii, "border-"+c+"-radius")
	}
	registerShorthand("border-radius", radii, expandRadius)

	var all []string
	for _, side := range borderSides {
		names := []string{side + "-width", side + "-style", side + "-color"}
		all = append(all, names...)
		registerShorthand(side, names, func(comps [][]token, _ []token) ([]Longhand, error) {
			return expandBorderLike(side, comps)
		})
	}
	registerShorthand("border", all, func(comps [][]token, _ []token) ([]Longhand, error) {
		var out []Longhand
		for _, side := range borderSides {
			lh, err := expandBorderLike(side, comps)
			if err != nil {
				return nil, err
			}
			out = append(out, lh...)
		}
		return out, nil
	})
	registerShorthand("outline", []string{"outline-width", "outline-style", "outline-color"},
		func(comps [][]token, _ []token) ([]Longhand, error) {
			return expandBorderLike("outline", comps)
		})

	registerShorthand("gap", []string{"row-gap", "column-gap"}, func(comps [][]token, _ []token) ([]Longhand, error) {
		return expandPair("row-gap", "column-gap", comps)
	})
	registerShorthand("overflow", []string{"overflow-x", "overflow-y"}, func(comps [][]token, _ []token) ([]Longhand, error) {
		return expandPair("overflow-x", "overflow-y", comps)
	})

	registerShorthand("background", []string{
		"background-color", "background-image", "background-repeat",
		"background-position", "background-size", "background-attachment",
	}, expandBackground)
	registerShorthand("font", []string{
		"font-style", "font-variant", "font-weight", "font-stretch",
		"font-size", "line-height", "font-family",
	}, expandFont)
	registerShorthand("text-decoration", []string{
		"text-decoration-line", "text-decoration-style", "text-decoration-color",
	}, expandTextDecoration)
}

// IsShorthand reports whether p expands into longhands.
func IsShorthand(p string) bool {
	_, ok := shorthands[p]
	return ok
}

// ShorthandLonghands returns the longhands a shorthand expands into.
func ShorthandLonghands(p string) []string {
	return shorthandLonghands[p]
}

// ExpandShorthand splits a shorthand declaration into longhand declarations.
// CSS-wide keywords apply to every longhand; omitted parts get their initial
// value. The raw value must not contain var() references.
func ExpandShorthand(property, raw string) ([]Longhand, error) {
	property = strings.ToLower(property)
	fn, ok := shorthands[property]
	if !ok {
		return nil, fmt.Errorf("%s is not a shorthand", property)
	}
	toks := trimSpace(tokenize(raw))
	if len(toks) == 0 {
		return nil, fmt.Errorf("%s: empty value: %w", property, ErrInvalidValue)
	}
	if len(toks) == 1 && globalKeywords[strings.ToLower(toks[0].data)] {
		kw := strings.ToLower(toks[0].data)
		var out []Longhand
		for _, lh := range shorthandLonghands[property] {
			out = append(out, Longhand{Property: lh, Raw: kw})
		}
		return out, nil
	}
	out, err := fn(components(toks), toks)
	if err != nil {
		return nil, fmt.Errorf("%s: %q: %w", property, raw, err)
	}
	return out, nil
}

func expandBox(names [4]string, comps [][]token) ([]Longhand, error) {
	if len(comps) < 1 || len(comps) > 4 {
		return nil, fmt.Errorf("1 to 4 values expected: %w", ErrInvalidValue)
	}
	v := make([]string, 4)
	for i, c := range comps {
		v[i] = joinTokens(c)
	}
	if len(comps) < 2 {
		v[1] = v[0]
	}
	if len(comps) < 3 {
		v[2] = v[0]
	}
	if len(comps) < 4 {
		v[3] = v[1]
	}
	out := make([]Longhand, 4)
	for i := range names {
		out[i] = Longhand{Property: names[i], Raw: v[i]}
	}
	return out, nil
}

func expandRadius(comps [][]token, _ []token) ([]Longhand, error) {
	var horiz, vert [][]token
	slash := false
	for _, c := range comps {
		if len(c) == 1 && c[0].isDelim('/') {
			if slash {
				return nil, fmt.Errorf("more than one '/': %w", ErrInvalidValue)
			}
			slash = true
			continue
		}
		if slash {
			vert = append(vert, c)
		} else {
			horiz = append(horiz, c)
		}
	}
	names := [4]string{}
	for i, c := range corners {
		names[i] = "border-" + c + "-radius"
	}
	out, err := expandBox(names, horiz)
	if err != nil || !slash {
		return out, err
	}
	v, err := expandBox(names, vert)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Raw += " " + v[i].Raw
	}
	return out, nil
}

func expandPair(first, second string, comps [][]token) ([]Longhand, error) {
	switch len(comps) {
	case 1:
		v := joinTokens(comps[0])
		return []Longhand{{first, v}, {second, v}}, nil
	case 2:
		return []Longhand{{first, joinTokens(comps[0])}, {second, joinTokens(comps[1])}}, nil
	}
	return nil, fmt.Errorf("1 or 2 values expected: %w", ErrInvalidValue)
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// looksLikeWidth reports whether a component is a border or outline width.
func looksLikeWidth(c []token) bool {
	v, err := parseComponent(c)
	if err != nil {
		return false
	}
	switch v.Kind {
	case KindLength, KindFunction:
		return true
	case KindNumber:
		return v.Number == 0
	case KindKeyword:
		_, ok := borderWidthKeywords[v.Keyword]
		return ok
	}
	return false
}

func expandBorderLike(prefix string, comps [][]token) ([]Longhand, error) {
	if len(comps) == 0 || len(comps) > 3 {
		return nil, fmt.Errorf("1 to 3 values expected: %w", ErrInvalidValue)
	}
	var width, style, color string
	for _, c := range comps {
		text := joinTokens(c)
		switch {
		case len(c) == 1 && borderStyles[strings.ToLower(text)] && style == "":
			style = strings.ToLower(text)
		case looksLikeWidth(c) && width == "":
			width = text
		case color == "":
			color = text
		default:
			return nil, fmt.Errorf("duplicate component %q: %w", text, ErrInvalidValue)
		}
	}
	if width == "" {
		width = "medium"
	}
	if style == "" {
		style = "none"
	}
	if color == "" {
		color = "currentcolor"
	}
	return []Longhand{
		{prefix + "-width", width},
		{prefix + "-style", style},
		{prefix + "-color", color},
	}, nil
}

var (
	repeatKeywords     = map[string]bool{"repeat": true, "no-repeat": true, "repeat-x": true, "repeat-y": true, "space": true, "round": true}
	attachmentKeywords = map[string]bool{"scroll": true, "fixed": true, "local": true}
	imageFunctions     = map[string]bool{
		"linear-gradient": true, "radial-gradient": true, "conic-gradient": true,
		"repeating-linear-gradient": true, "repeating-radial-gradient": true,
		"repeating-conic-gradient": true, "image-set": true, "image": true, "cross-fade": true,
	}
)

func isColorComponent(c []token) bool {
	v, err := parseComponent(c)
	if err != nil {
		return false
	}
	if v.Kind == KindColor || v.IsKeyword("currentcolor") {
		return true
	}
	_, ok := v.AsColor()
	return ok
}

// expandBackground splits comma separated layers. Only the final layer may
// carry a color.
func expandBackground(_ [][]token, toks []token) ([]Longhand, error) {
	layers := splitTopLevel(toks)
	var images, repeats, positions, sizes, attachments []string
	color := "transparent"

	for i, layer := range layers {
		var image, repeat, attachment string
		var position, size []string
		inSize := false
		for _, c := range components(trimSpace(layer)) {
			text := joinTokens(c)
			lower := strings.ToLower(text)
			switch {
			case len(c) == 1 && c[0].isDelim('/'):
				if inSize || len(position) == 0 {
					return nil, fmt.Errorf("misplaced '/': %w", ErrInvalidValue)
				}
				inSize = true
			case inSize:
				size = append(size, text)
			case image == "" && (lower == "none" || strings.HasPrefix(lower, "url(") || imageFunctions[strings.ToLower(strings.TrimSuffix(c[0].data, "("))]):
				image = text
			case repeatKeywords[lower]:
				repeat = strings.TrimSpace(repeat + " " + lower)
			case attachmentKeywords[lower] && attachment == "":
				attachment = lower
			case isColorComponent(c):
				if i != len(layers)-1 {
					return nil, fmt.Errorf("color in a non-final layer: %w", ErrInvalidValue)
				}
				color = text
			default:
				position = append(position, text)
			}
		}
		images = append(images, or(image, "none"))
		repeats = append(repeats, or(repeat, "repeat"))
		positions = append(positions, or(strings.Join(position, " "), "0% 0%"))
		sizes = append(sizes, or(strings.Join(size, " "), "auto"))
		attachments = append(attachments, or(attachment, "scroll"))
	}
	return []Longhand{
		{"background-color", color},
		{"background-image", strings.Join(images, ", ")},
		{"background-repeat", strings.Join(repeats, ", ")},
		{"background-position", strings.Join(positions, ", ")},
		{"background-size", strings.Join(sizes, ", ")},
		{"background-attachment", strings.Join(attachments, ", ")},
	}, nil
}

var (
	fontStyles   = map[string]bool{"italic": true, "oblique": true}
	fontVariants = map[string]bool{"small-caps": true}
	fontWeights  = map[string]bool{"bold": true, "bolder": true, "lighter": true}
	fontStretch  = map[string]bool{
		"ultra-condensed": true, "extra-condensed": true, "condensed": true, "semi-condensed": true,
		"semi-expanded": true, "expanded": true, "extra-expanded": true, "ultra-expanded": true,
	}
)

// expandFont handles [style || variant || weight || stretch]? size[/line-height] family.
func expandFont(comps [][]token, _ []token) ([]Longhand, error) {
	style, variant, weight, stretch := "normal", "normal", "normal", "normal"
	i := 0
prefix:
	for ; i < len(comps); i++ {
		c := comps[i]
		if len(c) != 1 {
			break prefix
		}
		lower := strings.ToLower(c[0].data)
		switch {
		case lower == "normal":
		case fontStyles[lower]:
			style = lower
		case fontVariants[lower]:
			variant = lower
		case fontWeights[lower]:
			weight = lower
		case fontStretch[lower]:
			stretch = lower
		default:
			if v, err := parseComponent(c); err == nil && v.Kind == KindNumber && v.Number >= 1 && v.Number <= 1000 {
				weight = c[0].data
				continue
			}
			break prefix
		}
	}
	if i >= len(comps) {
		return nil, fmt.Errorf("font size missing: %w", ErrInvalidValue)
	}
	size := joinTokens(comps[i])
	if v, err := parseComponent(comps[i]); err != nil ||
		!(v.Kind == KindLength || v.Kind == KindPercentage || v.Kind == KindFunction ||
			(v.Kind == KindKeyword && (fontSizeKeywords[v.Keyword] > 0 || v.Keyword == "smaller" || v.Keyword == "larger"))) {
		return nil, fmt.Errorf("invalid font size %q: %w", size, ErrInvalidValue)
	}
	i++
	lineHeight := "normal"
	if i+1 < len(comps) && len(comps[i]) == 1 && comps[i][0].isDelim('/') {
		lineHeight = joinTokens(comps[i+1])
		i += 2
	}
	if i >= len(comps) {
		return nil, fmt.Errorf("font family missing: %w", ErrInvalidValue)
	}
	var family []string
	for _, c := range comps[i:] {
		family = append(family, joinTokens(c))
	}
	return []Longhand{
		{"font-style", style},
		{"font-variant", variant},
		{"font-weight", weight},
		{"font-stretch", stretch},
		{"font-size", size},
		{"line-height", lineHeight},
		{"font-family", strings.ReplaceAll(strings.Join(family, " "), " ,", ",")},
	}, nil
}

var (
	decorationLines  = map[string]bool{"none": true, "underline": true, "overline": true, "line-through": true, "blink": true}
	decorationStyles = map[string]bool{"solid": true, "double": true, "dotted": true, "dashed": true, "wavy": true}
)

func expandTextDecoration(comps [][]token, _ []token) ([]Longhand, error) {
	var lines []string
	style, color := "solid", "currentcolor"
	for _, c := range comps {
		text := joinTokens(c)
		lower := strings.ToLower(text)
		switch {
		case decorationLines[lower]:
			lines = append(lines, lower)
		case decorationStyles[lower]:
			style = lower
		case isColorComponent(c):
			color = text
		default:
			return nil, fmt.Errorf("unexpected %q: %w", text, ErrInvalidValue)
		}
	}
	return []Longhand{
		{"text-decoration-line", or(strings.Join(lines, " "), "none")},
		{"text-decoration-style", style},
		{"text-decoration-color", color},
	}, nil
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
