package css

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindKeyword
	KindNumber
	KindLength
	KindPercentage
	KindAngle
	KindTime
	KindResolution
	KindColor
	KindString
	KindURL
	KindFunction
	KindTransformList
	KindFilterList
	KindList
	KindUnresolved // contains var() references, parsed after substitution
)

var valueKindNames = [...]string{
	KindInvalid:       "invalid",
	KindKeyword:       "keyword",
	KindNumber:        "number",
	KindLength:        "length",
	KindPercentage:    "percentage",
	KindAngle:         "angle",
	KindTime:          "time",
	KindResolution:    "resolution",
	KindColor:         "color",
	KindString:        "string",
	KindURL:           "url",
	KindFunction:      "function",
	KindTransformList: "transform-list",
	KindFilterList:    "filter-list",
	KindList:          "list",
	KindUnresolved:    "unresolved",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is a parsed CSS value. Kind selects which of the other fields are
// meaningful; Raw always holds the normalized source text.
type Value struct {
	Kind    ValueKind `json:"kind"`
	Raw     string    `json:"raw"`
	Keyword string    `json:"keyword,omitempty"` // KindKeyword, lower-cased
	Number  float64   `json:"number,omitempty"`  // numeric kinds
	Unit    string    `json:"unit,omitempty"`    // lower-cased unit, "%" for percentages
	Color   Color     `json:"color,omitzero"`    // KindColor
	Str     string    `json:"str,omitempty"`     // KindString contents, KindURL target
	Funcs   []Func    `json:"funcs,omitempty"`   // KindFunction (single entry), transform and filter lists
	List    []Value   `json:"list,omitempty"`    // KindList items
	Comma   bool      `json:"comma,omitempty"`   // list items are comma separated
}

// Func is a function call inside a value. Unknown functions are kept with
// Known set to false.
type Func struct {
	Name  string  `json:"name"`
	Args  []Value `json:"args,omitempty"`
	Known bool    `json:"known"`
}

// Keyword returns a keyword value.
func Keyword(kw string) Value {
	kw = strings.ToLower(kw)
	return Value{Kind: KindKeyword, Raw: kw, Keyword: kw}
}

// Px returns a length in px.
func Px(n float64) Value {
	return Value{Kind: KindLength, Raw: formatNumber(n) + "px", Number: n, Unit: "px"}
}

// Number returns a unitless number.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Raw: formatNumber(n), Number: n}
}

// ColorValue wraps a color.
func ColorValue(c Color) Value {
	return Value{Kind: KindColor, Raw: c.String(), Color: c}
}

// IsValid reports whether the value holds anything.
func (v Value) IsValid() bool {
	return v.Kind != KindInvalid
}

// IsKeyword reports whether the value is a keyword, and when names are given,
// one of them.
func (v Value) IsKeyword(names ...string) bool {
	if v.Kind != KindKeyword {
		return false
	}
	return len(names) == 0 || slices.Contains(names, v.Keyword)
}

// IsGlobal reports whether the value is one of the CSS-wide keywords.
func (v Value) IsGlobal() bool {
	return v.Kind == KindKeyword && globalKeywords[v.Keyword]
}

// IsNumeric reports whether the value has a numeric component.
func (v Value) IsNumeric() bool {
	switch v.Kind {
	case KindNumber, KindLength, KindPercentage, KindAngle, KindTime, KindResolution:
		return true
	}
	return false
}

// Items returns list items, or the value itself for single values.
func (v Value) Items() []Value {
	switch v.Kind {
	case KindList:
		return v.List
	case KindInvalid:
		return nil
	}
	return []Value{v}
}

// AsColor returns the color held by the value. Named color keywords are
// resolved, currentcolor is not.
func (v Value) AsColor() (Color, bool) {
	switch v.Kind {
	case KindColor:
		return v.Color, true
	case KindKeyword:
		if v.Keyword == "currentcolor" {
			return Color{}, false
		}
		c, err := ParseColor(v.Keyword)
		return c, err == nil
	}
	return Color{}, false
}

func (v Value) String() string {
	return v.Raw
}

// HasVar reports whether raw value text references custom properties.
func HasVar(raw string) bool {
	return strings.Contains(strings.ToLower(raw), "var(")
}

// ParseValue parses raw value text of a property into a typed Value. It has
// no hidden state. Errors wrap ErrInvalidValue. Values referencing custom
// properties come back as KindUnresolved, to be parsed again after
// substitution.
func ParseValue(property, raw string) (Value, error) {
	property = strings.ToLower(strings.TrimSpace(property))
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}, fmt.Errorf("%s: empty value: %w", property, ErrInvalidValue)
	}
	if HasVar(raw) {
		return Value{Kind: KindUnresolved, Raw: raw}, nil
	}
	toks := trimSpace(tokenize(raw))
	if len(toks) == 1 && toks[0].is(css.IdentToken) && globalKeywords[strings.ToLower(toks[0].data)] {
		return Keyword(toks[0].data), nil
	}
	if IsCustomProperty(property) {
		v, err := parseComponents(toks)
		if err != nil {
			// arbitrary token soup is allowed in custom properties
			return Value{Kind: KindKeyword, Raw: raw, Keyword: raw}, nil
		}
		return v, nil
	}

	var (
		v   Value
		err error
	)
	switch property {
	case "transform":
		v, err = parseFuncListValue(toks, KindTransformList, knownTransforms)
	case "filter", "backdrop-filter":
		v, err = parseFuncListValue(toks, KindFilterList, knownFilters)
	default:
		v, err = parseComponents(toks)
	}
	if err != nil {
		return Value{}, fmt.Errorf("%s: %q: %w", property, raw, err)
	}
	if v, err = checkValue(property, v); err != nil {
		return Value{}, fmt.Errorf("%s: %q: %w", property, raw, err)
	}
	return v, nil
}

// checkValue validates a value against the property table and applies
// per-property clamping.
func checkValue(property string, v Value) (Value, error) {
	info, ok := properties[property]
	if !ok || v.IsGlobal() {
		return v, nil
	}
	keywordOK := v.Kind == KindKeyword && slices.Contains(info.keywords, v.Keyword)

	switch info.kind {
	case typeColor:
		switch {
		case v.Kind == KindColor, keywordOK, v.IsKeyword("currentcolor"):
		case v.Kind == KindKeyword:
			c, err := ParseColor(v.Keyword)
			if err != nil {
				return Value{}, err
			}
			v = Value{Kind: KindColor, Raw: v.Raw, Color: c}
		default:
			return Value{}, fmt.Errorf("color expected, got %s: %w", v.Kind, ErrInvalidValue)
		}
	case typeLength:
		switch {
		case v.Kind == KindLength, v.Kind == KindPercentage, v.Kind == KindFunction, keywordOK:
		case v.Kind == KindNumber && (v.Number == 0 || unitlessNumbers[property]):
		default:
			return Value{}, fmt.Errorf("length expected, got %s: %w", v.Kind, ErrInvalidValue)
		}
	case typeNumber:
		switch {
		case v.Kind == KindNumber, v.Kind == KindFunction, keywordOK:
		case v.Kind == KindPercentage && property == "opacity":
			v = Value{Kind: KindNumber, Raw: v.Raw, Number: v.Number / 100}
		default:
			return Value{}, fmt.Errorf("number expected, got %s: %w", v.Kind, ErrInvalidValue)
		}
	}

	if info.nonNegative && v.IsNumeric() && v.Number < 0 {
		v.Number = 0
		v.Raw = "0" + v.Unit
	}
	if property == "opacity" && v.Kind == KindNumber {
		if n := clamp(v.Number, 0, 1); n != v.Number {
			v = Number(n)
		}
	}
	return v, nil
}

// unitlessNumbers lists length properties that also take plain numbers.
var unitlessNumbers = map[string]bool{"line-height": true, "tab-size": true}

// parseComponents parses a comma and/or whitespace separated value.
func parseComponents(toks []token) (Value, error) {
	groups := splitTopLevel(toks)
	if len(groups) == 1 {
		return parseSpaceList(groups[0])
	}
	list := Value{Kind: KindList, Raw: joinTokens(toks), Comma: true}
	for _, g := range groups {
		item, err := parseSpaceList(g)
		if err != nil {
			return Value{}, err
		}
		list.List = append(list.List, item)
	}
	return list, nil
}

func parseSpaceList(toks []token) (Value, error) {
	comps := components(toks)
	switch len(comps) {
	case 0:
		return Value{}, fmt.Errorf("missing value: %w", ErrInvalidValue)
	case 1:
		return parseComponent(comps[0])
	}
	list := Value{Kind: KindList, Raw: joinTokens(toks)}
	for _, c := range comps {
		item, err := parseComponent(c)
		if err != nil {
			return Value{}, err
		}
		list.List = append(list.List, item)
	}
	return list, nil
}

// components splits tokens on top-level whitespace and on dropped comments.
// A "/" delimiter always forms its own component, so "12px/1.5" yields three
// of them.
func components(toks []token) [][]token {
	var (
		comps [][]token
		cur   []token
		depth int
	)
	flush := func() {
		if len(cur) > 0 {
			comps = append(comps, cur)
			cur = nil
		}
	}
	for _, t := range toks {
		if depth == 0 && t.gap {
			flush()
		}
		switch {
		case depth == 0 && t.is(css.WhitespaceToken):
			flush()
			continue
		case depth == 0 && t.isDelim('/'):
			flush()
			comps = append(comps, []token{t})
			continue
		case t.is(css.FunctionToken), t.is(css.LeftParenthesisToken), t.is(css.LeftBracketToken):
			depth++
		case t.is(css.RightParenthesisToken), t.is(css.RightBracketToken):
			if depth > 0 {
				depth--
			}
		}
		cur = append(cur, t)
	}
	flush()
	return comps
}

// colorFunctions produce colors rather than generic function values.
var colorFunctions = map[string]bool{
	"rgb": true, "rgba": true, "hsl": true, "hsla": true, "hwb": true,
	"lab": true, "lch": true, "oklab": true, "oklch": true,
}

// knownFunctions are recognized non-color value functions.
var knownFunctions = map[string]bool{
	"calc": true, "min": true, "max": true, "clamp": true, "attr": true, "counter": true,
	"linear-gradient": true, "radial-gradient": true, "conic-gradient": true,
	"repeating-linear-gradient": true, "repeating-radial-gradient": true,
	"image-set": true, "cubic-bezier": true, "steps": true, "env": true,
}

func parseComponent(toks []token) (Value, error) {
	if len(toks) == 0 {
		return Value{}, fmt.Errorf("missing value: %w", ErrInvalidValue)
	}
	raw := joinTokens(toks)
	t := toks[0]
	if len(toks) > 1 && !t.is(css.FunctionToken) {
		return Value{}, fmt.Errorf("unexpected %q: %w", raw, ErrInvalidValue)
	}

	switch t.tt {
	case css.IdentToken:
		return Value{Kind: KindKeyword, Raw: raw, Keyword: strings.ToLower(t.data)}, nil

	case css.NumberToken:
		n, err := strconv.ParseFloat(t.data, 64)
		if err != nil {
			return Value{}, fmt.Errorf("number %q: %w", t.data, ErrInvalidValue)
		}
		return Value{Kind: KindNumber, Raw: raw, Number: n}, nil

	case css.PercentageToken:
		n, err := strconv.ParseFloat(strings.TrimSuffix(t.data, "%"), 64)
		if err != nil {
			return Value{}, fmt.Errorf("percentage %q: %w", t.data, ErrInvalidValue)
		}
		return Value{Kind: KindPercentage, Raw: raw, Number: n, Unit: "%"}, nil

	case css.DimensionToken:
		return parseDimensionValue(t.data)

	case css.StringToken:
		return Value{Kind: KindString, Raw: raw, Str: unquote(t.data)}, nil

	case css.URLToken:
		return Value{Kind: KindURL, Raw: raw, Str: urlTarget(t.data)}, nil

	case css.HashToken:
		c, err := ParseColor(t.data)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindColor, Raw: raw, Color: c}, nil

	case css.DelimToken:
		if t.data == "/" {
			return Value{Kind: KindKeyword, Raw: "/", Keyword: "/"}, nil
		}

	case css.FunctionToken:
		end := closing(toks, 0)
		if end != len(toks)-1 {
			return Value{}, fmt.Errorf("unbalanced function %q: %w", raw, ErrInvalidValue)
		}
		name := strings.ToLower(strings.TrimSuffix(t.data, "("))
		args := trimSpace(toks[1:end])
		switch {
		case colorFunctions[name]:
			c, err := ParseColor(raw)
			if err != nil {
				return Value{}, err
			}
			return Value{Kind: KindColor, Raw: raw, Color: c}, nil
		case name == "url":
			return Value{Kind: KindURL, Raw: raw, Str: unquote(joinTokens(args))}, nil
		}
		return Value{
			Kind:  KindFunction,
			Raw:   raw,
			Funcs: []Func{{Name: name, Args: parseArgs(args), Known: knownFunctions[name]}},
		}, nil
	}
	return Value{}, fmt.Errorf("unexpected %q: %w", raw, ErrInvalidValue)
}

// parseArgs parses comma separated function arguments. Arguments which do not
// parse on their own (calc expressions and such) are kept as opaque keywords.
func parseArgs(toks []token) []Value {
	if len(trimSpace(toks)) == 0 {
		return nil
	}
	var args []Value
	for _, g := range splitTopLevel(toks) {
		v, err := parseSpaceList(trimSpace(g))
		if err != nil {
			raw := joinTokens(g)
			v = Value{Kind: KindKeyword, Raw: raw, Keyword: raw}
		}
		args = append(args, v)
	}
	return args
}

func parseDimensionValue(s string) (Value, error) {
	n, unit := parseDimension(s)
	v := Value{Raw: s, Number: n, Unit: unit}
	switch {
	case lengthUnits[unit]:
		v.Kind = KindLength
	case angleUnits[unit] != 0:
		v.Kind = KindAngle
	case timeUnits[unit] != 0:
		v.Kind = KindTime
	case resolutionUnits[unit] != 0:
		v.Kind = KindResolution
	default:
		return Value{}, fmt.Errorf("unknown unit %q: %w", unit, ErrInvalidValue)
	}
	return v, nil
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
scan:
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isDigit(c), c == '.':
		case (c == '-' || c == '+') && i == 0:
		case (c == 'e' || c == 'E') && i+1 < len(s) && isDigit(s[i+1]):
		case (c == 'e' || c == 'E') && i+2 < len(s) && (s[i+1] == '-' || s[i+1] == '+') && isDigit(s[i+2]):
			i++
		default:
			break scan
		}
		numEnd = i + 1
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// urlTarget extracts the target of a url(...) token.
func urlTarget(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ")")
	return unquote(strings.TrimSpace(s))
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
