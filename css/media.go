package css

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// MediaContext describes the environment @media rules are evaluated against.
type MediaContext struct {
	Width       float64 // viewport width in px
	Height      float64 // viewport height in px
	DPI         float64 // DefaultDPI when zero
	Type        string  // media type, "screen" when empty
	ColorScheme string  // "light" or "dark", "light" when empty
}

func (mc MediaContext) mediaType() string {
	if mc.Type == "" {
		return "screen"
	}
	return strings.ToLower(mc.Type)
}

func (mc MediaContext) dppx() float64 {
	if mc.DPI <= 0 {
		return 1
	}
	return mc.DPI / DefaultDPI
}

// Comparator is the relation of a media condition.
type Comparator uint8

const (
	OpPresent Comparator = iota // boolean context, "(color)"
	OpEQ
	OpLT
	OpLE
	OpGT
	OpGE
)

var comparatorText = [...]string{OpPresent: "", OpEQ: "=", OpLT: "<", OpLE: "<=", OpGT: ">", OpGE: ">="}

func (op Comparator) String() string {
	return comparatorText[op]
}

// flip returns the comparator with swapped operands.
func (op Comparator) flip() Comparator {
	switch op {
	case OpLT:
		return OpGT
	case OpLE:
		return OpGE
	case OpGT:
		return OpLT
	case OpGE:
		return OpLE
	}
	return op
}

// MediaCondition is a single feature test, e.g. width <= 768px.
type MediaCondition struct {
	Feature string
	Op      Comparator
	Value   Value
}

func (c MediaCondition) String() string {
	if c.Op == OpPresent {
		return "(" + c.Feature + ")"
	}
	return fmt.Sprintf("(%s %s %s)", c.Feature, c.Op, c.Value.Raw)
}

// MediaQuery is one entry of a comma separated media query list. All
// conditions must hold.
type MediaQuery struct {
	Raw        string
	Type       string // media type, "" means all
	Negated    bool   // "not" applies to the whole query
	Only       bool
	Conditions []MediaCondition
	Invalid    bool // unparsable queries never match
}

// Matches evaluates the query.
func (q MediaQuery) Matches(ctx MediaContext) bool {
	if q.Invalid {
		return false
	}
	ok := q.Type == "" || q.Type == "all" || q.Type == ctx.mediaType()
	for _, c := range q.Conditions {
		if !ok {
			break
		}
		ok = c.Matches(ctx)
	}
	if q.Negated {
		return !ok
	}
	return ok
}

// MediaQueryList matches when any of its queries match. An empty list
// always matches.
type MediaQueryList []MediaQuery

// Matches evaluates the list.
func (l MediaQueryList) Matches(ctx MediaContext) bool {
	if len(l) == 0 {
		return true
	}
	for _, q := range l {
		if q.Matches(ctx) {
			return true
		}
	}
	return false
}

func (l MediaQueryList) String() string {
	parts := make([]string, len(l))
	for i, q := range l {
		parts[i] = q.Raw
	}
	return strings.Join(parts, ", ")
}

// MarshalText implements encoding.TextMarshaler.
func (l MediaQueryList) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseMediaQueryList parses the prelude of an @media rule.
func ParseMediaQueryList(text string) MediaQueryList {
	return parseMediaQueryList(trimSpace(tokenize(text)))
}

func parseMediaQueryList(toks []token) MediaQueryList {
	if len(trimSpace(toks)) == 0 {
		return nil
	}
	var list MediaQueryList
	for _, part := range splitTopLevel(toks) {
		part = trimSpace(part)
		q, err := parseMediaQuery(part)
		if err != nil {
			q = MediaQuery{Raw: joinTokens(part), Invalid: true}
		}
		list = append(list, q)
	}
	return list
}

var errBadMediaQuery = errors.New("malformed media query")

func parseMediaQuery(toks []token) (MediaQuery, error) {
	q := MediaQuery{Raw: joinTokens(toks)}
	i := 0
	skip := func() {
		for i < len(toks) && toks[i].is(css.WhitespaceToken) {
			i++
		}
	}
	skip()
	if i < len(toks) && toks[i].is(css.IdentToken) {
		switch strings.ToLower(toks[i].data) {
		case "not":
			q.Negated = true
			i++
		case "only":
			q.Only = true
			i++
		}
		skip()
		if i < len(toks) && toks[i].is(css.IdentToken) && !toks[i].isIdent("and") {
			q.Type = strings.ToLower(toks[i].data)
			i++
		} else if q.Only {
			return q, errBadMediaQuery
		}
	}
	needAnd := q.Type != ""
	for skip(); i < len(toks); skip() {
		t := toks[i]
		if needAnd {
			if !t.isIdent("and") {
				return q, errBadMediaQuery
			}
			needAnd = false
			i++
			continue
		}
		if !t.is(css.LeftParenthesisToken) {
			return q, errBadMediaQuery
		}
		end := closing(toks, i)
		if end < 0 {
			return q, errBadMediaQuery
		}
		conds, err := parseMediaCondition(trimSpace(toks[i+1 : end]))
		if err != nil {
			return q, err
		}
		q.Conditions = append(q.Conditions, conds...)
		i = end + 1
		needAnd = true
	}
	if !needAnd {
		// dangling "and" or "not"
		return q, errBadMediaQuery
	}
	return q, nil
}

// parseMediaCondition parses the inside of "( ... )": a boolean feature,
// "name: value" with optional min-/max- prefix, or range syntax with one or
// two comparisons.
func parseMediaCondition(toks []token) ([]MediaCondition, error) {
	var parts []token
	for _, t := range toks {
		if !t.is(css.WhitespaceToken) {
			parts = append(parts, t)
		}
	}
	switch {
	case len(parts) == 0:
		return nil, errBadMediaQuery
	case len(parts) == 1 && parts[0].is(css.IdentToken):
		return []MediaCondition{{Feature: strings.ToLower(parts[0].data), Op: OpPresent}}, nil
	case len(parts) > 2 && parts[0].is(css.IdentToken) && parts[1].is(css.ColonToken):
		name := strings.ToLower(parts[0].data)
		op := OpEQ
		if f, ok := strings.CutPrefix(name, "min-"); ok {
			name, op = f, OpGE
		} else if f, ok := strings.CutPrefix(name, "max-"); ok {
			name, op = f, OpLE
		}
		v, err := parseMediaValue(parts[2:])
		if err != nil {
			return nil, err
		}
		return []MediaCondition{{Feature: name, Op: op, Value: v}}, nil
	}
	return parseMediaRange(parts)
}

func parseMediaRange(parts []token) ([]MediaCondition, error) {
	var (
		operands [][]token
		ops      []Comparator
		cur      []token
	)
	for i := 0; i < len(parts); i++ {
		t := parts[i]
		if !(t.isDelim('<') || t.isDelim('>') || t.isDelim('=')) {
			cur = append(cur, t)
			continue
		}
		op := OpEQ
		switch {
		case t.isDelim('<'):
			op = OpLT
		case t.isDelim('>'):
			op = OpGT
		}
		if op != OpEQ && i+1 < len(parts) && parts[i+1].isDelim('=') {
			op++ // OpLT -> OpLE, OpGT -> OpGE
			i++
		}
		if len(cur) == 0 {
			return nil, errBadMediaQuery
		}
		operands, cur = append(operands, cur), nil
		ops = append(ops, op)
	}
	if len(cur) == 0 {
		return nil, errBadMediaQuery
	}
	operands = append(operands, cur)

	isFeature := func(o []token) bool {
		return len(o) == 1 && o[0].is(css.IdentToken) && mediaFeatures[strings.ToLower(o[0].data)]
	}
	switch {
	case len(ops) == 1 && isFeature(operands[0]):
		v, err := parseMediaValue(operands[1])
		if err != nil {
			return nil, err
		}
		return []MediaCondition{{Feature: strings.ToLower(operands[0][0].data), Op: ops[0], Value: v}}, nil
	case len(ops) == 1 && isFeature(operands[1]):
		v, err := parseMediaValue(operands[0])
		if err != nil {
			return nil, err
		}
		return []MediaCondition{{Feature: strings.ToLower(operands[1][0].data), Op: ops[0].flip(), Value: v}}, nil
	case len(ops) == 2 && isFeature(operands[1]):
		lo, err := parseMediaValue(operands[0])
		if err != nil {
			return nil, err
		}
		hi, err := parseMediaValue(operands[2])
		if err != nil {
			return nil, err
		}
		name := strings.ToLower(operands[1][0].data)
		return []MediaCondition{
			{Feature: name, Op: ops[0].flip(), Value: lo},
			{Feature: name, Op: ops[1], Value: hi},
		}, nil
	}
	return nil, errBadMediaQuery
}

// parseMediaValue parses a feature value; "16/9" ratios become numbers.
func parseMediaValue(toks []token) (Value, error) {
	var parts []token
	for _, t := range toks {
		if !t.is(css.WhitespaceToken) {
			parts = append(parts, t)
		}
	}
	if len(parts) == 3 && parts[1].isDelim('/') && parts[0].is(css.NumberToken) && parts[2].is(css.NumberToken) {
		a, errA := parseComponent(parts[:1])
		b, errB := parseComponent(parts[2:])
		if errA != nil || errB != nil || b.Number == 0 {
			return Value{}, errBadMediaQuery
		}
		v := Number(a.Number / b.Number)
		v.Raw = joinTokens(toks)
		return v, nil
	}
	if len(parts) != 1 {
		return Value{}, errBadMediaQuery
	}
	return parseComponent(parts)
}

// mediaFeatures are features understood by the evaluator.
var mediaFeatures = map[string]bool{
	"width": true, "height": true, "device-width": true, "device-height": true,
	"aspect-ratio": true, "device-aspect-ratio": true, "orientation": true, "resolution": true,
	"prefers-color-scheme": true, "prefers-reduced-motion": true, "hover": true, "any-hover": true,
	"pointer": true, "any-pointer": true, "color": true, "monochrome": true, "grid": true,
}

// Matches evaluates a single condition. Unknown features never match.
func (c MediaCondition) Matches(ctx MediaContext) bool {
	lengthCtx := LengthContext{
		FontSize: 16, RootFontSize: 16,
		ViewportWidth: ctx.Width, ViewportHeight: ctx.Height,
	}
	switch c.Feature {
	case "width", "device-width", "height", "device-height":
		actual := ctx.Width
		if strings.HasSuffix(c.Feature, "height") {
			actual = ctx.Height
		}
		if c.Op == OpPresent {
			return actual > 0
		}
		want, ok := c.Value.ToPx(lengthCtx)
		return ok && compare(actual, c.Op, want)
	case "aspect-ratio", "device-aspect-ratio":
		if ctx.Height <= 0 {
			return false
		}
		if c.Op == OpPresent {
			return true
		}
		return c.Value.Kind == KindNumber && compare(ctx.Width/ctx.Height, c.Op, c.Value.Number)
	case "resolution":
		if c.Op == OpPresent {
			return true
		}
		want, ok := c.Value.DPPX()
		return ok && compare(ctx.dppx(), c.Op, want)
	case "orientation":
		o := "landscape"
		if ctx.Height >= ctx.Width {
			o = "portrait"
		}
		return c.Op == OpPresent || c.Value.IsKeyword(o)
	case "prefers-color-scheme":
		scheme := strings.ToLower(ctx.ColorScheme)
		if scheme == "" {
			scheme = "light"
		}
		return c.Op == OpPresent || c.Value.IsKeyword(scheme)
	case "prefers-reduced-motion":
		return c.Op != OpPresent && c.Value.IsKeyword("no-preference")
	case "hover", "any-hover":
		return c.Op == OpPresent || c.Value.IsKeyword("hover")
	case "pointer", "any-pointer":
		return c.Op == OpPresent || c.Value.IsKeyword("fine")
	case "color":
		if c.Op == OpPresent {
			return true
		}
		return c.Value.Kind == KindNumber && compare(8, c.Op, c.Value.Number)
	case "monochrome", "grid":
		return c.Op != OpPresent && c.Value.Kind == KindNumber && compare(0, c.Op, c.Value.Number)
	}
	return false
}

const mediaEpsilon = 1e-9

func compare(actual float64, op Comparator, want float64) bool {
	eq := math.Abs(actual-want) < mediaEpsilon
	switch op {
	case OpEQ:
		return eq
	case OpLT:
		return actual < want && !eq
	case OpLE:
		return actual < want || eq
	case OpGT:
		return actual > want && !eq
	case OpGE:
		return actual > want || eq
	}
	return false
}
