package css

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Combinator relates a compound selector to the compound on its left.
type Combinator uint8

const (
	CombinatorNone       Combinator = iota // leftmost compound
	CombinatorDescendant                   // "a b"
	CombinatorChild                        // "a > b"
	CombinatorAdjacent                     // "a + b"
	CombinatorSibling                      // "a ~ b"
)

func (c Combinator) String() string {
	switch c {
	case CombinatorDescendant:
		return " "
	case CombinatorChild:
		return " > "
	case CombinatorAdjacent:
		return " + "
	case CombinatorSibling:
		return " ~ "
	}
	return ""
}

// SimpleKind is the kind of a simple selector.
type SimpleKind uint8

const (
	SimpleUniversal SimpleKind = iota
	SimpleType
	SimpleID
	SimpleClass
	SimpleAttribute
	SimplePseudoClass
	SimplePseudoElement
)

// AttrOp is an attribute selector operator.
type AttrOp uint8

const (
	AttrExists    AttrOp = iota // [a]
	AttrEquals                  // [a=v]
	AttrIncludes                // [a~=v]
	AttrDash                    // [a|=v]
	AttrPrefix                  // [a^=v]
	AttrSuffix                  // [a$=v]
	AttrSubstring               // [a*=v]
)

var attrOpText = [...]string{AttrExists: "", AttrEquals: "=", AttrIncludes: "~=", AttrDash: "|=", AttrPrefix: "^=", AttrSuffix: "$=", AttrSubstring: "*="}

func (op AttrOp) String() string {
	return attrOpText[op]
}

// Nth is an An+B expression of the nth-* pseudo-classes.
type Nth struct {
	A, B int
}

// Matches reports whether the 1-based position pos is selected.
func (n Nth) Matches(pos int) bool {
	if n.A == 0 {
		return pos == n.B
	}
	d := pos - n.B
	return d/n.A >= 0 && d%n.A == 0
}

// SimpleSelector is a single type, id, class, attribute or pseudo selector.
type SimpleSelector struct {
	Kind            SimpleKind
	Name            string      // tag, id, class, attribute or pseudo name
	Op              AttrOp      // attribute operator
	Value           string      // attribute value literal
	CaseInsensitive bool        // [a=v i]
	Arg             string      // raw argument of functional pseudo-classes
	Nth             *Nth        // parsed argument of nth-* pseudo-classes
	Args            []*Selector // argument list of :not()
}

func (s SimpleSelector) String() string {
	switch s.Kind {
	case SimpleUniversal:
		return "*"
	case SimpleType:
		return escapeIdent(s.Name)
	case SimpleID:
		return "#" + escapeIdent(s.Name)
	case SimpleClass:
		return "." + escapeIdent(s.Name)
	case SimpleAttribute:
		if s.Op == AttrExists {
			return "[" + escapeIdent(s.Name) + "]"
		}
		flag := ""
		if s.CaseInsensitive {
			flag = " i"
		}
		return fmt.Sprintf("[%s%s\"%s\"%s]", escapeIdent(s.Name), s.Op, cssEscapeDoubleQuoted(s.Value), flag)
	case SimplePseudoElement:
		if s.Arg != "" {
			return "::" + s.Name + "(" + s.Arg + ")"
		}
		return "::" + s.Name
	}
	if s.Arg != "" {
		return ":" + s.Name + "(" + s.Arg + ")"
	}
	return ":" + s.Name
}

// Compound is a sequence of simple selectors without combinators.
type Compound struct {
	Combinator Combinator // relation to the compound on the left
	Simple     []SimpleSelector
}

// Selector is a complex selector: compounds joined by combinators, left to
// right. Specificity is computed once at parse time.
type Selector struct {
	Raw         string
	Parts       []Compound
	Specificity Specificity
}

// Subject returns the rightmost compound, the one matched against the element.
func (s *Selector) Subject() *Compound {
	return &s.Parts[len(s.Parts)-1]
}

// PseudoElement returns the pseudo-element the selector styles, "" for the
// element itself.
func (s *Selector) PseudoElement() string {
	for _, ss := range s.Subject().Simple {
		if ss.Kind == SimplePseudoElement {
			return ss.Name
		}
	}
	return ""
}

// String returns canonical selector text.
func (s *Selector) String() string {
	var sb strings.Builder
	for _, c := range s.Parts {
		sb.WriteString(c.Combinator.String())
		for _, ss := range c.Simple {
			sb.WriteString(ss.String())
		}
	}
	return sb.String()
}

// legacy single-colon pseudo-elements
var legacyPseudoElements = map[string]bool{
	"before": true, "after": true, "first-line": true, "first-letter": true,
}

const maxNegationDepth = 8

var errEmptySelector = errors.New("empty selector")

// ParseSelector parses a single complex selector.
func ParseSelector(text string) (*Selector, error) {
	return parseSelector(tokenize(text), 0)
}

// ParseSelectorList parses a comma separated selector list. Malformed entries
// are reported and skipped, the rest is kept.
func ParseSelectorList(text string) ([]*Selector, []error) {
	return parseSelectorList(tokenize(text), 0)
}

func parseSelectorList(toks []token, depth int) ([]*Selector, []error) {
	var (
		sels []*Selector
		errs []error
	)
	for _, part := range splitTopLevel(toks) {
		sel, err := parseSelector(part, depth)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sels = append(sels, sel)
	}
	return sels, errs
}

func parseSelector(toks []token, depth int) (*Selector, error) {
	toks = trimSpace(toks)
	if len(toks) == 0 {
		return nil, errEmptySelector
	}
	raw := joinTokens(toks)
	sp := selectorParser{toks: toks, depth: depth}
	parts, err := sp.parse()
	if err != nil {
		return nil, fmt.Errorf("%q: %w", raw, err)
	}
	return &Selector{Raw: raw, Parts: parts, Specificity: computeSpecificity(parts)}, nil
}

type selectorParser struct {
	toks  []token
	pos   int
	depth int
}

func (sp *selectorParser) parse() ([]Compound, error) {
	var (
		parts    []Compound
		cur      Compound
		pending  Combinator
		explicit bool
	)
	for sp.pos < len(sp.toks) {
		t := sp.toks[sp.pos]
		switch {
		case t.is(css.WhitespaceToken):
			sp.pos++
			if len(cur.Simple) > 0 {
				parts, cur = append(parts, cur), Compound{}
				pending, explicit = CombinatorDescendant, false
			}
			continue
		case t.isDelim('>'), t.isDelim('+'), t.isDelim('~'):
			sp.pos++
			if len(cur.Simple) > 0 {
				parts, cur = append(parts, cur), Compound{}
			} else if len(parts) == 0 || explicit {
				return nil, fmt.Errorf("unexpected combinator %q", t.data)
			}
			switch t.data {
			case ">":
				pending = CombinatorChild
			case "+":
				pending = CombinatorAdjacent
			default:
				pending = CombinatorSibling
			}
			explicit = true
			continue
		}
		if len(cur.Simple) == 0 && len(parts) > 0 {
			cur.Combinator = pending
		}
		ss, err := sp.simple(len(cur.Simple) == 0)
		if err != nil {
			return nil, err
		}
		if n := len(cur.Simple); n > 0 && cur.Simple[n-1].Kind == SimplePseudoElement && ss.Kind != SimplePseudoClass {
			return nil, fmt.Errorf("%q after pseudo-element", ss.String())
		}
		cur.Simple = append(cur.Simple, ss)
		explicit = false
	}
	if len(cur.Simple) == 0 {
		return nil, errors.New("dangling combinator")
	}
	parts = append(parts, cur)
	// pseudo-elements are only allowed in the subject compound
	for _, c := range parts[:len(parts)-1] {
		for _, ss := range c.Simple {
			if ss.Kind == SimplePseudoElement {
				return nil, fmt.Errorf("pseudo-element %q is not in the last compound", ss.Name)
			}
		}
	}
	return parts, nil
}

func (sp *selectorParser) next() (token, bool) {
	if sp.pos >= len(sp.toks) {
		return token{}, false
	}
	t := sp.toks[sp.pos]
	sp.pos++
	return t, true
}

func (sp *selectorParser) simple(first bool) (SimpleSelector, error) {
	t, _ := sp.next()
	switch {
	case t.is(css.IdentToken):
		if !first {
			return SimpleSelector{}, fmt.Errorf("type selector %q must come first", t.data)
		}
		return SimpleSelector{Kind: SimpleType, Name: strings.ToLower(unescape(t.data))}, nil

	case t.isDelim('*'):
		if !first {
			return SimpleSelector{}, errors.New("universal selector must come first")
		}
		return SimpleSelector{Kind: SimpleUniversal}, nil

	case t.is(css.HashToken):
		if len(t.data) < 2 {
			return SimpleSelector{}, errors.New("empty id selector")
		}
		return SimpleSelector{Kind: SimpleID, Name: unescape(t.data[1:])}, nil

	case t.isDelim('.'):
		n, ok := sp.next()
		if !ok || !n.is(css.IdentToken) {
			return SimpleSelector{}, errors.New("class name expected after '.'")
		}
		if n.gap {
			return SimpleSelector{}, errors.New("class name expected after '.'")
		}
		return SimpleSelector{Kind: SimpleClass, Name: unescape(n.data)}, nil

	case t.is(css.LeftBracketToken):
		return sp.attribute()

	case t.is(css.ColonToken):
		return sp.pseudo()
	}
	return SimpleSelector{}, fmt.Errorf("unexpected %q", t.data)
}

func (sp *selectorParser) attribute() (SimpleSelector, error) {
	end := closing(sp.toks, sp.pos-1)
	if end < 0 {
		return SimpleSelector{}, errors.New("unterminated attribute selector")
	}
	inner := trimSpace(sp.toks[sp.pos:end])
	sp.pos = end + 1

	var parts []token
	for _, t := range inner {
		if !t.is(css.WhitespaceToken) {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 || !parts[0].is(css.IdentToken) {
		return SimpleSelector{}, errors.New("attribute name expected")
	}
	ss := SimpleSelector{Kind: SimpleAttribute, Name: strings.ToLower(unescape(parts[0].data))}
	if len(parts) == 1 {
		return ss, nil
	}
	switch op := parts[1]; {
	case op.isDelim('='):
		ss.Op = AttrEquals
	case op.is(css.IncludeMatchToken):
		ss.Op = AttrIncludes
	case op.is(css.DashMatchToken):
		ss.Op = AttrDash
	case op.is(css.PrefixMatchToken):
		ss.Op = AttrPrefix
	case op.is(css.SuffixMatchToken):
		ss.Op = AttrSuffix
	case op.is(css.SubstringMatchToken):
		ss.Op = AttrSubstring
	default:
		return SimpleSelector{}, fmt.Errorf("unknown attribute operator %q", op.data)
	}
	if len(parts) < 3 {
		return SimpleSelector{}, errors.New("attribute value expected")
	}
	switch v := parts[2]; {
	case v.is(css.StringToken):
		ss.Value = unescape(unquote(v.data))
	case v.is(css.IdentToken), v.is(css.NumberToken), v.is(css.DimensionToken):
		ss.Value = unescape(v.data)
	default:
		return SimpleSelector{}, fmt.Errorf("invalid attribute value %q", v.data)
	}
	switch {
	case len(parts) == 3:
	case len(parts) == 4 && parts[3].isIdent("i"):
		ss.CaseInsensitive = true
	case len(parts) == 4 && parts[3].isIdent("s"):
	default:
		return SimpleSelector{}, errors.New("trailing tokens in attribute selector")
	}
	return ss, nil
}

func (sp *selectorParser) pseudo() (SimpleSelector, error) {
	kind := SimplePseudoClass
	t, ok := sp.next()
	if ok && t.is(css.ColonToken) {
		kind = SimplePseudoElement
		t, ok = sp.next()
	}
	if !ok {
		return SimpleSelector{}, errors.New("pseudo name expected")
	}
	switch {
	case t.is(css.IdentToken):
		name := strings.ToLower(t.data)
		if kind == SimplePseudoClass && legacyPseudoElements[name] {
			kind = SimplePseudoElement
		}
		return SimpleSelector{Kind: kind, Name: name}, nil

	case t.is(css.FunctionToken):
		end := closing(sp.toks, sp.pos-1)
		if end < 0 {
			return SimpleSelector{}, errors.New("unterminated pseudo-class argument")
		}
		args := trimSpace(sp.toks[sp.pos:end])
		sp.pos = end + 1
		ss := SimpleSelector{
			Kind: kind,
			Name: strings.ToLower(strings.TrimSuffix(t.data, "(")),
			Arg:  joinTokens(args),
		}
		if kind == SimplePseudoElement {
			return ss, nil
		}
		switch ss.Name {
		case "not":
			if sp.depth >= maxNegationDepth {
				return SimpleSelector{}, errors.New(":not() nested too deep")
			}
			sels, errs := parseSelectorList(args, sp.depth+1)
			if len(errs) > 0 {
				return SimpleSelector{}, fmt.Errorf("invalid :not() argument: %w", errs[0])
			}
			ss.Args = sels
		case "nth-child", "nth-last-child", "nth-of-type", "nth-last-of-type":
			nth, err := parseNth(ss.Arg)
			if err != nil {
				return SimpleSelector{}, err
			}
			ss.Nth = &nth
		}
		return ss, nil
	}
	return SimpleSelector{}, fmt.Errorf("unexpected %q after ':'", t.data)
}

// parseNth parses An+B notation including the odd and even keywords.
func parseNth(s string) (Nth, error) {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch s {
	case "odd":
		return Nth{A: 2, B: 1}, nil
	case "even":
		return Nth{A: 2, B: 0}, nil
	case "":
		return Nth{}, errors.New("empty An+B expression")
	}
	before, after, found := strings.Cut(s, "n")
	if !found {
		b, err := strconv.Atoi(s)
		if err != nil {
			return Nth{}, fmt.Errorf("invalid An+B expression %q", s)
		}
		return Nth{B: b}, nil
	}
	var nth Nth
	switch before {
	case "", "+":
		nth.A = 1
	case "-":
		nth.A = -1
	default:
		a, err := strconv.Atoi(before)
		if err != nil {
			return Nth{}, fmt.Errorf("invalid An+B expression %q", s)
		}
		nth.A = a
	}
	if after != "" {
		b, err := strconv.Atoi(after)
		if err != nil {
			return Nth{}, fmt.Errorf("invalid An+B expression %q", s)
		}
		nth.B = b
	}
	return nth, nil
}
