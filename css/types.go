package css

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Origin tells where a stylesheet (or declaration) comes from.
type Origin uint8

const (
	OriginUserAgent Origin = iota
	OriginUser
	OriginAuthor
	OriginInline // style attribute
)

var originNames = [...]string{
	OriginUserAgent: "user-agent",
	OriginUser:      "user",
	OriginAuthor:    "author",
	OriginInline:    "inline",
}

func (o Origin) String() string {
	if int(o) < len(originNames) {
		return originNames[o]
	}
	return fmt.Sprintf("origin(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(text []byte) error {
	v, err := ParseOrigin(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOrigin converts origin name to Origin.
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user-agent", "ua", "useragent":
		return OriginUserAgent, nil
	case "user":
		return OriginUser, nil
	case "author", "":
		return OriginAuthor, nil
	case "inline":
		return OriginInline, nil
	}
	return OriginAuthor, fmt.Errorf("unknown origin %q", s)
}

// Declaration is a single property: value pair. Immutable once parsed.
type Declaration struct {
	Property  string `json:"property"`
	Raw       string `json:"raw"`
	Value     Value  `json:"value"`
	Important bool   `json:"important,omitempty"`
	Line      int    `json:"line,omitempty"`
	Shorthand string `json:"shorthand,omitempty"` // set on longhands produced by expansion
}

// Rule is a style rule: a selector list with its declarations.
type Rule struct {
	Selectors    []*Selector      `json:"selectors"`
	Declarations []Declaration    `json:"declarations"` // as written
	SourceOrder  uint32           `json:"source_order"`
	Origin       Origin           `json:"origin"`
	Media        []MediaQueryList `json:"media,omitempty"` // enclosing @media lists, outermost first
	Line         int              `json:"line,omitempty"`

	longhands []Declaration
}

// SelectorText returns the selector list as written (normalized).
func (r *Rule) SelectorText() string {
	parts := make([]string, len(r.Selectors))
	for i, s := range r.Selectors {
		parts[i] = s.Raw
	}
	return strings.Join(parts, ", ")
}

// Longhands returns declarations with shorthands expanded. Shorthands whose
// value references custom properties are kept unexpanded, they are expanded
// by the cascade after substitution.
func (r *Rule) Longhands() []Declaration {
	if r.longhands != nil || len(r.Declarations) == 0 {
		return r.longhands
	}
	// rules built by hand are expanded on every call
	lh, _ := ExpandDeclarations(r.Declarations)
	return lh
}

// AppliesTo reports whether all enclosing media query lists match.
func (r *Rule) AppliesTo(ctx MediaContext) bool {
	for _, l := range r.Media {
		if !l.Matches(ctx) {
			return false
		}
	}
	return true
}

// GetProperty returns the last declaration of a property, if any.
func (r *Rule) GetProperty(name string) (Declaration, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == name {
			return r.Declarations[i], true
		}
	}
	return Declaration{}, false
}

// MediaBlock represents a @media block with its query list and nested items.
type MediaBlock struct {
	Queries MediaQueryList    `json:"queries"`
	Items   []StylesheetItem `json:"items"`
	Line    int               `json:"line,omitempty"`
}

// KeyframeStep is one block of a @keyframes rule.
type KeyframeStep struct {
	Selector     string        `json:"selector"` // "from, 50%" as written
	Offsets      []float64     `json:"offsets"`  // percentages
	Declarations []Declaration `json:"declarations"`
}

// Keyframes is a @keyframes rule.
type Keyframes struct {
	Name   string         `json:"name"`
	Vendor string         `json:"vendor,omitempty"` // "-webkit-" and friends
	Steps  []KeyframeStep `json:"steps"`
	Line   int            `json:"line,omitempty"`
}

// CustomProperty is a --name declaration found in a style rule.
type CustomProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"` // raw token text
	Scope     string `json:"scope"` // selector text of the defining rule
	Important bool   `json:"important,omitempty"`
}

// Import is an @import rule. URL is as written, Resolved is resolved against
// the stylesheet base URL. Imports are never fetched.
type Import struct {
	URL      string         `json:"url"`
	Resolved string         `json:"resolved,omitempty"`
	Media    MediaQueryList `json:"media,omitempty"`
	Line     int            `json:"line,omitempty"`
}

// FontFace represents an @font-face declaration.
type FontFace struct {
	Family       string        `json:"family"`                 // font-family value
	Src          string        `json:"src,omitempty"`          // src value (URL or local reference)
	Style        string        `json:"style,omitempty"`        // font-style: normal, italic
	Weight       string        `json:"weight,omitempty"`       // font-weight: normal, bold, 400, 700
	Declarations []Declaration `json:"declarations,omitempty"` // everything as written
}

// StylesheetItem is a single item in a stylesheet.
// Exactly one of its fields is non-nil.
type StylesheetItem struct {
	Rule       *Rule       `json:"rule,omitempty"`
	MediaBlock *MediaBlock `json:"media,omitempty"`
	Keyframes  *Keyframes  `json:"keyframes,omitempty"`
	FontFace   *FontFace   `json:"font_face,omitempty"`
	Import     *Import     `json:"import,omitempty"`
}

// Stats are parse counters.
type Stats struct {
	Rules              int  `json:"rules"`
	Selectors          int  `json:"selectors"`
	Declarations       int  `json:"declarations"`
	MediaBlocks        int  `json:"media_blocks"`
	Keyframes          int  `json:"keyframes"`
	Imports            int  `json:"imports"`
	FontFaces          int  `json:"font_faces"`
	Variables          int  `json:"variables"`
	SkippedAtRules     int  `json:"skipped_at_rules"`
	MalformedRules     int  `json:"malformed_rules"`
	MalformedSelectors int  `json:"malformed_selectors"`
	InvalidValues      int  `json:"invalid_values"`
	Truncated          bool `json:"truncated,omitempty"`
}

// ParseOptions control parsing. Zero limits mean unlimited.
type ParseOptions struct {
	Origin                 Origin
	BaseURL                string
	MaxRules               int           // style rules in the whole stylesheet
	MaxSelectorsPerRule    int           // selectors in one selector list
	MaxDeclarationsPerRule int           // declarations in one block
	MaxNestingDepth        int           // nested @media blocks
	TimeBudget             time.Duration // checked between top-level rules
}

// Stylesheet represents a parsed CSS stylesheet. It is immutable once Parse
// returns and may be shared by concurrent cascades.
type Stylesheet struct {
	Origin      Origin           `json:"origin"`
	BaseURL     string           `json:"base_url,omitempty"`
	Hash        uint64           `json:"hash"`
	Items       []StylesheetItem `json:"items"`
	Rules       []*Rule          `json:"-"` // all style rules in source order, including nested ones
	Keyframes   []*Keyframes     `json:"-"`
	Variables   []CustomProperty `json:"variables,omitempty"`
	Imports     []*Import        `json:"-"`
	FontFaces   []*FontFace      `json:"-"`
	Stats       Stats            `json:"stats"`
	Diagnostics Diagnostics      `json:"diagnostics,omitempty"`
}

// RulesBySelector returns all rules (nested ones included) having the given
// selector in their selector list.
func (s *Stylesheet) RulesBySelector(selector string) []*Rule {
	want := joinTokens(tokenize(selector))
	var matches []*Rule
	for _, r := range s.Rules {
		for _, sel := range r.Selectors {
			if sel.Raw == want {
				matches = append(matches, r)
				break
			}
		}
	}
	return matches
}

// KeyframesByName returns the last @keyframes rule with the given name.
func (s *Stylesheet) KeyframesByName(name string) *Keyframes {
	for i := len(s.Keyframes) - 1; i >= 0; i-- {
		if s.Keyframes[i].Name == name {
			return s.Keyframes[i]
		}
	}
	return nil
}

// urlRewritePattern matches url() references in CSS values for RewriteURLs.
// Handles: url("path"), url('path'), url(path)
var urlRewritePattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"]*))\s*\)`)

// RewriteURLs walks all URL references in the stylesheet and applies fn to each.
// This covers @import URLs, @font-face src, and url() references in declarations.
// It must be called before the stylesheet is shared.
func (s *Stylesheet) RewriteURLs(fn func(originalURL string) string) {
	var walk func(items []StylesheetItem)
	walk = func(items []StylesheetItem) {
		for i := range items {
			item := &items[i]
			switch {
			case item.Import != nil:
				item.Import.Resolved = fn(item.Import.URL)
			case item.FontFace != nil:
				item.FontFace.Src = rewriteURLsInValue(item.FontFace.Src, fn)
				rewriteURLsInDeclarations(item.FontFace.Declarations, fn)
			case item.Rule != nil:
				if rewriteURLsInDeclarations(item.Rule.Declarations, fn) {
					item.Rule.longhands, _ = ExpandDeclarations(item.Rule.Declarations)
				}
			case item.Keyframes != nil:
				for j := range item.Keyframes.Steps {
					rewriteURLsInDeclarations(item.Keyframes.Steps[j].Declarations, fn)
				}
			case item.MediaBlock != nil:
				walk(item.MediaBlock.Items)
			}
		}
	}
	walk(s.Items)
}

// rewriteURLsInDeclarations rewrites url() references in declaration values
// and reports whether anything changed.
func rewriteURLsInDeclarations(decls []Declaration, fn func(string) string) bool {
	var changed bool
	for i := range decls {
		d := &decls[i]
		if !strings.Contains(strings.ToLower(d.Raw), "url(") {
			continue
		}
		d.Raw = rewriteURLsInValue(d.Raw, fn)
		if v, err := ParseValue(d.Property, d.Raw); err == nil && !IsShorthand(d.Property) {
			d.Value = v
		}
		changed = true
	}
	return changed
}

// rewriteURLsInValue replaces url() references in a CSS value string.
func rewriteURLsInValue(value string, fn func(string) string) string {
	return urlRewritePattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := urlRewritePattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		// Group 1 is quoted URL, group 2 is unquoted URL
		originalURL := sub[1]
		if originalURL == "" {
			originalURL = sub[2]
		}
		originalURL = strings.TrimSpace(originalURL)
		newURL := fn(originalURL)
		return fmt.Sprintf("url(\"%s\")", cssEscapeDoubleQuoted(newURL))
	})
}
