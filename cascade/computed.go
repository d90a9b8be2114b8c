package cascade

import (
	"maps"
	"slices"

	"stylecore/css"
	"stylecore/dom"
)

// Source locates the declaration a computed value came from.
type Source struct {
	Sheet       int    `json:"sheet"` // index in the resolver, -1 for inline styles
	Rule        uint32 `json:"rule"`  // source order of the rule in its sheet
	Declaration int    `json:"declaration"`
	Selector    string `json:"selector,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// Provenance tells how a computed value was obtained.
type Provenance uint8

const (
	FromDeclaration Provenance = iota // a cascaded declaration won
	FromParent                        // inherited
	FromInitial                       // initial value of the property
)

var provenanceNames = [...]string{
	FromDeclaration: "declared",
	FromParent:      "inherited",
	FromInitial:     "initial",
}

func (p Provenance) String() string {
	if int(p) < len(provenanceNames) {
		return provenanceNames[p]
	}
	return "provenance?"
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ComputedValue is the value of one property with the provenance of the
// winning declaration. Specificity, Important, Origin and Source are zero
// when no declaration applied; a winning inherit or initial keeps them while
// From tells where the value came from.
type ComputedValue struct {
	Value       css.Value       `json:"value"`
	Specificity css.Specificity `json:"specificity"`
	Important   bool            `json:"important,omitempty"`
	Origin      css.Origin      `json:"origin"`
	Source      Source          `json:"source"`
	From        Provenance      `json:"from"`
}

// ComputedStyle is the resolved style of one element (or one of its
// pseudo-elements). It is immutable once returned by the resolver.
type ComputedStyle struct {
	Node        dom.NodeID
	Pseudo      string
	State       dom.State
	FontSize    float64 // px
	RootSize    float64 // font size of the root element in px
	Fingerprint uint64  // hash of matched rules, inline style and inherited environment
	Matched     int     // number of matched rules
	Diagnostics css.Diagnostics

	values    map[string]ComputedValue
	variables map[string]string
	cyclic    map[string]bool // custom properties dropped for being on a cycle
}

// Get returns the computed value of a property. Unknown properties which no
// declaration set yield an invalid value.
func (cs *ComputedStyle) Get(property string) (ComputedValue, bool) {
	v, ok := cs.values[property]
	return v, ok
}

// Value returns the computed value of a property, invalid when unset.
func (cs *ComputedStyle) Value(property string) css.Value {
	return cs.values[property].Value
}

// Keyword returns the keyword of a property, "" when it is not a keyword.
func (cs *ComputedStyle) Keyword(property string) string {
	if v := cs.values[property].Value; v.Kind == css.KindKeyword {
		return v.Keyword
	}
	return ""
}

// Color returns the color of a color valued property.
func (cs *ComputedStyle) Color(property string) (css.Color, bool) {
	return cs.values[property].Value.AsColor()
}

// Number returns the numeric part of a number, length or percentage.
func (cs *ComputedStyle) Number(property string) (float64, bool) {
	v := cs.values[property].Value
	if !v.IsNumeric() {
		return 0, false
	}
	return v.Number, true
}

// Properties returns the sorted names of all properties with a value.
func (cs *ComputedStyle) Properties() []string {
	return slices.Sorted(maps.Keys(cs.values))
}

// Variable returns the substituted value of a custom property.
func (cs *ComputedStyle) Variable(name string) (string, bool) {
	v, ok := cs.variables[name]
	return v, ok
}

// Variables returns the sorted names of all defined custom properties.
func (cs *ComputedStyle) Variables() []string {
	return slices.Sorted(maps.Keys(cs.variables))
}

// LengthContext returns what is needed to convert the remaining relative
// lengths of this style to px.
func (cs *ComputedStyle) LengthContext(media css.MediaContext) css.LengthContext {
	return css.LengthContext{
		FontSize:       cs.FontSize,
		RootFontSize:   cs.RootSize,
		ViewportWidth:  media.Width,
		ViewportHeight: media.Height,
	}
}
