package css

import "fmt"

// Specificity is the (ids, classes, elements) weight of a selector. The classes
// component also counts attribute selectors and pseudo-classes, elements also
// counts pseudo-elements.
type Specificity struct {
	IDs      uint32 `json:"ids"`
	Classes  uint32 `json:"classes"`
	Elements uint32 `json:"elements"`
}

// Compare orders specificities lexicographically, returning -1, 0 or +1.
func (s Specificity) Compare(o Specificity) int {
	switch {
	case s.IDs != o.IDs:
		return cmp3(s.IDs, o.IDs)
	case s.Classes != o.Classes:
		return cmp3(s.Classes, o.Classes)
	default:
		return cmp3(s.Elements, o.Elements)
	}
}

// Less reports whether s ranks strictly below o.
func (s Specificity) Less(o Specificity) bool {
	return s.Compare(o) < 0
}

// Add returns the component-wise sum.
func (s Specificity) Add(o Specificity) Specificity {
	return Specificity{IDs: s.IDs + o.IDs, Classes: s.Classes + o.Classes, Elements: s.Elements + o.Elements}
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.IDs, s.Classes, s.Elements)
}

func cmp3(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// computeSpecificity sums the weights of all simple selectors of sel.
func computeSpecificity(parts []Compound) Specificity {
	var spec Specificity
	for _, c := range parts {
		for _, s := range c.Simple {
			spec = spec.Add(s.specificity())
		}
	}
	return spec
}

func (s SimpleSelector) specificity() Specificity {
	switch s.Kind {
	case SimpleID:
		return Specificity{IDs: 1}
	case SimpleClass, SimpleAttribute:
		return Specificity{Classes: 1}
	case SimpleType, SimplePseudoElement:
		return Specificity{Elements: 1}
	case SimplePseudoClass:
		if s.Name == "not" {
			// most specific argument of the negation
			var best Specificity
			for _, arg := range s.Args {
				if best.Less(arg.Specificity) {
					best = arg.Specificity
				}
			}
			return best
		}
		return Specificity{Classes: 1}
	}
	// universal
	return Specificity{}
}
