package dom

import "strings"

// State is a set of dynamic pseudo-class states of an element.
type State uint8

const (
	StateHover State = 1 << iota
	StateFocus
	StateActive
	StateVisited
)

// Has reports whether all bits of s2 are set.
func (s State) Has(s2 State) bool {
	return s&s2 == s2
}

func (s State) String() string {
	var parts []string
	for _, st := range []struct {
		bit  State
		name string
	}{{StateHover, "hover"}, {StateFocus, "focus"}, {StateActive, "active"}, {StateVisited, "visited"}} {
		if s.Has(st.bit) {
			parts = append(parts, st.name)
		}
	}
	return strings.Join(parts, "|")
}

// States maps elements to their dynamic state. A nil States is valid and means
// no element is hovered, focused and so on.
type States map[NodeID]State

// Of returns the state of id.
func (s States) Of(id NodeID) State {
	if s == nil {
		return 0
	}
	return s[id]
}
