package css

import (
	"slices"
	"strings"

	"stylecore/dom"
)

// matchContext carries what is needed to evaluate a selector against a tree.
type matchContext struct {
	tree   *dom.Tree
	states dom.States
}

// Matches reports whether the selector matches the element itself (not one of
// its pseudo-elements) with no dynamic state set.
func (s *Selector) Matches(tree *dom.Tree, node dom.NodeID) bool {
	return s.MatchesWith(tree, node, nil, "")
}

// MatchesWith reports whether the selector matches node given the dynamic
// pseudo-class states. When pseudo is not empty the selector must target that
// pseudo-element, otherwise selectors with pseudo-elements never match.
// Evaluation is right to left and has no side effects.
func (s *Selector) MatchesWith(tree *dom.Tree, node dom.NodeID, states dom.States, pseudo string) bool {
	if len(s.Parts) == 0 || !tree.Valid(node) {
		return false
	}
	if s.PseudoElement() != strings.ToLower(pseudo) {
		return false
	}
	mc := matchContext{tree: tree, states: states}
	return mc.matchAt(s, node, len(s.Parts)-1)
}

func (mc *matchContext) matchAt(s *Selector, node dom.NodeID, i int) bool {
	c := &s.Parts[i]
	if !mc.matchCompound(c, node) {
		return false
	}
	if i == 0 {
		return true
	}
	t := mc.tree
	switch c.Combinator {
	case CombinatorChild:
		p := t.Parent(node)
		return p != dom.NoNode && mc.matchAt(s, p, i-1)
	case CombinatorAdjacent:
		prev := t.PrevSibling(node)
		return prev != dom.NoNode && mc.matchAt(s, prev, i-1)
	case CombinatorSibling:
		for prev := t.PrevSibling(node); prev != dom.NoNode; prev = t.PrevSibling(prev) {
			if mc.matchAt(s, prev, i-1) {
				return true
			}
		}
		return false
	default:
		for p := t.Parent(node); p != dom.NoNode; p = t.Parent(p) {
			if mc.matchAt(s, p, i-1) {
				return true
			}
		}
		return false
	}
}

func (mc *matchContext) matchCompound(c *Compound, node dom.NodeID) bool {
	el := mc.tree.Element(node)
	for i := range c.Simple {
		ss := &c.Simple[i]
		var ok bool
		switch ss.Kind {
		case SimpleUniversal, SimplePseudoElement:
			ok = true
		case SimpleType:
			ok = el.Tag == ss.Name
		case SimpleID:
			ok = el.ID == ss.Name
		case SimpleClass:
			ok = el.HasClass(ss.Name)
		case SimpleAttribute:
			ok = matchAttribute(el, ss)
		case SimplePseudoClass:
			ok = mc.matchPseudoClass(ss, node, el)
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchAttribute(el *dom.Element, ss *SimpleSelector) bool {
	v, ok := el.Attr(ss.Name)
	if !ok {
		return false
	}
	want := ss.Value
	if ss.CaseInsensitive {
		v, want = strings.ToLower(v), strings.ToLower(want)
	}
	switch ss.Op {
	case AttrExists:
		return true
	case AttrEquals:
		return v == want
	case AttrIncludes:
		return want != "" && !strings.ContainsAny(want, " \t\n\f\r") && slices.Contains(strings.Fields(v), want)
	case AttrDash:
		return v == want || strings.HasPrefix(v, want+"-")
	case AttrPrefix:
		return want != "" && strings.HasPrefix(v, want)
	case AttrSuffix:
		return want != "" && strings.HasSuffix(v, want)
	case AttrSubstring:
		return want != "" && strings.Contains(v, want)
	}
	return false
}

var (
	linkTags     = []string{"a", "area", "link"}
	disableables = []string{"button", "input", "select", "textarea", "optgroup", "option", "fieldset"}
)

func isLink(el *dom.Element) bool {
	_, href := el.Attr("href")
	return href && slices.Contains(linkTags, el.Tag)
}

func (mc *matchContext) matchPseudoClass(ss *SimpleSelector, node dom.NodeID, el *dom.Element) bool {
	t := mc.tree
	state := mc.states.Of(node)

	switch ss.Name {
	case "root":
		return t.Parent(node) == dom.NoNode
	case "first-child":
		i, _ := t.Position(node)
		return i == 0
	case "last-child":
		i, n := t.Position(node)
		return i == n-1
	case "only-child":
		_, n := t.Position(node)
		return n == 1
	case "first-of-type":
		i, _ := t.TypePosition(node)
		return i == 0
	case "last-of-type":
		i, n := t.TypePosition(node)
		return i == n-1
	case "only-of-type":
		_, n := t.TypePosition(node)
		return n == 1
	case "nth-child":
		i, _ := t.Position(node)
		return ss.Nth != nil && ss.Nth.Matches(i+1)
	case "nth-last-child":
		i, n := t.Position(node)
		return ss.Nth != nil && ss.Nth.Matches(n-i)
	case "nth-of-type":
		i, _ := t.TypePosition(node)
		return ss.Nth != nil && ss.Nth.Matches(i+1)
	case "nth-last-of-type":
		i, n := t.TypePosition(node)
		return ss.Nth != nil && ss.Nth.Matches(n-i)
	case "empty":
		return len(el.Children) == 0 && !el.Text
	case "link":
		return isLink(el) && !state.Has(dom.StateVisited)
	case "any-link":
		return isLink(el)
	case "visited":
		return isLink(el) && state.Has(dom.StateVisited)
	case "hover":
		return state.Has(dom.StateHover)
	case "focus":
		return state.Has(dom.StateFocus)
	case "active":
		return state.Has(dom.StateActive)
	case "checked":
		if el.Tag == "option" {
			_, ok := el.Attr("selected")
			return ok
		}
		_, ok := el.Attr("checked")
		return ok && el.Tag == "input"
	case "disabled":
		_, ok := el.Attr("disabled")
		return ok && slices.Contains(disableables, el.Tag)
	case "enabled":
		_, ok := el.Attr("disabled")
		return !ok && slices.Contains(disableables, el.Tag)
	case "not":
		for _, arg := range ss.Args {
			if len(arg.Parts) > 0 && mc.matchAt(arg, node, len(arg.Parts)-1) {
				return false
			}
		}
		return len(ss.Args) > 0
	}
	// unknown and vendor specific pseudo-classes
	return false
}
