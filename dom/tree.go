// Package dom holds the read-only element tree the styling core works on.
//
// Elements live in an arena and refer to each other by NodeID, so the tree can
// be shared between the HTML collaborator and any number of concurrent cascade
// runs without ownership conflicts.
package dom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// NodeID indexes an element in its Tree.
type NodeID int32

// NoNode is the parent of a root element and the result of failed lookups.
const NoNode NodeID = -1

// Element is a single arena entry.
type Element struct {
	Tag      string            // lower-cased tag name
	ID       string            // value of the id attribute
	Classes  []string          // class attribute split on whitespace, in order
	Attrs    map[string]string // all attributes, lower-cased names
	Parent   NodeID
	Children []NodeID
	Text     bool // element has non-whitespace text content (used by :empty)
}

// Attr returns attribute value and presence.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[strings.ToLower(name)]
	return v, ok
}

// HasClass reports whether the element carries class c.
func (e *Element) HasClass(c string) bool {
	return slices.Contains(e.Classes, c)
}

// Tree is an arena of elements. Tree is built once by its producer and is
// read-only afterwards.
type Tree struct {
	id    uuid.UUID
	nodes []Element
	roots []NodeID
}

// NewTree creates an empty tree with a fresh identity.
func NewTree() *Tree {
	return &Tree{id: uuid.New()}
}

// ID returns the tree identity. Computed-style caches key on it.
func (t *Tree) ID() uuid.UUID {
	return t.id
}

// Len returns number of elements in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Roots returns top level elements in document order.
func (t *Tree) Roots() []NodeID {
	return t.roots
}

// Add appends a new element under parent (NoNode for a root) and returns its id.
// The id and class attributes are lifted into the dedicated fields.
func (t *Tree) Add(parent NodeID, tag string, attrs map[string]string) NodeID {
	el := Element{
		Tag:    strings.ToLower(tag),
		Attrs:  make(map[string]string, len(attrs)),
		Parent: parent,
	}
	for k, v := range attrs {
		el.Attrs[strings.ToLower(k)] = v
	}
	el.ID = el.Attrs["id"]
	el.Classes = strings.Fields(el.Attrs["class"])

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, el)
	if parent == NoNode {
		t.roots = append(t.roots, id)
	} else {
		t.mustValid(parent)
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	}
	return id
}

// MarkText records that the element has text content.
func (t *Tree) MarkText(id NodeID) {
	t.mustValid(id)
	t.nodes[id].Text = true
}

// Element returns the element with the given id. The returned pointer must be
// treated as read-only.
func (t *Tree) Element(id NodeID) *Element {
	t.mustValid(id)
	return &t.nodes[id]
}

// Valid reports whether id refers to an element of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Parent returns the parent element or NoNode.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.Element(id).Parent
}

// Children returns child elements in document order.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.Element(id).Children
}

// siblings returns the sibling list id belongs to (including id itself).
func (t *Tree) siblings(id NodeID) []NodeID {
	if p := t.Parent(id); p != NoNode {
		return t.nodes[p].Children
	}
	return t.roots
}

// Position returns the index of id among its siblings and the number of siblings.
func (t *Tree) Position(id NodeID) (index, count int) {
	sibs := t.siblings(id)
	return slices.Index(sibs, id), len(sibs)
}

// TypePosition is like Position but only counts siblings with the same tag.
func (t *Tree) TypePosition(id NodeID) (index, count int) {
	tag := t.Element(id).Tag
	index = -1
	for _, s := range t.siblings(id) {
		if t.nodes[s].Tag != tag {
			continue
		}
		if s == id {
			index = count
		}
		count++
	}
	return index, count
}

// PrevSibling returns the immediately preceding sibling or NoNode.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	sibs := t.siblings(id)
	if i := slices.Index(sibs, id); i > 0 {
		return sibs[i-1]
	}
	return NoNode
}

// Levels returns elements grouped by depth: roots first, then their children and
// so on. Every element appears after its parent.
func (t *Tree) Levels() [][]NodeID {
	var levels [][]NodeID
	current := slices.Clone(t.roots)
	for len(current) > 0 {
		levels = append(levels, current)
		var next []NodeID
		for _, id := range current {
			next = append(next, t.nodes[id].Children...)
		}
		current = next
	}
	return levels
}

// Walk visits all elements depth first in document order. Returning an error
// from fn stops the walk.
func (t *Tree) Walk(fn func(id NodeID, depth int) error) error {
	var visit func(id NodeID, depth int) error
	visit = func(id NodeID, depth int) error {
		if err := fn(id, depth); err != nil {
			return err
		}
		for _, c := range t.nodes[id].Children {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range t.roots {
		if err := visit(r, 0); err != nil {
			return err
		}
	}
	return nil
}

// Describe returns a short selector-like label for the element, e.g. "div#main.note".
func (t *Tree) Describe(id NodeID) string {
	el := t.Element(id)
	var sb strings.Builder
	sb.WriteString(el.Tag)
	if el.ID != "" {
		sb.WriteString("#" + el.ID)
	}
	for _, c := range el.Classes {
		sb.WriteString("." + c)
	}
	return sb.String()
}

func (t *Tree) mustValid(id NodeID) {
	if !t.Valid(id) {
		panic(fmt.Sprintf("dom: node %d is not part of the tree (len %d)", id, len(t.nodes)))
	}
}
