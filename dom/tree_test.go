package dom_test

import (
	"strings"
	"testing"

	"stylecore/dom"
)

func TestTree_AddAndNavigate(t *testing.T) {
	tr := dom.NewTree()
	html := tr.Add(dom.NoNode, "HTML", nil)
	body := tr.Add(html, "body", map[string]string{"Class": "a  b", "id": "main"})
	p1 := tr.Add(body, "p", nil)
	span := tr.Add(body, "span", nil)
	p2 := tr.Add(body, "p", nil)

	if tr.Len() != 5 {
		t.Fatalf("expected 5 elements, got %d", tr.Len())
	}
	if got := tr.Element(html).Tag; got != "html" {
		t.Errorf("expected lower-cased tag, got %q", got)
	}
	el := tr.Element(body)
	if el.ID != "main" {
		t.Errorf("expected id 'main', got %q", el.ID)
	}
	if len(el.Classes) != 2 || !el.HasClass("a") || !el.HasClass("b") {
		t.Errorf("unexpected classes %v", el.Classes)
	}
	if v, ok := el.Attr("CLASS"); !ok || v != "a  b" {
		t.Errorf("attribute lookup should be case-insensitive, got %q %v", v, ok)
	}
	if tr.Parent(p1) != body {
		t.Errorf("expected parent of p1 to be body")
	}
	if tr.PrevSibling(span) != p1 || tr.PrevSibling(p1) != dom.NoNode {
		t.Errorf("unexpected previous siblings")
	}
	if i, n := tr.Position(p2); i != 2 || n != 3 {
		t.Errorf("Position(p2) = %d/%d, want 2/3", i, n)
	}
	if i, n := tr.TypePosition(p2); i != 1 || n != 2 {
		t.Errorf("TypePosition(p2) = %d/%d, want 1/2", i, n)
	}
	if got := tr.Describe(body); got != "body#main.a.b" {
		t.Errorf("Describe = %q", got)
	}
}

func TestTree_LevelsAndWalk(t *testing.T) {
	tr := dom.NewTree()
	root := tr.Add(dom.NoNode, "div", nil)
	a := tr.Add(root, "a", nil)
	tr.Add(a, "b", nil)
	tr.Add(root, "c", nil)

	levels := tr.Levels()
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	if len(levels[1]) != 2 || len(levels[2]) != 1 {
		t.Errorf("unexpected level sizes: %v", levels)
	}

	var order []string
	_ = tr.Walk(func(id dom.NodeID, depth int) error {
		order = append(order, strings.Repeat("-", depth)+tr.Element(id).Tag)
		return nil
	})
	if got := strings.Join(order, " "); got != "div -a --b -c" {
		t.Errorf("walk order = %q", got)
	}
}

func TestTree_InvalidNodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid node")
		}
	}()
	dom.NewTree().Element(3)
}

func TestFromHTML(t *testing.T) {
	src := `<!DOCTYPE html><html><head><style>p { color: red }</style></head>
<body><div id="x" class="box big"><p>text</p><p></p></div></body></html>`

	tr, styles, err := dom.FromHTML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if len(styles) != 1 || !strings.Contains(styles[0], "color: red") {
		t.Errorf("unexpected styles %q", styles)
	}

	var div, full, empty dom.NodeID = dom.NoNode, dom.NoNode, dom.NoNode
	_ = tr.Walk(func(id dom.NodeID, _ int) error {
		el := tr.Element(id)
		switch {
		case el.ID == "x":
			div = id
		case el.Tag == "p" && el.Text:
			full = id
		case el.Tag == "p":
			empty = id
		}
		return nil
	})
	if div == dom.NoNode || full == dom.NoNode || empty == dom.NoNode {
		t.Fatalf("expected div and two paragraphs, got %d %d %d", div, full, empty)
	}
	if !tr.Element(div).HasClass("big") {
		t.Error("expected class 'big' on div")
	}
	if tr.Parent(full) != div {
		t.Error("expected paragraph to be a child of div")
	}
}

func TestStates(t *testing.T) {
	var none dom.States
	if none.Of(1) != 0 {
		t.Error("nil States must report no state")
	}
	s := dom.States{1: dom.StateHover | dom.StateFocus}
	if !s.Of(1).Has(dom.StateHover) || s.Of(1).Has(dom.StateActive) {
		t.Error("unexpected state bits")
	}
	if got := s.Of(1).String(); got != "hover|focus" {
		t.Errorf("String() = %q", got)
	}
}
