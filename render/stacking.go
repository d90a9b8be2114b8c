package render

import (
	"slices"

	"stylecore/css"
	"stylecore/dom"
)

// StackingInfo tells how the element takes part in painting order.
type StackingInfo struct {
	Position   string `json:"position"`
	Positioned bool   `json:"positioned"`
	ZIndex     int    `json:"z_index"`
	ZAuto      bool   `json:"z_auto,omitempty"`

	CreatesStackingContext bool     `json:"creates_stacking_context"`
	StackingReasons        []string `json:"stacking_reasons,omitempty"`

	CreatesBlockFormattingContext bool     `json:"creates_block_formatting_context"`
	BFCReasons                    []string `json:"bfc_reasons,omitempty"`
}

var bfcDisplays = map[string]bool{
	"inline-block": true, "table-cell": true, "table-caption": true, "flow-root": true,
	"flex": true, "inline-flex": true, "grid": true, "inline-grid": true,
}

var bfcContain = map[string]bool{"layout": true, "paint": true, "strict": true, "content": true}

func (e *evaluator) stacking(root bool) StackingInfo {
	s := StackingInfo{Position: e.keyword("position")}
	if s.Position == "" {
		s.Position = "static"
	}
	s.Positioned = s.Position != "static"

	z := e.style.Value("z-index")
	if z.Kind == css.KindNumber {
		s.ZIndex = int(z.Number)
	} else {
		s.ZAuto = true
	}

	sc := func(reason string) { s.StackingReasons = append(s.StackingReasons, reason) }
	if root {
		sc("root")
	}
	if s.Positioned && !s.ZAuto {
		sc("z-index")
	}
	if s.Position == "fixed" || s.Position == "sticky" {
		sc("position")
	}
	if e.number("opacity", 1) < 1 {
		sc("opacity")
	}
	if len(funcs(e.style.Value("transform"))) > 0 {
		sc("transform")
	}
	if len(funcs(e.style.Value("filter"))) > 0 {
		sc("filter")
	}
	if e.keyword("isolation") == "isolate" {
		sc("isolation")
	}
	if mb := e.keyword("mix-blend-mode"); mb != "" && mb != "normal" {
		sc("mix-blend-mode")
	}
	s.CreatesStackingContext = len(s.StackingReasons) > 0

	bfc := func(reason string) { s.BFCReasons = append(s.BFCReasons, reason) }
	if root {
		bfc("root")
	}
	if f := e.keyword("float"); f != "" && f != "none" {
		bfc("float")
	}
	if s.Position == "absolute" || s.Position == "fixed" {
		bfc("position")
	}
	if bfcDisplays[e.keyword("display")] {
		bfc("display")
	}
	for _, prop := range []string{"overflow-x", "overflow-y"} {
		if o := e.keyword(prop); o != "" && o != "visible" && o != "clip" {
			bfc("overflow")
			break
		}
	}
	for _, c := range spaceItems(e.style.Value("contain")) {
		if c.Kind == css.KindKeyword && bfcContain[c.Keyword] {
			bfc("contain")
			break
		}
	}
	s.CreatesBlockFormattingContext = len(s.BFCReasons) > 0
	return s
}

// StackingContext is a node of the stacking context tree. Children are split
// by z-index: negative and positive ones sorted ascending, zero and auto
// ones in document order.
type StackingContext struct {
	Node     dom.NodeID         `json:"node"`
	ZIndex   int                `json:"z_index"`
	Negative []*StackingContext `json:"negative,omitempty"`
	Zero     []*StackingContext `json:"zero,omitempty"`
	Positive []*StackingContext `json:"positive,omitempty"`
}

func (sc *StackingContext) add(child *StackingContext) {
	switch {
	case child.ZIndex < 0:
		sc.Negative = append(sc.Negative, child)
	case child.ZIndex > 0:
		sc.Positive = append(sc.Positive, child)
	default:
		sc.Zero = append(sc.Zero, child)
	}
}

// PaintOrder returns the nodes of the contexts in back to front order. A
// context paints its own background below its negative children.
func (sc *StackingContext) PaintOrder() []dom.NodeID {
	var out []dom.NodeID
	var visit func(c *StackingContext)
	visit = func(c *StackingContext) {
		if c.Node != dom.NoNode {
			out = append(out, c.Node)
		}
		for _, n := range c.Negative {
			visit(n)
		}
		for _, n := range c.Zero {
			visit(n)
		}
		for _, n := range c.Positive {
			visit(n)
		}
	}
	visit(sc)
	return out
}

// BuildStackingTree arranges the elements creating stacking contexts into a
// tree under a synthetic top context with Node set to dom.NoNode. rendered
// is indexed by NodeID as returned by RenderTree.
func BuildStackingTree(tree *dom.Tree, rendered []RenderedElement) *StackingContext {
	top := &StackingContext{Node: dom.NoNode}
	owner := make([]*StackingContext, tree.Len())
	_ = tree.Walk(func(id dom.NodeID, _ int) error {
		parent := top
		if p := tree.Parent(id); p != dom.NoNode {
			parent = owner[p]
		}
		owner[id] = parent
		if int(id) >= len(rendered) || !rendered[id].Stacking.CreatesStackingContext {
			return nil
		}
		st := rendered[id].Stacking
		sc := &StackingContext{Node: id}
		if st.Positioned && !st.ZAuto {
			sc.ZIndex = st.ZIndex
		}
		parent.add(sc)
		owner[id] = sc
		return nil
	})
	sortContexts(top)
	return top
}

func sortContexts(sc *StackingContext) {
	byZ := func(a, b *StackingContext) int { return a.ZIndex - b.ZIndex }
	slices.SortStableFunc(sc.Negative, byZ)
	slices.SortStableFunc(sc.Positive, byZ)
	for _, list := range [][]*StackingContext{sc.Negative, sc.Zero, sc.Positive} {
		for _, c := range list {
			sortContexts(c)
		}
	}
}
