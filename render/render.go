// Package render derives box-model edges, paint attributes and stacking
// information from computed styles. It performs no layout: sizes depending
// on layout stay auto.
package render

import (
	"stylecore/cascade"
	"stylecore/css"
	"stylecore/dom"
)

// Context is what the caller knows about the element's surroundings.
type Context struct {
	Media            css.MediaContext
	ContainingWidth  float64 // reference for percentages, viewport width when zero
	ContainingHeight float64 // height percentages resolve only when positive
}

// RenderedElement is everything a layout or paint collaborator needs about
// one element.
type RenderedElement struct {
	Node     dom.NodeID      `json:"node"`
	Display  string          `json:"display"`
	Box      BoxModel        `json:"box"`
	Paint    PaintProperties `json:"paint"`
	Stacking StackingInfo    `json:"stacking"`
}

// Render computes the rendered form of node from its computed style.
func Render(tree *dom.Tree, node dom.NodeID, style *cascade.ComputedStyle, ctx Context) RenderedElement {
	e := newEvaluator(style, ctx)
	return RenderedElement{
		Node:     node,
		Display:  e.keyword("display"),
		Box:      e.box(),
		Paint:    e.paint(),
		Stacking: e.stacking(tree.Parent(node) == dom.NoNode),
	}
}

// RenderTree renders every element with a computed style. Each element uses
// the content width of its parent as containing width when that is known,
// otherwise the containing width of the parent. The result is indexed by
// NodeID; elements without style have a zero RenderedElement.
func RenderTree(tree *dom.Tree, styles *cascade.TreeStyles, ctx Context) []RenderedElement {
	out := make([]RenderedElement, tree.Len())
	containing := make([]Context, tree.Len())
	_ = tree.Walk(func(id dom.NodeID, _ int) error {
		cctx := ctx
		if p := tree.Parent(id); p != dom.NoNode {
			cctx = containing[p]
		}
		style := styles.Style(id)
		if style == nil {
			containing[id] = cctx
			return nil
		}
		re := Render(tree, id, style, cctx)
		out[id] = re

		next := cctx
		if !re.Box.Width.Auto {
			next.ContainingWidth = re.Box.Width.Px
		}
		if !re.Box.Height.Auto {
			next.ContainingHeight = re.Box.Height.Px
		} else {
			next.ContainingHeight = 0
		}
		containing[id] = next
		return nil
	})
	return out
}

// evaluator reads typed values out of a computed style.
type evaluator struct {
	style *cascade.ComputedStyle
	ctx   Context
	lctx  css.LengthContext
}

func newEvaluator(style *cascade.ComputedStyle, ctx Context) *evaluator {
	if ctx.ContainingWidth <= 0 {
		ctx.ContainingWidth = ctx.Media.Width
	}
	return &evaluator{style: style, ctx: ctx, lctx: style.LengthContext(ctx.Media)}
}

func (e *evaluator) keyword(prop string) string {
	return e.style.Keyword(prop)
}

// length converts v to px with percentages against base. ok is false for
// keywords and percentages without a base.
func (e *evaluator) length(v css.Value, base float64, hasBase bool) (float64, bool) {
	lc := e.lctx
	lc.PercentBase, lc.HasPercentBase = base, hasBase
	return v.ToPx(lc)
}

// widthLength converts a property value with percentages against the
// containing width, keywords give 0.
func (e *evaluator) widthLength(prop string) float64 {
	px, _ := e.length(e.style.Value(prop), e.ctx.ContainingWidth, true)
	return px
}

func (e *evaluator) color(prop string) css.Color {
	c, _ := e.style.Color(prop)
	return c
}

func (e *evaluator) number(prop string, def float64) float64 {
	if n, ok := e.style.Number(prop); ok {
		return n
	}
	return def
}

// commaItems splits a comma separated list value, a single value is a list
// of one.
func commaItems(v css.Value) []css.Value {
	switch {
	case !v.IsValid():
		return nil
	case v.Kind == css.KindList && v.Comma:
		return v.List
	}
	return []css.Value{v}
}

// spaceItems splits a space separated value into its components.
func spaceItems(v css.Value) []css.Value {
	if v.Kind == css.KindList && !v.Comma {
		return v.List
	}
	return []css.Value{v}
}
