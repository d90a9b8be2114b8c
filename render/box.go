package render

import (
	"math"
	"strconv"

	"stylecore/css"
)

// Edges holds per-side px values.
type Edges struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Horizontal returns left + right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns top + bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Dimension is a px size or auto when it depends on layout.
type Dimension struct {
	Px   float64 `json:"px"`
	Auto bool    `json:"auto,omitempty"`
}

func (d Dimension) String() string {
	if d.Auto {
		return "auto"
	}
	return strconv.FormatFloat(d.Px, 'f', -1, 64) + "px"
}

func (d Dimension) add(n float64) Dimension {
	if d.Auto {
		return d
	}
	return Dimension{Px: d.Px + n}
}

// Size is a pair of dimensions.
type Size struct {
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
}

// AutoMargins flags sides with margin: auto, their px value is 0.
type AutoMargins struct {
	Top, Right, Bottom, Left bool
}

// BoxModel is the box-sizing aware description of the element boxes. Width
// and Height are content box sizes.
type BoxModel struct {
	BoxSizing   string      `json:"box_sizing"`
	Width       Dimension   `json:"width"`
	Height      Dimension   `json:"height"`
	Padding     Edges       `json:"padding"`
	Border      Edges       `json:"border"`
	Margin      Edges       `json:"margin"`
	AutoMargins AutoMargins `json:"auto_margins,omitzero"`
}

// PaddingBox returns the padding box size.
func (b BoxModel) PaddingBox() Size {
	return Size{
		Width:  b.Width.add(b.Padding.Horizontal()),
		Height: b.Height.add(b.Padding.Vertical()),
	}
}

// BorderBox returns the border box size.
func (b BoxModel) BorderBox() Size {
	p := b.PaddingBox()
	return Size{
		Width:  p.Width.add(b.Border.Horizontal()),
		Height: p.Height.add(b.Border.Vertical()),
	}
}

// MarginBox returns the margin box size.
func (b BoxModel) MarginBox() Size {
	bb := b.BorderBox()
	return Size{
		Width:  bb.Width.add(b.Margin.Horizontal()),
		Height: bb.Height.add(b.Margin.Vertical()),
	}
}

var sides = [4]string{"top", "right", "bottom", "left"}

func (e *evaluator) box() BoxModel {
	b := BoxModel{BoxSizing: e.keyword("box-sizing")}
	if b.BoxSizing == "" {
		b.BoxSizing = "content-box"
	}

	var padding, border, margin [4]float64
	var auto [4]bool
	for i, side := range sides {
		// vertical padding and margin percentages refer to the containing width too
		padding[i] = max(0, e.widthLength("padding-"+side))
		border[i] = e.borderWidth("border-" + side)
		if e.style.Value("margin-" + side).IsKeyword("auto") {
			auto[i] = true
		} else {
			margin[i] = e.widthLength("margin-" + side)
		}
	}
	b.Padding = edges(padding)
	b.Border = edges(border)
	b.Margin = edges(margin)
	b.AutoMargins = AutoMargins{Top: auto[0], Right: auto[1], Bottom: auto[2], Left: auto[3]}

	extraW := b.Padding.Horizontal() + b.Border.Horizontal()
	extraH := b.Padding.Vertical() + b.Border.Vertical()
	b.Width = e.size("width", e.ctx.ContainingWidth, true, extraW)
	b.Height = e.size("height", e.ctx.ContainingHeight, e.ctx.ContainingHeight > 0, extraH)
	return b
}

func edges(v [4]float64) Edges {
	return Edges{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}
}

// borderWidth returns the used width of one border, zero unless a visible
// style is set.
func (e *evaluator) borderWidth(prefix string) float64 {
	switch e.keyword(prefix + "-style") {
	case "", "none", "hidden":
		return 0
	}
	v := e.style.Value(prefix + "-width")
	if v.Kind == css.KindKeyword {
		w, _ := css.BorderWidthKeyword(v.Keyword)
		return w
	}
	px, _ := e.length(v, 0, false)
	return max(0, px)
}

// size resolves width or height to a content box size clamped by the min and
// max properties. extra is padding plus border, subtracted for border-box.
func (e *evaluator) size(prop string, base float64, hasBase bool, extra float64) Dimension {
	resolve := func(p string) (float64, bool) {
		px, ok := e.length(e.style.Value(p), base, hasBase)
		if !ok {
			return 0, false
		}
		if e.keyword("box-sizing") == "border-box" {
			px = max(0, px-extra)
		}
		return px, true
	}

	px, ok := resolve(prop)
	if !ok {
		return Dimension{Auto: true}
	}
	if hi, ok := resolve("max-" + prop); ok {
		px = math.Min(px, hi)
	}
	if lo, ok := resolve("min-" + prop); ok {
		px = math.Max(px, lo)
	}
	return Dimension{Px: max(0, px)}
}
