package render

import (
	"strings"

	"stylecore/css"
)

// BackgroundLayer is one comma separated layer of the background. The
// bottom-most layer comes last, as written.
type BackgroundLayer struct {
	Image      css.Value `json:"image"`
	Repeat     string    `json:"repeat,omitempty"`
	Position   string    `json:"position,omitempty"`
	Size       string    `json:"size,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
}

// BorderEdge is the paint description of one border side.
type BorderEdge struct {
	Width float64   `json:"width"`
	Style string    `json:"style"`
	Color css.Color `json:"color"`
}

// Radius is an elliptical corner radius in px.
type Radius struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Corners holds the four corner radii.
type Corners struct {
	TopLeft     Radius `json:"top_left"`
	TopRight    Radius `json:"top_right"`
	BottomRight Radius `json:"bottom_right"`
	BottomLeft  Radius `json:"bottom_left"`
}

// Font is the decomposed font of the element.
type Font struct {
	Families   []string `json:"families"`
	Size       float64  `json:"size"`
	Weight     int      `json:"weight"`
	Style      string   `json:"style"`
	Variant    string   `json:"variant"`
	Stretch    string   `json:"stretch"`
	LineHeight float64  `json:"line_height"`
}

// TextDecoration lists decoration lines with their style and color.
type TextDecoration struct {
	Lines []string  `json:"lines,omitempty"`
	Style string    `json:"style"`
	Color css.Color `json:"color"`
}

// Shadow is one box-shadow or text-shadow entry.
type Shadow struct {
	OffsetX float64   `json:"offset_x"`
	OffsetY float64   `json:"offset_y"`
	Blur    float64   `json:"blur"`
	Spread  float64   `json:"spread"`
	Color   css.Color `json:"color"`
	Inset   bool      `json:"inset,omitempty"`
}

// Outline is drawn outside the border box and takes no space.
type Outline struct {
	Width  float64   `json:"width"`
	Style  string    `json:"style"`
	Color  css.Color `json:"color"`
	Offset float64   `json:"offset"`
}

// PaintProperties is what a rasterizer needs to draw the element.
type PaintProperties struct {
	BackgroundColor css.Color         `json:"background_color"`
	Background      []BackgroundLayer `json:"background,omitempty"`
	Border          [4]BorderEdge     `json:"border"` // top, right, bottom, left
	Radii           Corners           `json:"radii"`
	Color           css.Color         `json:"color"`
	Font            Font              `json:"font"`
	TextDecoration  TextDecoration    `json:"text_decoration"`
	BoxShadows      []Shadow          `json:"box_shadows,omitempty"`
	TextShadows     []Shadow          `json:"text_shadows,omitempty"`
	Transform       []css.Func        `json:"transform,omitempty"`
	Filters         []css.Func        `json:"filters,omitempty"`
	Opacity         float64           `json:"opacity"`
	Visibility      string            `json:"visibility"`
	Outline         Outline           `json:"outline"`
}

// Visible reports whether anything of the element gets painted.
func (p PaintProperties) Visible() bool {
	return p.Visibility == "visible" && p.Opacity > 0
}

func (e *evaluator) paint() PaintProperties {
	p := PaintProperties{
		BackgroundColor: e.color("background-color"),
		Background:      e.backgroundLayers(),
		Color:           e.color("color"),
		Font:            e.font(),
		TextDecoration:  e.textDecoration(),
		BoxShadows:      e.shadows("box-shadow"),
		TextShadows:     e.shadows("text-shadow"),
		Transform:       funcs(e.style.Value("transform")),
		Filters:         funcs(e.style.Value("filter")),
		Opacity:         min(1, max(0, e.number("opacity", 1))),
		Visibility:      e.keyword("visibility"),
		Outline:         e.outline(),
	}
	if p.Visibility == "" {
		p.Visibility = "visible"
	}
	for i, side := range sides {
		p.Border[i] = BorderEdge{
			Width: e.borderWidth("border-" + side),
			Style: e.keyword("border-" + side + "-style"),
			Color: e.color("border-" + side + "-color"),
		}
	}
	p.Radii = Corners{
		TopLeft:     e.radius("border-top-left-radius"),
		TopRight:    e.radius("border-top-right-radius"),
		BottomRight: e.radius("border-bottom-right-radius"),
		BottomLeft:  e.radius("border-bottom-left-radius"),
	}
	return p
}

// backgroundLayers builds one layer per background-image entry. Shorter
// lists of the other background properties repeat to match.
func (e *evaluator) backgroundLayers() []BackgroundLayer {
	images := commaItems(e.style.Value("background-image"))
	if len(images) == 0 || len(images) == 1 && images[0].IsKeyword("none") {
		return nil
	}
	cycle := func(prop string) func(int) string {
		items := commaItems(e.style.Value(prop))
		return func(i int) string {
			if len(items) == 0 {
				return ""
			}
			return items[i%len(items)].Raw
		}
	}
	repeat, position := cycle("background-repeat"), cycle("background-position")
	size, attachment := cycle("background-size"), cycle("background-attachment")

	layers := make([]BackgroundLayer, 0, len(images))
	for i, img := range images {
		layers = append(layers, BackgroundLayer{
			Image:      img,
			Repeat:     repeat(i),
			Position:   position(i),
			Size:       size(i),
			Attachment: attachment(i),
		})
	}
	return layers
}

// radius resolves "x" or "x y" corner radii, percentages refer to the
// containing width.
func (e *evaluator) radius(prop string) Radius {
	items := spaceItems(e.style.Value(prop))
	if len(items) == 0 {
		return Radius{}
	}
	x, _ := e.length(items[0], e.ctx.ContainingWidth, true)
	y := x
	if len(items) > 1 {
		y, _ = e.length(items[1], e.ctx.ContainingWidth, true)
	}
	return Radius{X: max(0, x), Y: max(0, y)}
}

var fontWeights = map[string]int{"normal": 400, "bold": 700, "bolder": 700, "lighter": 100}

func (e *evaluator) font() Font {
	f := Font{
		Size:    e.style.FontSize,
		Weight:  400,
		Style:   e.keyword("font-style"),
		Variant: e.keyword("font-variant"),
		Stretch: e.keyword("font-stretch"),
	}
	for _, item := range commaItems(e.style.Value("font-family")) {
		name := item.Raw
		if item.Kind == css.KindString {
			name = item.Str
		}
		if name = strings.TrimSpace(name); name != "" {
			f.Families = append(f.Families, name)
		}
	}

	w := e.style.Value("font-weight")
	switch w.Kind {
	case css.KindNumber:
		f.Weight = int(min(1000, max(1, w.Number)))
	case css.KindKeyword:
		if n, ok := fontWeights[w.Keyword]; ok {
			f.Weight = n
		}
	}

	lh := e.style.Value("line-height")
	switch lh.Kind {
	case css.KindNumber:
		f.LineHeight = lh.Number * f.Size
	case css.KindPercentage:
		f.LineHeight = lh.Number * f.Size / 100
	case css.KindLength:
		f.LineHeight, _ = e.length(lh, 0, false)
	default:
		f.LineHeight = 1.2 * f.Size
	}
	return f
}

func (e *evaluator) textDecoration() TextDecoration {
	td := TextDecoration{
		Style: e.keyword("text-decoration-style"),
		Color: e.color("text-decoration-color"),
	}
	for _, item := range spaceItems(e.style.Value("text-decoration-line")) {
		if item.Kind == css.KindKeyword && item.Keyword != "none" {
			td.Lines = append(td.Lines, item.Keyword)
		}
	}
	return td
}

// shadows parses a comma separated shadow list in source order. Entries
// which are not shadows are dropped. A missing color is the element color.
func (e *evaluator) shadows(prop string) []Shadow {
	v := e.style.Value(prop)
	if v.IsKeyword("none") {
		return nil
	}
	var out []Shadow
	for _, entry := range commaItems(v) {
		s := Shadow{Color: e.color("color")}
		var lengths []float64
		ok := true
		for _, c := range spaceItems(entry) {
			if c.IsKeyword("inset") {
				s.Inset = true
				continue
			}
			if px, isLen := e.length(c, 0, false); isLen {
				lengths = append(lengths, px)
				continue
			}
			if col, isColor := c.AsColor(); isColor {
				s.Color = col
				continue
			}
			if c.IsKeyword("currentcolor") {
				continue
			}
			ok = false
		}
		if !ok || len(lengths) < 2 || len(lengths) > 4 {
			continue
		}
		s.OffsetX, s.OffsetY = lengths[0], lengths[1]
		if len(lengths) > 2 {
			s.Blur = max(0, lengths[2])
		}
		if len(lengths) > 3 {
			s.Spread = lengths[3]
		}
		out = append(out, s)
	}
	return out
}

func (e *evaluator) outline() Outline {
	o := Outline{
		Style: e.keyword("outline-style"),
		Color: e.color("outline-color"),
	}
	o.Offset, _ = e.length(e.style.Value("outline-offset"), 0, false)
	if o.Style == "" || o.Style == "none" {
		return o
	}
	w := e.style.Value("outline-width")
	if w.Kind == css.KindKeyword {
		o.Width, _ = css.BorderWidthKeyword(w.Keyword)
	} else {
		px, _ := e.length(w, 0, false)
		o.Width = max(0, px)
	}
	return o
}

func funcs(v css.Value) []css.Func {
	switch v.Kind {
	case css.KindTransformList, css.KindFilterList, css.KindFunction:
		return v.Funcs
	}
	return nil
}
