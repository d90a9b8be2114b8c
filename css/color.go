package css

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Color is a canonical sRGB color with straight alpha in [0,1]. Hex caches
// the #rrggbb (or #rrggbbaa when translucent) form.
type Color struct {
	R, G, B uint8
	A       float64
	Hex     string
}

// NewColor builds a color, clamping alpha and filling Hex.
func NewColor(r, g, b uint8, a float64) Color {
	c := Color{R: r, G: g, B: b, A: clamp(a, 0, 1)}
	c.Hex = c.hex()
	return c
}

func (c Color) hex() string {
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, uint8(math.Round(c.A*255)))
}

// String returns the hex form.
func (c Color) String() string {
	if c.Hex == "" {
		return c.hex()
	}
	return c.Hex
}

// Transparent reports whether the color is fully transparent.
func (c Color) Transparent() bool {
	return c.A == 0
}

// ParseColor parses hex notation, rgb()/rgba(), hsl()/hsla(), hwb() and named
// colors. currentcolor is not a color by itself and is left to the caller.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return Color{}, fmt.Errorf("empty color: %w", ErrInvalidValue)
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseRGBFunc(s)
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidValue)
	}
	r, g, b, _ := c.RGBA255()
	return NewColor(r, g, b, c.A), nil
}

func parseHexColor(h string) (Color, error) {
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return Color{}, fmt.Errorf("hex color %q: %w", "#"+h, ErrInvalidValue)
		}
	}
	digit := func(i, n int) uint8 {
		v, _ := strconv.ParseUint(h[i:i+n], 16, 8)
		if n == 1 {
			v *= 17
		}
		return uint8(v)
	}
	switch len(h) {
	case 3:
		return NewColor(digit(0, 1), digit(1, 1), digit(2, 1), 1), nil
	case 4:
		return NewColor(digit(0, 1), digit(1, 1), digit(2, 1), float64(digit(3, 1))/255), nil
	case 6:
		return NewColor(digit(0, 2), digit(2, 2), digit(4, 2), 1), nil
	case 8:
		return NewColor(digit(0, 2), digit(2, 2), digit(4, 2), float64(digit(6, 2))/255), nil
	}
	return Color{}, fmt.Errorf("hex color %q: %w", "#"+h, ErrInvalidValue)
}

// parseRGBFunc handles both legacy comma and modern space separated syntax.
// Channels are clamped to [0,255], alpha to [0,1].
func parseRGBFunc(s string) (Color, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidValue)
	}
	body := strings.NewReplacer(",", " ", "/", " / ").Replace(s[open+1 : end])
	fields := strings.Fields(body)

	alpha := 1.0
	if i := slices.Index(fields, "/"); i >= 0 {
		if i != 3 || len(fields) != 5 {
			return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidValue)
		}
		a, err := parseAlpha(fields[4])
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		alpha, fields = a, fields[:3]
	} else if len(fields) == 4 {
		a, err := parseAlpha(fields[3])
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		alpha, fields = a, fields[:3]
	}
	if len(fields) != 3 {
		return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidValue)
	}
	var ch [3]uint8
	for i, f := range fields {
		var (
			v   float64
			err error
		)
		if p, ok := strings.CutSuffix(f, "%"); ok {
			v, err = strconv.ParseFloat(p, 64)
			v = v * 255 / 100
		} else {
			v, err = strconv.ParseFloat(f, 64)
		}
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, ErrInvalidValue)
		}
		ch[i] = uint8(math.Round(clamp(v, 0, 255)))
	}
	return NewColor(ch[0], ch[1], ch[2], alpha), nil
}

func parseAlpha(f string) (float64, error) {
	var (
		v   float64
		err error
	)
	if p, ok := strings.CutSuffix(f, "%"); ok {
		v, err = strconv.ParseFloat(p, 64)
		v /= 100
	} else {
		v, err = strconv.ParseFloat(f, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("alpha %q: %w", f, ErrInvalidValue)
	}
	return clamp(v, 0, 1), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
