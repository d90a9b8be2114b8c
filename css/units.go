package css

import "strings"

var lengthUnits = map[string]bool{
	"px": true, "em": true, "rem": true, "ex": true, "ch": true,
	"vw": true, "vh": true, "vmin": true, "vmax": true,
	"pt": true, "pc": true, "in": true, "cm": true, "mm": true, "q": true,
}

var angleUnits = map[string]float64{"deg": 1, "rad": 57.29577951308232, "grad": 0.9, "turn": 360}

var timeUnits = map[string]float64{"s": 1000, "ms": 1}

var resolutionUnits = map[string]float64{"dppx": 1, "x": 1, "dpi": 1.0 / 96, "dpcm": 2.54 / 96}

// DefaultDPI is the CSS reference pixel density. Physical units are anchored
// to it whatever the device resolution, 1in is always 96px.
const DefaultDPI = 96

// LengthContext carries what is needed to turn relative lengths into px.
type LengthContext struct {
	FontSize       float64 // element font size in px, em and ex
	RootFontSize   float64 // root element font size in px, rem
	ViewportWidth  float64
	ViewportHeight float64
	PercentBase    float64 // reference length of percentages
	HasPercentBase bool
}

// ToPx converts a length, a percentage (when a base is known) or a unitless
// zero to px.
func (v Value) ToPx(ctx LengthContext) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		if v.Number == 0 {
			return 0, true
		}
	case KindPercentage:
		if ctx.HasPercentBase {
			return v.Number * ctx.PercentBase / 100, true
		}
	case KindLength:
		return lengthToPx(v.Number, v.Unit, ctx)
	}
	return 0, false
}

func lengthToPx(n float64, unit string, ctx LengthContext) (float64, bool) {
	const dpi = DefaultDPI
	switch strings.ToLower(unit) {
	case "px":
		return n, true
	case "in":
		return n * dpi, true
	case "cm":
		return n * dpi / 2.54, true
	case "mm":
		return n * dpi / 25.4, true
	case "q":
		return n * dpi / 101.6, true
	case "pt":
		return n * dpi / 72, true
	case "pc":
		return n * dpi / 6, true
	case "em":
		return n * ctx.FontSize, true
	case "ex", "ch":
		return n * ctx.FontSize / 2, true
	case "rem":
		return n * ctx.RootFontSize, true
	case "vw":
		return n * ctx.ViewportWidth / 100, true
	case "vh":
		return n * ctx.ViewportHeight / 100, true
	case "vmin":
		return n * min(ctx.ViewportWidth, ctx.ViewportHeight) / 100, true
	case "vmax":
		return n * max(ctx.ViewportWidth, ctx.ViewportHeight) / 100, true
	}
	return 0, false
}

// Degrees returns an angle in degrees.
func (v Value) Degrees() (float64, bool) {
	if v.Kind == KindNumber && v.Number == 0 {
		return 0, true
	}
	f, ok := angleUnits[v.Unit]
	if v.Kind != KindAngle || !ok {
		return 0, false
	}
	return v.Number * f, true
}

// Milliseconds returns a time in milliseconds.
func (v Value) Milliseconds() (float64, bool) {
	f, ok := timeUnits[v.Unit]
	if v.Kind != KindTime || !ok {
		return 0, false
	}
	return v.Number * f, true
}

// DPPX returns a resolution in dots per CSS pixel.
func (v Value) DPPX() (float64, bool) {
	f, ok := resolutionUnits[v.Unit]
	if v.Kind != KindResolution || !ok {
		return 0, false
	}
	return v.Number * f, true
}
