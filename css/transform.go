package css

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

var knownTransforms = map[string]bool{
	"matrix": true, "matrix3d": true,
	"translate": true, "translatex": true, "translatey": true, "translatez": true, "translate3d": true,
	"scale": true, "scalex": true, "scaley": true, "scalez": true, "scale3d": true,
	"rotate": true, "rotatex": true, "rotatey": true, "rotatez": true, "rotate3d": true,
	"skew": true, "skewx": true, "skewy": true,
	"perspective": true,
}

var knownFilters = map[string]bool{
	"blur": true, "brightness": true, "contrast": true, "drop-shadow": true, "grayscale": true,
	"hue-rotate": true, "invert": true, "opacity": true, "saturate": true, "sepia": true,
	"url": true,
}

// parseFuncListValue parses a whitespace separated list of function calls
// (transforms or filters). "none" yields a keyword. Unknown functions are
// preserved with Known set to false.
func parseFuncListValue(toks []token, kind ValueKind, known map[string]bool) (Value, error) {
	if len(toks) == 1 && toks[0].isIdent("none") {
		return Keyword("none"), nil
	}
	v := Value{Kind: kind, Raw: joinTokens(toks)}
	for _, comp := range components(toks) {
		t := comp[0]
		switch {
		case t.is(css.URLToken) && len(comp) == 1:
			target := Value{Kind: KindURL, Raw: t.data, Str: urlTarget(t.data)}
			v.Funcs = append(v.Funcs, Func{Name: "url", Args: []Value{target}, Known: known["url"]})
		case t.is(css.FunctionToken):
			end := closing(comp, 0)
			if end != len(comp)-1 {
				return Value{}, fmt.Errorf("unbalanced function %q: %w", joinTokens(comp), ErrInvalidValue)
			}
			name := strings.ToLower(strings.TrimSuffix(t.data, "("))
			v.Funcs = append(v.Funcs, Func{Name: name, Args: parseArgs(comp[1:end]), Known: known[name]})
		default:
			return Value{}, fmt.Errorf("function expected, got %q: %w", joinTokens(comp), ErrInvalidValue)
		}
	}
	if len(v.Funcs) == 0 {
		return Value{}, fmt.Errorf("empty function list: %w", ErrInvalidValue)
	}
	return v, nil
}
