package cascade

import (
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	stylecss "stylecore/css"
)

// varState tracks custom property resolution for one element.
type varState struct {
	raw      map[string]string // cascaded values, before substitution
	resolved map[string]string
	invalid  map[string]bool // guaranteed-invalid after resolution
	visiting []string
	cyclic   map[string]bool
	// dropped by an ancestor for being on a cycle and not redefined here
	inheritedCyclic map[string]bool
	diags           stylecss.Diagnostics
}

func newVarState(raw map[string]string, inheritedCyclic map[string]bool) *varState {
	return &varState{
		raw:             raw,
		resolved:        make(map[string]string, len(raw)),
		invalid:         make(map[string]bool),
		cyclic:          make(map[string]bool),
		inheritedCyclic: inheritedCyclic,
	}
}

// cyclicNames returns custom properties invalid because of a cycle, on this
// element or inherited, nil when there are none.
func (vs *varState) cyclicNames() map[string]bool {
	if len(vs.cyclic) == 0 && len(vs.inheritedCyclic) == 0 {
		return nil
	}
	out := make(map[string]bool, len(vs.cyclic)+len(vs.inheritedCyclic))
	for n := range vs.inheritedCyclic {
		out[n] = true
	}
	for n := range vs.cyclic {
		out[n] = true
	}
	return out
}

// resolveAll resolves every cascaded custom property and returns the
// environment inherited by children. Invalid properties are left out.
func (vs *varState) resolveAll() map[string]string {
	for name := range vs.raw {
		vs.lookup(name)
	}
	return vs.resolved
}

// lookup returns the substituted value of a custom property.
func (vs *varState) lookup(name string) (string, bool) {
	if v, ok := vs.resolved[name]; ok {
		return v, true
	}
	if vs.invalid[name] {
		return "", false
	}
	raw, ok := vs.raw[name]
	if !ok {
		return "", false
	}
	for i, n := range vs.visiting {
		if n != name {
			continue
		}
		// every property on the loop is invalid, not just the one closing it
		loop := append(vs.visiting[i:len(vs.visiting):len(vs.visiting)], name)
		for _, m := range vs.visiting[i:] {
			vs.cyclic[m] = true
		}
		vs.diags = append(vs.diags, stylecss.Diagnostic{
			Kind:    stylecss.CyclicVariable,
			Message: "custom property cycle " + strings.Join(loop, " -> "),
			Context: name,
		})
		return "", false
	}

	vs.visiting = append(vs.visiting, name)
	v, err := vs.substitute(raw)
	vs.visiting = vs.visiting[:len(vs.visiting)-1]

	if err != nil || vs.cyclic[name] {
		vs.invalid[name] = true
		return "", false
	}
	vs.resolved[name] = v
	return v, true
}

// substitute replaces var() references in raw. An unresolvable reference
// without fallback makes the whole value invalid.
func (vs *varState) substitute(raw string) (string, error) {
	if !stylecss.HasVar(raw) {
		return raw, nil
	}
	toks := lexValue(raw)
	var sb strings.Builder
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.tt != css.FunctionToken || !strings.EqualFold(t.data, "var(") {
			sb.WriteString(t.data)
			continue
		}
		end := closingParen(toks, i)
		if end < 0 {
			return "", fmt.Errorf("unterminated var() in %q: %w", raw, stylecss.ErrInvalidValue)
		}
		v, err := vs.reference(toks[i+1 : end])
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
		i = end
	}
	return strings.TrimSpace(sb.String()), nil
}

// reference resolves the arguments of one var() call.
func (vs *varState) reference(args []lexed) (string, error) {
	args = trimLexed(args)
	if len(args) == 0 || args[0].tt != css.IdentToken || !stylecss.IsCustomProperty(args[0].data) {
		return "", fmt.Errorf("var() without custom property name: %w", stylecss.ErrInvalidValue)
	}
	name := args[0].data
	if v, ok := vs.lookup(name); ok {
		return v, nil
	}

	rest := trimLexed(args[1:])
	if len(rest) == 0 || rest[0].tt != css.CommaToken {
		if vs.cyclic[name] || vs.inheritedCyclic[name] {
			return "", fmt.Errorf("%s is on a custom property cycle: %w", name, stylecss.ErrCyclicVariable)
		}
		return "", fmt.Errorf("%s is not defined: %w", name, stylecss.ErrInvalidValue)
	}
	var fallback strings.Builder
	for _, t := range rest[1:] {
		fallback.WriteString(t.data)
	}
	return vs.substitute(strings.TrimSpace(fallback.String()))
}

type lexed struct {
	tt   css.TokenType
	data string
}

func lexValue(s string) []lexed {
	var (
		l    = css.NewLexer(parse.NewInputString(s))
		toks []lexed
	)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return toks
		case css.CommentToken:
			tt, data = css.WhitespaceToken, []byte(" ")
		case css.WhitespaceToken:
			data = []byte(" ")
		case css.CustomPropertyNameToken:
			tt = css.IdentToken
		}
		toks = append(toks, lexed{tt: tt, data: string(data)})
	}
}

// closingParen returns the index of the token closing the function or
// parenthesis opened at open, -1 when unbalanced.
func closingParen(toks []lexed, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func trimLexed(toks []lexed) []lexed {
	for len(toks) > 0 && toks[0].tt == css.WhitespaceToken {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].tt == css.WhitespaceToken {
		toks = toks[:len(toks)-1]
	}
	return toks
}
