package css

import (
	"strconv"
	"strings"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// token is a lexed CSS token with its source line.
type token struct {
	tt   css.TokenType
	data string
	line int
	gap  bool // a comment was dropped right before the token
}

func (t token) is(tt css.TokenType) bool {
	return t.tt == tt
}

func (t token) isDelim(c byte) bool {
	return t.tt == css.DelimToken && len(t.data) == 1 && t.data[0] == c
}

func (t token) isIdent(name string) bool {
	return t.tt == css.IdentToken && strings.EqualFold(t.data, name)
}

// tokenize lexes CSS source into a token list. Comments and CDO/CDC markers
// are dropped, the token after them is flagged with gap. Runs of whitespace
// collapse into a single whitespace token.
func tokenize(src string) []token {
	return lexTokens(css.NewLexer(parse.NewInputString(src)))
}

func tokenizeBytes(src []byte) []token {
	return lexTokens(css.NewLexer(parse.NewInputBytes(src)))
}

func lexTokens(l *css.Lexer) []token {
	var (
		toks []token
		line = 1
		gap  bool
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			// io.EOF or lexer error, either way there is nothing more to read
			return toks
		}
		start := line
		line += strings.Count(string(data), "\n")
		if tt == css.CustomPropertyNameToken {
			// --name is an identifier like any other
			tt = css.IdentToken
		}
		switch tt {
		case css.CommentToken, css.CDOToken, css.CDCToken:
			gap = true
		case css.WhitespaceToken:
			gap = false
			if n := len(toks); n > 0 && toks[n-1].is(css.WhitespaceToken) {
				continue
			}
			toks = append(toks, token{tt: tt, data: " ", line: start})
		default:
			toks = append(toks, token{tt: tt, data: string(data), line: start, gap: gap})
			gap = false
		}
	}
}

// trimSpace removes leading and trailing whitespace tokens.
func trimSpace(toks []token) []token {
	for len(toks) > 0 && toks[0].is(css.WhitespaceToken) {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].is(css.WhitespaceToken) {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// joinTokens rebuilds normalized source text from tokens. Where a dropped
// comment was the only thing keeping two words apart a space takes its place,
// so the text lexes back into the same tokens.
func joinTokens(toks []token) string {
	var sb strings.Builder
	toks = trimSpace(toks)
	for i, t := range toks {
		if i > 0 && t.gap && endsWord(toks[i-1]) && startsWord(t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.data)
	}
	return sb.String()
}

func endsWord(t token) bool {
	switch t.tt {
	case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken, css.HashToken:
		return true
	}
	return false
}

func startsWord(t token) bool {
	switch t.tt {
	case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken, css.FunctionToken:
		return true
	}
	return false
}

// unescape decodes CSS escapes: a backslash followed by 1-6 hex digits and an
// optional whitespace, or by any other character taken literally. Zero,
// surrogates and out of range code points become U+FFFD.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			sb.WriteRune(utf8.RuneError)
			break
		}
		j := i + 1
		for j < len(s) && j < i+7 && isHex(s[j]) {
			j++
		}
		if j == i+1 {
			// escaped newline is dropped, anything else stands for itself
			r, size := utf8.DecodeRuneInString(s[j:])
			if r != '\n' {
				sb.WriteRune(r)
			}
			i += size
			continue
		}
		cp, _ := strconv.ParseUint(s[i+1:j], 16, 32)
		r := rune(cp)
		if r == 0 || r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
			r = utf8.RuneError
		}
		sb.WriteRune(r)
		if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		i = j - 1
	}
	return sb.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// escapeIdent is the reverse of unescape for identifiers: the result lexes
// back into a single identifier token with the same value.
func escapeIdent(s string) string {
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == 0:
			sb.WriteString("\\fffd ")
		case r < 0x20 || r == 0x7f:
			sb.WriteString("\\" + strconv.FormatInt(int64(r), 16) + " ")
		case r >= '0' && r <= '9' && (i == 0 || i == 1 && s[0] == '-'):
			sb.WriteString("\\3" + string(r) + " ")
		case r == '-' && i == 0 && len(s) == 1:
			sb.WriteString("\\-")
		case r >= 0x80, r == '-', r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// splitTopLevel splits tokens on commas which are not nested inside
// parentheses, brackets or functions.
func splitTopLevel(toks []token) [][]token {
	var (
		parts [][]token
		depth int
		start int
	)
	for i, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// closing returns the position of the token closing the block opened at
// toks[open], or -1 when the block is unbalanced.
func closing(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].tt {
		case css.LeftBraceToken, css.LeftBracketToken, css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightBraceToken, css.RightBracketToken, css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
