package css

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

// WriteTo serializes the stylesheet back to CSS. Declarations are written
// as parsed (shorthands unexpanded, importance kept), so parsing the output
// again yields equivalent rules.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for i, item := range s.Items {
		if i > 0 {
			buf.WriteByte('\n')
		}
		writeItem(&buf, item, "")
	}
	return buf.WriteTo(w)
}

// String returns the serialized stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}

func writeItem(buf *bytes.Buffer, item StylesheetItem, indent string) {
	switch {
	case item.Rule != nil:
		writeRule(buf, item.Rule, indent)
	case item.MediaBlock != nil:
		writeMediaBlock(buf, item.MediaBlock, indent)
	case item.Keyframes != nil:
		writeKeyframes(buf, item.Keyframes, indent)
	case item.FontFace != nil:
		writeFontFace(buf, item.FontFace, indent)
	case item.Import != nil:
		writeImport(buf, item.Import, indent)
	}
}

func writeDeclarations(buf *bytes.Buffer, decls []Declaration, indent string) {
	for _, d := range decls {
		buf.WriteString(indent)
		buf.WriteString(d.Property)
		buf.WriteString(": ")
		buf.WriteString(d.Raw)
		if d.Important {
			buf.WriteString(" !important")
		}
		buf.WriteString(";\n")
	}
}

func writeRule(buf *bytes.Buffer, r *Rule, indent string) {
	buf.WriteString(indent)
	buf.WriteString(r.SelectorText())
	buf.WriteString(" {\n")
	writeDeclarations(buf, r.Declarations, indent+indentUnit)
	buf.WriteString(indent)
	buf.WriteString("}\n")
}

func writeMediaBlock(buf *bytes.Buffer, mb *MediaBlock, indent string) {
	buf.WriteString(indent)
	buf.WriteString("@media ")
	buf.WriteString(mb.Queries.String())
	buf.WriteString(" {\n")
	for _, item := range mb.Items {
		writeItem(buf, item, indent+indentUnit)
	}
	buf.WriteString(indent)
	buf.WriteString("}\n")
}

func writeKeyframes(buf *bytes.Buffer, kf *Keyframes, indent string) {
	fmt.Fprintf(buf, "%s@%skeyframes %s {\n", indent, kf.Vendor, keyframesName(kf.Name))
	inner := indent + indentUnit
	for _, step := range kf.Steps {
		buf.WriteString(inner)
		buf.WriteString(step.Selector)
		buf.WriteString(" {\n")
		writeDeclarations(buf, step.Declarations, inner+indentUnit)
		buf.WriteString(inner)
		buf.WriteString("}\n")
	}
	buf.WriteString(indent)
	buf.WriteString("}\n")
}

// keyframesName quotes names which would not lex as a single identifier.
func keyframesName(name string) string {
	if toks := tokenize(name); len(toks) == 1 && toks[0].isIdent(name) {
		return name
	}
	return `"` + cssEscapeDoubleQuoted(name) + `"`
}

func writeFontFace(buf *bytes.Buffer, ff *FontFace, indent string) {
	buf.WriteString(indent)
	buf.WriteString("@font-face {\n")
	writeDeclarations(buf, ff.Declarations, indent+indentUnit)
	buf.WriteString(indent)
	buf.WriteString("}\n")
}

func writeImport(buf *bytes.Buffer, imp *Import, indent string) {
	fmt.Fprintf(buf, "%s@import url(\"%s\")", indent, cssEscapeDoubleQuoted(imp.URL))
	if len(imp.Media) > 0 {
		buf.WriteByte(' ')
		buf.WriteString(imp.Media.String())
	}
	buf.WriteString(";\n")
}

// MarshalJSON writes the selector text with its specificity.
func (s *Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Selector    string    `json:"selector"`
		Specificity [3]uint32 `json:"specificity"`
	}{
		Selector:    s.Raw,
		Specificity: [3]uint32{s.Specificity.IDs, s.Specificity.Classes, s.Specificity.Elements},
	})
}
