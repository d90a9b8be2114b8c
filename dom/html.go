package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// FromHTML parses an HTML document and returns its element tree. Only element
// nodes are kept; text nodes only mark their parent as non-empty.
// The content of <style> elements is returned separately in document order.
func FromHTML(r io.Reader) (*Tree, []string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse html: %w", err)
	}
	t := NewTree()
	var styles []string

	var visit func(n *html.Node, parent NodeID)
	visit = func(n *html.Node, parent NodeID) {
		switch n.Type {
		case html.ElementNode:
			attrs := make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
			id := t.Add(parent, n.Data, attrs)
			if strings.EqualFold(n.Data, "style") {
				var sb strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						sb.WriteString(c.Data)
					}
				}
				styles = append(styles, sb.String())
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c, id)
			}
		case html.TextNode:
			if parent != NoNode && strings.TrimSpace(n.Data) != "" {
				t.MarkText(parent)
			}
		case html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c, parent)
			}
		}
	}
	visit(doc, NoNode)
	return t, styles, nil
}
