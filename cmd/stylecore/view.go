package main

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/maruel/natural"
	"github.com/xlab/treeprint"

	"stylecore/cascade"
	"stylecore/config"
	"stylecore/css"
	"stylecore/dom"
	"stylecore/render"
)

type propertyView struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	From      string `json:"from"`
	Origin    string `json:"origin,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Important bool   `json:"important,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type elementView struct {
	Node        dom.NodeID                `json:"node"`
	Element     string                    `json:"element"`
	Parent      dom.NodeID                `json:"parent"`
	Depth       int                       `json:"depth"`
	Properties  []propertyView            `json:"properties"`
	Variables   map[string]string         `json:"variables,omitempty"`
	Pseudo      map[string][]propertyView `json:"pseudo,omitempty"`
	Rendered    *render.RenderedElement   `json:"rendered,omitempty"`
	Diagnostics css.Diagnostics           `json:"diagnostics,omitempty"`
}

// buildViews flattens computed styles in document order. rendered may be nil.
func buildViews(tree *dom.Tree, styles *cascade.TreeStyles, rendered []render.RenderedElement, pseudo []string, out config.OutputConfig) []elementView {
	views := make([]elementView, 0, tree.Len())
	_ = tree.Walk(func(id dom.NodeID, depth int) error {
		cs := styles.Style(id)
		if cs == nil {
			return nil
		}
		v := elementView{
			Node:        id,
			Element:     tree.Describe(id),
			Parent:      tree.Parent(id),
			Depth:       depth,
			Properties:  selectProperties(cs, out),
			Diagnostics: cs.Diagnostics,
		}
		if names := cs.Variables(); len(names) > 0 {
			v.Variables = make(map[string]string, len(names))
			for _, name := range names {
				v.Variables[name], _ = cs.Variable(name)
			}
		}
		for _, name := range pseudo {
			ps := styles.Pseudo(id, name)
			if ps == nil {
				continue
			}
			if v.Pseudo == nil {
				v.Pseudo = make(map[string][]propertyView)
			}
			v.Pseudo[name] = selectProperties(ps, out)
		}
		if int(id) < len(rendered) {
			v.Rendered = &rendered[id]
		}
		views = append(views, v)
		return nil
	})
	return views
}

// selectProperties returns requested properties, or every declared one
// (and inherited ones when asked) in natural order.
func selectProperties(cs *cascade.ComputedStyle, out config.OutputConfig) []propertyView {
	names := out.Properties
	if len(names) == 0 {
		for _, name := range cs.Properties() {
			cv, _ := cs.Get(name)
			if cv.From == cascade.FromDeclaration || (out.ShowInherited && cv.From == cascade.FromParent) {
				names = append(names, name)
			}
		}
		sort.Sort(natural.StringSlice(names))
	}

	props := make([]propertyView, 0, len(names))
	for _, name := range names {
		cv, ok := cs.Get(strings.ToLower(name))
		if !ok {
			continue
		}
		p := propertyView{
			Name:  strings.ToLower(name),
			Value: cv.Value.String(),
			From:  cv.From.String(),
		}
		if cv.From == cascade.FromDeclaration {
			p.Origin = cv.Origin.String()
			p.Selector = cv.Source.Selector
			p.Important = cv.Important
			p.Line = cv.Source.Line
		}
		props = append(props, p)
	}
	return props
}

func (p propertyView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", p.Name, p.Value)
	if p.Important {
		b.WriteString(" !important")
	}
	switch {
	case p.Selector != "":
		fmt.Fprintf(&b, "  [%s %s", p.Origin, p.Selector)
		if p.Line > 0 {
			fmt.Fprintf(&b, " line %d", p.Line)
		}
		b.WriteByte(']')
	case p.Origin != "":
		fmt.Fprintf(&b, "  [%s]", p.Origin)
	default:
		fmt.Fprintf(&b, "  [%s]", p.From)
	}
	return b.String()
}

func printTree(views []elementView) string {
	root := treeprint.NewWithRoot("document")
	branches := make(map[dom.NodeID]treeprint.Tree, len(views))
	for _, v := range views {
		parent, ok := branches[v.Parent]
		if !ok {
			parent = root
		}
		branch := parent.AddBranch(v.Element)
		branches[v.Node] = branch
		for _, p := range v.Properties {
			branch.AddNode(p.String())
		}
		for _, name := range sortedKeys(v.Variables) {
			branch.AddNode(fmt.Sprintf("%s: %s", name, v.Variables[name]))
		}
		for _, name := range sortedKeys(v.Pseudo) {
			pb := branch.AddBranch("::" + name)
			for _, p := range v.Pseudo[name] {
				pb.AddNode(p.String())
			}
		}
		if r := v.Rendered; r != nil {
			rb := branch.AddBranch("render")
			rb.AddNode(fmt.Sprintf("display: %s", r.Display))
			rb.AddNode(fmt.Sprintf("border box: %s x %s", r.Box.BorderBox().Width, r.Box.BorderBox().Height))
			if r.Stacking.CreatesStackingContext {
				rb.AddNode("stacking context: " + strings.Join(r.Stacking.StackingReasons, ", "))
			}
			if r.Stacking.CreatesBlockFormattingContext {
				rb.AddNode("formatting context: " + strings.Join(r.Stacking.BFCReasons, ", "))
			}
		}
		for _, d := range v.Diagnostics {
			branch.AddNode("! " + d.Error())
		}
	}
	return root.String()
}

// executeTemplate runs tmpl once per element, one line each.
func executeTemplate(tmpl string, views []elementView) ([]byte, error) {
	t, err := template.New("element").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("unable to parse output template: %w", err)
	}
	var buf bytes.Buffer
	for _, v := range views {
		if err := t.Execute(&buf, v); err != nil {
			return nil, fmt.Errorf("unable to execute output template for %s: %w", v.Element, err)
		}
		if b := buf.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}
