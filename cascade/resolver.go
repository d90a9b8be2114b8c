// Package cascade turns parsed stylesheets and an element tree into computed
// styles: matching, the origin/importance/specificity/order cascade,
// custom-property substitution and inheritance.
package cascade

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"stylecore/css"
	"stylecore/dom"
)

// DefaultMedia is used when the caller has no viewport at hand.
var DefaultMedia = css.MediaContext{Width: 1280, Height: 720, DPI: css.DefaultDPI}

// Resolver computes styles against a fixed list of stylesheets and media
// context. It is safe for concurrent use once configured.
type Resolver struct {
	log      *zap.Logger
	media    css.MediaContext
	sheets   []*css.Stylesheet
	index    *ruleIndex
	cache    *Cache
	fontSize float64
	hash     uint64
}

// NewResolver builds the rule index for sheets, dropping rules whose media
// queries do not match. Sheets cascade in the order given, a nil sheet is a
// programmer error.
func NewResolver(log *zap.Logger, media css.MediaContext, sheets ...*css.Stylesheet) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	d := xxhash.New()
	for i, s := range sheets {
		if s == nil {
			panic(fmt.Sprintf("cascade: stylesheet %d is nil", i))
		}
		_, _ = d.Write(binary.LittleEndian.AppendUint64(nil, s.Hash))
	}
	_, _ = fmt.Fprintf(d, "%v|%v|%v|%s|%s", media.Width, media.Height, media.DPI, media.Type, media.ColorScheme)

	r := &Resolver{
		log:      log.Named("cascade"),
		media:    media,
		sheets:   sheets,
		index:    buildIndex(sheets, media),
		fontSize: 16,
		hash:     d.Sum64(),
	}
	r.log.Debug("Rule index built",
		zap.Int("sheets", len(sheets)),
		zap.Int("rules", r.index.rules),
		zap.Int("media_skipped", r.index.skipped))
	return r
}

// WithCache makes the resolver share computed styles through c. It must be
// called before the resolver is used.
func (r *Resolver) WithCache(c *Cache) *Resolver {
	r.cache = c
	return r
}

// WithDefaultFontSize sets the px size of "medium", 16 by default. It must
// be called before the resolver is used.
func (r *Resolver) WithDefaultFontSize(px float64) *Resolver {
	if px > 0 {
		r.fontSize = px
	}
	return r
}

// Media returns the media context the resolver evaluates queries against.
func (r *Resolver) Media() css.MediaContext {
	return r.media
}

type styleOptions struct {
	states dom.States
	pseudo string
}

// StyleOption modifies a single ComputeStyle call.
type StyleOption func(*styleOptions)

// WithStates supplies dynamic pseudo-class state (hover, focus...).
func WithStates(states dom.States) StyleOption {
	return func(o *styleOptions) {
		o.states = states
	}
}

// WithPseudoElement computes the style of a pseudo-element ("before",
// "after"...) of the node. The parent style passed along should be the
// style of the node itself.
func WithPseudoElement(name string) StyleOption {
	return func(o *styleOptions) {
		o.pseudo = name
	}
}

// ComputeStyle resolves the style of node. parent is the computed style of
// the parent element, nil for roots. Never fails: problems end up in the
// Diagnostics of the result.
func (r *Resolver) ComputeStyle(tree *dom.Tree, node dom.NodeID, parent *ComputedStyle, opts ...StyleOption) *ComputedStyle {
	var o styleOptions
	for _, opt := range opts {
		opt(&o)
	}
	el := tree.Element(node)

	c := &computation{
		r:      r,
		parent: parent,
		style: &ComputedStyle{
			Node:   node,
			Pseudo: o.pseudo,
			State:  o.states.Of(node),
			values: make(map[string]ComputedValue),
		},
		winners: make(map[string]*candidate),
	}
	c.matched = r.index.match(tree, node, o.states, o.pseudo)
	var inline string
	if o.pseudo == "" {
		inline, _ = el.Attr("style")
	}
	c.style.Matched = len(c.matched)
	c.style.Fingerprint = r.fingerprint(c.matched, inline, c.style, parent)

	if r.cache == nil {
		return c.run(inline, tree, node)
	}
	key := styleKey{
		tree:        tree.ID(),
		node:        node,
		pseudo:      o.pseudo,
		state:       c.style.State,
		fingerprint: c.style.Fingerprint,
	}
	return r.cache.style(key, func() *ComputedStyle {
		return c.run(inline, tree, node)
	})
}

// fingerprint hashes everything the result depends on besides the tree
// position: stylesheets and media, default font size, matched rules with their
// specificity, inline style, pseudo-element, state and the parent result.
func (r *Resolver) fingerprint(ms []matched, inline string, cs *ComputedStyle, parent *ComputedStyle) uint64 {
	d := xxhash.New()
	buf := binary.LittleEndian.AppendUint64(nil, r.hash)
	for _, m := range ms {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m.ref.sheet))
		buf = binary.LittleEndian.AppendUint32(buf, m.ref.rule.SourceOrder)
		buf = binary.LittleEndian.AppendUint32(buf, m.specificity.IDs)
		buf = binary.LittleEndian.AppendUint32(buf, m.specificity.Classes)
		buf = binary.LittleEndian.AppendUint32(buf, m.specificity.Elements)
	}
	if parent != nil {
		buf = binary.LittleEndian.AppendUint64(buf, parent.Fingerprint)
	}
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(r.fontSize))
	buf = append(buf, byte(cs.State))
	_, _ = d.Write(buf)
	_, _ = d.WriteString(cs.Pseudo)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(inline)
	return d.Sum64()
}

// ComputeStyle resolves the style of node against a single stylesheet with
// DefaultMedia. inherited is the parent's style, nil for the root.
func ComputeStyle(tree *dom.Tree, node dom.NodeID, sheet *css.Stylesheet, inherited *ComputedStyle) *ComputedStyle {
	if sheet == nil {
		panic("cascade: nil stylesheet")
	}
	return NewResolver(nil, DefaultMedia, sheet).ComputeStyle(tree, node, inherited)
}

// candidate is a declaration competing for one property.
type candidate struct {
	decl     *css.Declaration
	layer    int
	spec     css.Specificity
	sheet    int
	rule     uint32
	index    int
	origin   css.Origin
	selector string
	pending  bool // decl is a shorthand waiting for var() substitution
}

// layer places origin and importance into the cascade order, higher wins.
func layer(o css.Origin, important bool) int {
	if !important {
		switch o {
		case css.OriginUserAgent:
			return 0
		case css.OriginUser:
			return 1
		case css.OriginAuthor:
			return 2
		default:
			return 3
		}
	}
	switch o {
	case css.OriginAuthor:
		return 4
	case css.OriginInline:
		return 5
	case css.OriginUser:
		return 6
	default:
		return 7
	}
}

// beats reports whether a wins over b. Source order is unique within a
// cascade, so this is a strict total order.
func (a *candidate) beats(b *candidate) bool {
	if a.layer != b.layer {
		return a.layer > b.layer
	}
	if c := a.spec.Compare(b.spec); c != 0 {
		return c > 0
	}
	if a.sheet != b.sheet {
		return a.sheet > b.sheet
	}
	if a.rule != b.rule {
		return a.rule > b.rule
	}
	return a.index > b.index
}

// computation is the state of one ComputeStyle call.
type computation struct {
	r       *Resolver
	parent  *ComputedStyle
	style   *ComputedStyle
	matched []matched
	winners map[string]*candidate
	vars    *varState
}

func (c *computation) offer(property string, cand *candidate) {
	if cur, ok := c.winners[property]; !ok || cand.beats(cur) {
		c.winners[property] = cand
	}
}

func (c *computation) collect(decls []css.Declaration, base candidate) {
	for i := range decls {
		d := &decls[i]
		cand := base
		cand.decl = d
		cand.index = i
		cand.layer = layer(base.origin, d.Important)
		if css.IsShorthand(d.Property) {
			// only shorthands with var() or invalid ones survive expansion
			for _, lh := range css.ShorthandLonghands(d.Property) {
				pc := cand
				pc.pending = d.Value.Kind == css.KindUnresolved
				c.offer(lh, &pc)
			}
			continue
		}
		c.offer(d.Property, &cand)
	}
}

func (c *computation) diag(kind css.DiagnosticKind, msg, context string, line int) {
	c.style.Diagnostics = append(c.style.Diagnostics, css.Diagnostic{Kind: kind, Message: msg, Context: context, Line: line})
}

func (c *computation) run(inline string, tree *dom.Tree, node dom.NodeID) *ComputedStyle {
	for _, m := range c.matched {
		c.collect(m.ref.longhands, candidate{
			spec:     m.specificity,
			sheet:    m.ref.sheet,
			rule:     m.ref.rule.SourceOrder,
			origin:   m.ref.origin,
			selector: m.ref.rule.SelectorText(),
		})
	}
	if inline != "" {
		decls, diags := css.ParseInline(inline)
		longhands, more := css.ExpandDeclarations(decls)
		for _, dg := range append(diags, more...) {
			// invalid values are reported once, when the property falls back
			if dg.Kind != css.InvalidValue {
				c.style.Diagnostics = append(c.style.Diagnostics, dg)
			}
		}
		c.collect(longhands, candidate{sheet: len(c.r.sheets), origin: css.OriginInline, selector: "style"})
	}

	c.customProperties()

	if c.parent != nil {
		c.style.RootSize = c.parent.RootSize
	}
	c.property("font-size")
	if c.parent == nil {
		c.style.RootSize = c.style.FontSize
	}
	c.property("color")
	for _, name := range c.propertyNames() {
		if name != "font-size" && name != "color" {
			c.property(name)
		}
	}

	if len(c.style.Diagnostics) > 0 {
		c.r.log.Debug("Style diagnostics",
			zap.String("element", tree.Describe(node)),
			zap.String("pseudo", c.style.Pseudo),
			zap.Int("count", len(c.style.Diagnostics)))
	}
	return c.style
}

// propertyNames lists known longhands plus any other property some
// declaration set.
func (c *computation) propertyNames() []string {
	names := css.Properties()
	var extra []string
	for name := range c.winners {
		if !css.IsCustomProperty(name) && !css.KnownProperty(name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// customProperties cascades and inherits --name properties, then resolves
// var() references among them.
func (c *computation) customProperties() {
	raw := make(map[string]string)
	if c.parent != nil {
		for name, v := range c.parent.variables {
			raw[name] = v
		}
	}
	for name, w := range c.winners {
		if !css.IsCustomProperty(name) {
			continue
		}
		switch {
		case w.decl.Value.IsKeyword("initial"):
			delete(raw, name)
		case w.decl.Value.IsGlobal():
			// inherit and unset are the same for inherited properties,
			// the parent value is already in place
		default:
			raw[name] = w.decl.Raw
		}
	}
	var inheritedCyclic map[string]bool
	if c.parent != nil {
		for name := range c.parent.cyclic {
			if w := c.winners[name]; w != nil && !w.decl.Value.IsKeyword("inherit", "unset") {
				continue
			}
			if inheritedCyclic == nil {
				inheritedCyclic = make(map[string]bool)
			}
			inheritedCyclic[name] = true
		}
	}
	c.vars = newVarState(raw, inheritedCyclic)
	c.style.variables = c.vars.resolveAll()
	c.style.cyclic = c.vars.cyclicNames()
	c.style.Diagnostics = append(c.style.Diagnostics, c.vars.diags...)
}

// property computes one longhand.
func (c *computation) property(name string) {
	w := c.winners[name]
	if w == nil {
		c.unset(name, nil)
		return
	}
	v, ok := c.declared(name, w)
	switch {
	case !ok:
		c.unset(name, w)
	case v.IsKeyword("inherit"):
		c.inherit(name, w)
	case v.IsKeyword("initial"):
		c.initial(name, w)
	case v.IsGlobal():
		// unset, and revert treated as unset
		c.unset(name, w)
	default:
		c.set(name, c.absolute(name, v), w, FromDeclaration)
	}
}

// declared returns the typed value of the winning declaration, substituting
// custom properties first. A false result means invalid at computed-value
// time.
func (c *computation) declared(name string, w *candidate) (css.Value, bool) {
	d := w.decl
	switch {
	case w.pending:
		raw, err := c.vars.substitute(d.Raw)
		if err != nil {
			c.diag(substitutionKind(err), err.Error(), d.Property, d.Line)
			return css.Value{}, false
		}
		lhs, err := css.ExpandShorthand(d.Property, raw)
		if err != nil {
			c.diag(css.InvalidValue, err.Error(), d.Property, d.Line)
			return css.Value{}, false
		}
		for _, lh := range lhs {
			if lh.Property == name {
				return c.parse(name, lh.Raw, d.Line)
			}
		}
		return css.Value{}, false
	case d.Value.Kind == css.KindUnresolved:
		raw, err := c.vars.substitute(d.Raw)
		if err != nil {
			c.diag(substitutionKind(err), err.Error(), name, d.Line)
			return css.Value{}, false
		}
		return c.parse(name, raw, d.Line)
	case !d.Value.IsValid():
		c.diag(css.InvalidValue, fmt.Sprintf("%s: invalid value %q", name, d.Raw), name, d.Line)
		return css.Value{}, false
	}
	return d.Value, true
}

func substitutionKind(err error) css.DiagnosticKind {
	if errors.Is(err, css.ErrCyclicVariable) {
		return css.CyclicVariable
	}
	return css.InvalidValue
}

func (c *computation) parse(name, raw string, line int) (css.Value, bool) {
	v, err := css.ParseValue(name, raw)
	if err != nil {
		c.diag(css.InvalidValue, err.Error(), name, line)
		return css.Value{}, false
	}
	return v, true
}

func (c *computation) unset(name string, w *candidate) {
	if css.Inherited(name) {
		c.inherit(name, w)
		return
	}
	c.initial(name, w)
}

func (c *computation) inherit(name string, w *candidate) {
	if c.parent != nil {
		if pv, ok := c.parent.values[name]; ok {
			if name == "font-size" {
				c.style.FontSize = c.parent.FontSize
			}
			c.set(name, pv.Value, w, FromParent)
			return
		}
	}
	c.initial(name, w)
}

func (c *computation) initial(name string, w *candidate) {
	v, ok := initialValues()[name]
	if !ok {
		delete(c.style.values, name)
		return
	}
	c.set(name, c.absolute(name, v), w, FromInitial)
}

func (c *computation) set(name string, v css.Value, w *candidate, from Provenance) {
	cv := ComputedValue{Value: v, From: from}
	if w != nil {
		cv.Specificity = w.spec
		cv.Important = w.decl.Important
		cv.Origin = w.origin
		cv.Source = Source{
			Sheet:       w.sheet,
			Rule:        w.rule,
			Declaration: w.index,
			Selector:    w.selector,
			Line:        w.decl.Line,
		}
		if w.origin == css.OriginInline {
			cv.Source.Sheet = -1
		}
	}
	c.style.values[name] = cv
}

// absolute turns font-size into px, other relative lengths into px against
// the element font size and currentcolor into the element color.
func (c *computation) absolute(name string, v css.Value) css.Value {
	switch {
	case name == "font-size":
		px := c.fontSize(v)
		c.style.FontSize = px
		return css.Px(px)
	case v.IsKeyword("currentcolor"):
		if name == "color" {
			if c.parent != nil {
				return c.parent.values["color"].Value
			}
			return initialValues()["color"]
		}
		return c.style.values["color"].Value
	case v.Kind == css.KindLength && v.Unit != "px":
		if px, ok := v.ToPx(c.lengthContext(c.style.FontSize)); ok {
			return css.Px(px)
		}
	}
	return v
}

func (c *computation) lengthContext(fontSize float64) css.LengthContext {
	return css.LengthContext{
		FontSize:       fontSize,
		RootFontSize:   c.style.RootSize,
		ViewportWidth:  c.r.media.Width,
		ViewportHeight: c.r.media.Height,
	}
}

// fontSize resolves a font-size value against the parent font size.
func (c *computation) fontSize(v css.Value) float64 {
	parent := c.r.fontSize
	if c.parent != nil {
		parent = c.parent.FontSize
	}
	if c.style.RootSize == 0 {
		// rem on the root element refers to the initial font size
		c.style.RootSize = c.r.fontSize
	}
	scale := c.r.fontSize / 16
	switch v.Kind {
	case css.KindKeyword:
		if px, ok := css.FontSizeKeyword(v.Keyword); ok {
			return px * scale
		}
		switch v.Keyword {
		case "smaller":
			return parent / 1.2
		case "larger":
			return parent * 1.2
		}
	case css.KindPercentage:
		return parent * v.Number / 100
	case css.KindLength, css.KindNumber:
		if px, ok := v.ToPx(c.lengthContext(parent)); ok {
			return px
		}
	}
	return parent
}

var initialValues = sync.OnceValue(func() map[string]css.Value {
	m := make(map[string]css.Value)
	for _, p := range css.Properties() {
		if v, err := css.ParseValue(p, css.InitialValue(p)); err == nil {
			m[p] = v
		}
	}
	return m
})
