package cascade

import (
	"slices"

	"stylecore/css"
	"stylecore/dom"
)

// ruleRef is a style rule together with where it came from.
type ruleRef struct {
	rule      *css.Rule
	sheet     int
	origin    css.Origin
	longhands []css.Declaration
}

// indexEntry is one selector of a rule. A rule with a selector list has one
// entry per selector, possibly in different buckets.
type indexEntry struct {
	ref      *ruleRef
	selector *css.Selector
}

// ruleIndex buckets selectors by the most selective simple selector of their
// subject compound, so only plausible candidates are matched per element.
type ruleIndex struct {
	byID      map[string][]indexEntry
	byClass   map[string][]indexEntry
	byTag     map[string][]indexEntry
	universal []indexEntry
	rules     int
	skipped   int // rules excluded by media queries
}

func buildIndex(sheets []*css.Stylesheet, media css.MediaContext) *ruleIndex {
	idx := &ruleIndex{
		byID:    make(map[string][]indexEntry),
		byClass: make(map[string][]indexEntry),
		byTag:   make(map[string][]indexEntry),
	}
	for si, sheet := range sheets {
		for _, r := range sheet.Rules {
			if !r.AppliesTo(media) {
				idx.skipped++
				continue
			}
			ref := &ruleRef{rule: r, sheet: si, origin: r.Origin, longhands: r.Longhands()}
			idx.rules++
			for _, sel := range r.Selectors {
				idx.add(indexEntry{ref: ref, selector: sel})
			}
		}
	}
	return idx
}

func (idx *ruleIndex) add(e indexEntry) {
	var tag, class string
	for _, ss := range e.selector.Subject().Simple {
		switch ss.Kind {
		case css.SimpleID:
			idx.byID[ss.Name] = append(idx.byID[ss.Name], e)
			return
		case css.SimpleClass:
			if class == "" {
				class = ss.Name
			}
		case css.SimpleType:
			tag = ss.Name
		}
	}
	switch {
	case class != "":
		idx.byClass[class] = append(idx.byClass[class], e)
	case tag != "":
		idx.byTag[tag] = append(idx.byTag[tag], e)
	default:
		idx.universal = append(idx.universal, e)
	}
}

// candidates returns entries which may match el, in no particular order.
// A selector appears at most once since it lives in exactly one bucket.
func (idx *ruleIndex) candidates(el *dom.Element) []indexEntry {
	out := slices.Clone(idx.universal)
	out = append(out, idx.byTag[el.Tag]...)
	if el.ID != "" {
		out = append(out, idx.byID[el.ID]...)
	}
	for i, c := range el.Classes {
		// duplicated class names would add the same bucket twice
		if slices.Contains(el.Classes[:i], c) {
			continue
		}
		out = append(out, idx.byClass[c]...)
	}
	return out
}

// matched is a rule matching an element with the highest specificity among
// its matching selectors.
type matched struct {
	ref         *ruleRef
	specificity css.Specificity
}

// match runs the selector matcher over the candidates of node and returns
// matching rules ordered by (sheet, source order).
func (idx *ruleIndex) match(tree *dom.Tree, node dom.NodeID, states dom.States, pseudo string) []matched {
	best := make(map[*ruleRef]css.Specificity)
	for _, e := range idx.candidates(tree.Element(node)) {
		if !e.selector.MatchesWith(tree, node, states, pseudo) {
			continue
		}
		if cur, ok := best[e.ref]; !ok || cur.Less(e.selector.Specificity) {
			best[e.ref] = e.selector.Specificity
		}
	}
	out := make([]matched, 0, len(best))
	for ref, spec := range best {
		out = append(out, matched{ref: ref, specificity: spec})
	}
	slices.SortFunc(out, func(a, b matched) int {
		if a.ref.sheet != b.ref.sheet {
			return a.ref.sheet - b.ref.sheet
		}
		return int(a.ref.rule.SourceOrder) - int(b.ref.rule.SourceOrder)
	})
	return out
}
