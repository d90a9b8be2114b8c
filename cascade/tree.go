package cascade

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stylecore/css"
	"stylecore/dom"
)

// TreeOptions control a whole-tree cascade.
type TreeOptions struct {
	States         dom.States
	Workers        int      // concurrent elements per level, GOMAXPROCS when zero
	PseudoElements []string // pseudo-elements to compute for every element, e.g. "before"
}

// TreeStyles holds computed styles of a tree, indexed by NodeID.
type TreeStyles struct {
	styles []*ComputedStyle
	pseudo []map[string]*ComputedStyle
}

// Style returns the computed style of node, nil when it was not computed.
func (ts *TreeStyles) Style(node dom.NodeID) *ComputedStyle {
	if node < 0 || int(node) >= len(ts.styles) {
		return nil
	}
	return ts.styles[node]
}

// Pseudo returns the style of a pseudo-element of node. Pseudo-elements no
// rule matched are not kept.
func (ts *TreeStyles) Pseudo(node dom.NodeID, name string) *ComputedStyle {
	if node < 0 || int(node) >= len(ts.pseudo) {
		return nil
	}
	return ts.pseudo[node][name]
}

// Diagnostics returns diagnostics of all computed styles in node order.
func (ts *TreeStyles) Diagnostics() css.Diagnostics {
	var out css.Diagnostics
	for _, cs := range ts.styles {
		if cs != nil {
			out = append(out, cs.Diagnostics...)
		}
	}
	return out
}

// Tree computes styles of every element, parents before children. Elements
// of one level are processed in parallel. The context is checked between
// levels: on cancellation the styles computed so far are returned with the
// context error.
func Tree(ctx context.Context, r *Resolver, tree *dom.Tree, opts TreeOptions) (*TreeStyles, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ts := &TreeStyles{
		styles: make([]*ComputedStyle, tree.Len()),
		pseudo: make([]map[string]*ComputedStyle, tree.Len()),
	}

	start := time.Now()
	levels := tree.Levels()
	for depth, level := range levels {
		if err := ctx.Err(); err != nil {
			r.log.Debug("Tree cascade interrupted", zap.Int("depth", depth), zap.Error(err))
			return ts, fmt.Errorf("cascade interrupted at depth %d: %w", depth, err)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, node := range level {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				computeNode(r, tree, node, ts, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return ts, fmt.Errorf("cascade interrupted at depth %d: %w", depth, err)
		}
	}
	r.log.Debug("Tree cascade done",
		zap.Int("elements", tree.Len()),
		zap.Int("levels", len(levels)),
		zap.Duration("elapsed", time.Since(start)))
	return ts, nil
}

// computeNode writes only slots of node, so nodes of one level never touch
// the same memory.
func computeNode(r *Resolver, tree *dom.Tree, node dom.NodeID, ts *TreeStyles, opts TreeOptions) {
	var parent *ComputedStyle
	if p := tree.Parent(node); p != dom.NoNode {
		parent = ts.styles[p]
	}
	cs := r.ComputeStyle(tree, node, parent, WithStates(opts.States))
	ts.styles[node] = cs
	for _, pe := range opts.PseudoElements {
		ps := r.ComputeStyle(tree, node, cs, WithStates(opts.States), WithPseudoElement(pe))
		if ps.Matched == 0 {
			continue
		}
		if ts.pseudo[node] == nil {
			ts.pseudo[node] = make(map[string]*ComputedStyle)
		}
		ts.pseudo[node][pe] = ps
	}
}
