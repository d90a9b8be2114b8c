package cascade

import (
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"stylecore/css"
	"stylecore/dom"
)

type styleKey struct {
	tree        uuid.UUID
	node        dom.NodeID
	pseudo      string
	state       dom.State
	fingerprint uint64
}

// Cache shares parsed stylesheets and computed styles between callers. It is
// an explicit handle: nothing is cached unless a Cache is passed in. Safe for
// concurrent use. A missing entry is computed once, concurrent callers asking
// for the same key wait for that result.
type Cache struct {
	sheets *xsync.Map[uint64, *css.Stylesheet]
	styles *xsync.Map[styleKey, *ComputedStyle]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		sheets: xsync.NewMap[uint64, *css.Stylesheet](),
		styles: xsync.NewMap[styleKey, *ComputedStyle](),
	}
}

// CacheStats are cache counters.
type CacheStats struct {
	Stylesheets int   `json:"stylesheets"`
	Styles      int   `json:"styles"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
}

// Stats returns current cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Stylesheets: c.sheets.Size(),
		Styles:      c.styles.Size(),
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
	}
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.sheets.Clear()
	c.styles.Clear()
}

// sheetKey hashes stylesheet text together with every option affecting the
// parse result.
func sheetKey(data []byte, opts css.ParseOptions) uint64 {
	d := xxhash.New()
	_, _ = d.Write(data)
	_, _ = fmt.Fprintf(d, "\x00%s|%s|%d|%d|%d|%d|%d",
		opts.Origin, opts.BaseURL, opts.MaxRules, opts.MaxSelectorsPerRule,
		opts.MaxDeclarationsPerRule, opts.MaxNestingDepth, opts.TimeBudget)
	return d.Sum64()
}

// Stylesheet returns the parsed stylesheet for data, parsing it on a miss.
func (c *Cache) Stylesheet(log *zap.Logger, data []byte, opts css.ParseOptions, source string) *css.Stylesheet {
	s, loaded := c.sheets.LoadOrCompute(sheetKey(data, opts), func() (*css.Stylesheet, bool) {
		return css.NewParser(log, opts).Parse(data, source), false
	})
	c.count(loaded)
	return s
}

func (c *Cache) style(key styleKey, compute func() *ComputedStyle) *ComputedStyle {
	cs, loaded := c.styles.LoadOrCompute(key, func() (*ComputedStyle, bool) {
		return compute(), false
	})
	c.count(loaded)
	return cs
}

func (c *Cache) count(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}
