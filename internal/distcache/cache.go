// Package distcache implements the pairwise planar-distance memoization
// table (C2). A Cache is owned by a single run of the triangulation
// pipeline (see Design Notes §9 / DESIGN.md's "Open Questions resolved") —
// it is never a package-level singleton, so that a long-lived process such
// as internal/httpapi's server can run many independent triangulations
// without one run's cache leaking into another's.
package distcache

import (
	"math"
	"sync"

	"github.com/banshee-data/rfloc/internal/sample"
)

type key struct {
	lo, hi int64
}

func makeKey(a, b int64) key {
	if a < b {
		return key{a, b}
	}
	return key{b, a}
}

// Cache memoizes Euclidean planar distances keyed by an unordered pair of
// sample identifiers. Safe for concurrent readers; see Get for the write
// discipline required during the parallel cluster-search stage (C6).
type Cache struct {
	mu    sync.RWMutex
	table map[key]float64
}

// New returns an empty, run-scoped distance cache.
func New() *Cache {
	return &Cache{table: make(map[key]float64)}
}

// Get returns the Euclidean distance between a and b's planar coordinates,
// computing and memoizing it on a miss. Concurrent callers may race to
// compute the same miss; the result is identical either way (pure function
// of immutable sample coordinates), so the redundant work is harmless and
// no writer-side exclusion is required beyond what sync.RWMutex already
// provides for the map itself.
func (c *Cache) Get(a, b *sample.Sample) float64 {
	k := makeKey(a.ID, b.ID)

	c.mu.RLock()
	d, ok := c.table[k]
	c.mu.RUnlock()
	if ok {
		return d
	}

	d = math.Hypot(a.X-b.X, a.Y-b.Y)

	c.mu.Lock()
	c.table[k] = d
	c.mu.Unlock()

	return d
}

// Clear empties the cache. Callers must clear (or discard) the cache
// between independent runs; see the package comment.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = make(map[key]float64)
}

// Size returns the number of distinct unordered id-pairs currently cached.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Prepopulate computes and inserts every pairwise distance among points
// up front, single-threaded. Calling this before spawning cluster-search
// workers (spec.md §5) means Get finds every pair already cached during the
// parallel phase, so it only takes the read lock there, never the write
// lock.
func (c *Cache) Prepopulate(points []*sample.Sample) {
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			c.Get(points[i], points[j])
		}
	}
}
