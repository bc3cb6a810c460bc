// Package cluster implements the subset-of-samples type (C3): a bitset- and
// parallel-array-backed "vectorized" representation used during the hot
// inner loop of cluster search, and a point-bearing "normal" representation
// used after a cluster is finalized. Conversion between the two is
// explicit, matching original_source/src/core/Cluster.h/.cpp.
package cluster

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/rfloc/internal/sample"
)

// Representation distinguishes the two forms a Cluster can take.
type Representation int

const (
	// Vectorized clusters own parallel coordinate/RSSI arrays and a bitset
	// over the owning device's point indices. Used during search, where
	// subset enumeration must avoid copying full sample structs.
	Vectorized Representation = iota
	// Normal clusters own a slice of full sample records. Used after
	// finalization, for AoA fitting and downstream consumption.
	Normal
)

// BoundingBox is the oriented bounding box computed along a cluster's
// principal axis (the line through its two furthest-apart members).
type BoundingBox struct {
	RangeU float64 // spread along the principal axis
	RangeV float64 // spread perpendicular to the principal axis
	Valid  bool    // false when size < 3 or the furthest pair is coincident
}

// Cluster is a subset of a device's samples, in either the Vectorized or
// Normal representation (see Representation).
type Cluster struct {
	rep Representation

	// Vectorized fields.
	bits    *BitSet
	xs, ys  []float64
	rssis   []float64
	devIdxs []int // index into the owning device's sample slice, parallel to xs/ys/rssis

	// Normal fields.
	points          []*sample.Sample
	devIdxPositions []int // owning-device indices, parallel to points; populated by ToNormal

	// Shared incremental statistics.
	n        int
	centroidX, centroidY float64
	meanRSSI float64

	varianceDirty bool
	varianceValue float64

	furthestI, furthestJ int
	furthestDist          float64
	bbox                  BoundingBox

	// AoA ray, set by internal/aoa after a successful plane fit.
	AoAX, AoAY   float64
	EstimatedAoA float64

	// Score assigned by the cluster-search evaluator (C6); see
	// internal/clustersearch.
	Score float64
}

// NewVectorized returns an empty vectorized cluster over a device with
// capacity points.
func NewVectorized(capacity int) *Cluster {
	return &Cluster{
		rep:           Vectorized,
		bits:          NewBitSet(capacity),
		varianceDirty: true,
	}
}

// NewNormal returns an empty normal (point-bearing) cluster.
func NewNormal() *Cluster {
	return &Cluster{rep: Normal, varianceDirty: true}
}

// Representation reports which form c is in.
func (c *Cluster) Representation() Representation { return c.rep }

// Size returns the number of members.
func (c *Cluster) Size() int { return c.n }

// Centroid returns the running centroid.
func (c *Cluster) Centroid() (x, y float64) { return c.centroidX, c.centroidY }

// MeanRSSI returns the running mean RSSI.
func (c *Cluster) MeanRSSI() float64 { return c.meanRSSI }

func (c *Cluster) updateRunningMeans(x, y, rssi float64, sign int) {
	prevN := c.n - sign // n before this mutation
	if prevN+sign == 0 {
		c.centroidX, c.centroidY, c.meanRSSI = 0, 0, 0
		return
	}
	if sign > 0 {
		c.centroidX = (c.centroidX*float64(prevN) + x) / float64(prevN+1)
		c.centroidY = (c.centroidY*float64(prevN) + y) / float64(prevN+1)
		c.meanRSSI = (c.meanRSSI*float64(prevN) + rssi) / float64(prevN+1)
	}
}

// AddVectorized adds sample s, known at position index within the owning
// device's sample slice, to a vectorized cluster.
func (c *Cluster) AddVectorized(s *sample.Sample, index int) {
	c.n++
	c.updateRunningMeans(s.X, s.Y, float64(s.RSSI), +1)

	c.xs = append(c.xs, s.X)
	c.ys = append(c.ys, s.Y)
	c.rssis = append(c.rssis, float64(s.RSSI))
	c.devIdxs = append(c.devIdxs, index)
	c.bits.Set(index)

	c.varianceDirty = true
	c.updateFurthestOnAdd(len(c.xs) - 1)
	c.computeBoundingBox()
}

// RemoveVectorizedAt removes the member at position pos within the parallel
// arrays (not the device index — use PointIndices to map positions to
// device indices first).
func (c *Cluster) RemoveVectorizedAt(pos int) {
	removedFurthest := pos == c.furthestI || pos == c.furthestJ

	devIdx := c.devIdxs[pos]
	c.n--
	// Recompute centroid/mean exactly from the remaining members; an O(1)
	// incremental subtraction would accumulate rounding error across many
	// add/remove cycles during search.
	c.xs = append(c.xs[:pos], c.xs[pos+1:]...)
	c.ys = append(c.ys[:pos], c.ys[pos+1:]...)
	c.rssis = append(c.rssis[:pos], c.rssis[pos+1:]...)
	c.devIdxs = append(c.devIdxs[:pos], c.devIdxs[pos+1:]...)
	c.bits.Clear(devIdx)
	c.recomputeMeansFromMembers()

	c.varianceDirty = true

	if !removedFurthest {
		if c.furthestI > pos {
			c.furthestI--
		}
		if c.furthestJ > pos {
			c.furthestJ--
		}
	}

	if removedFurthest || c.n < 2 {
		c.recomputeFurthestAndBBox()
	} else {
		c.computeBoundingBox()
	}
}

func (c *Cluster) recomputeMeansFromMembers() {
	if c.n == 0 {
		c.centroidX, c.centroidY, c.meanRSSI = 0, 0, 0
		return
	}
	var sx, sy, sr float64
	switch c.rep {
	case Vectorized:
		for i := range c.xs {
			sx += c.xs[i]
			sy += c.ys[i]
			sr += c.rssis[i]
		}
	case Normal:
		for _, p := range c.points {
			sx += p.X
			sy += p.Y
			sr += float64(p.RSSI)
		}
	}
	c.centroidX = sx / float64(c.n)
	c.centroidY = sy / float64(c.n)
	c.meanRSSI = sr / float64(c.n)
}

// AddNormal adds a full sample record to a normal cluster.
func (c *Cluster) AddNormal(s *sample.Sample) {
	c.n++
	c.updateRunningMeans(s.X, s.Y, float64(s.RSSI), +1)
	c.points = append(c.points, s)
	c.varianceDirty = true
	c.updateFurthestOnAdd(len(c.points) - 1)
	c.computeBoundingBox()
}

// RemoveNormalAt removes the member at position pos in the point slice.
func (c *Cluster) RemoveNormalAt(pos int) {
	removedFurthest := pos == c.furthestI || pos == c.furthestJ

	c.n--
	c.points = append(c.points[:pos], c.points[pos+1:]...)
	c.recomputeMeansFromMembers()
	c.varianceDirty = true

	if !removedFurthest {
		if c.furthestI > pos {
			c.furthestI--
		}
		if c.furthestJ > pos {
			c.furthestJ--
		}
	}

	if removedFurthest || c.n < 2 {
		c.recomputeFurthestAndBBox()
	} else {
		c.computeBoundingBox()
	}
}

func (c *Cluster) coords(i int) (x, y, rssi float64) {
	switch c.rep {
	case Vectorized:
		return c.xs[i], c.ys[i], c.rssis[i]
	default:
		p := c.points[i]
		return p.X, p.Y, float64(p.RSSI)
	}
}

// updateFurthestOnAdd compares the newly added member (at position newIdx)
// against every existing member in O(size), matching spec.md §4.3's
// "update furthest-pair ... incrementally by comparing the new point
// against all existing members".
func (c *Cluster) updateFurthestOnAdd(newIdx int) {
	nx, ny, _ := c.coords(newIdx)
	for i := 0; i < newIdx; i++ {
		x, y, _ := c.coords(i)
		dx, dy := nx-x, ny-y
		d := math.Hypot(dx, dy)
		if d > c.furthestDist {
			c.furthestDist = d
			c.furthestI, c.furthestJ = i, newIdx
		}
	}
}

// recomputeFurthestAndBBox recomputes the furthest pair and bounding box
// from scratch in O(size^2), used after a removal that invalidates the
// cached furthest pair.
func (c *Cluster) recomputeFurthestAndBBox() {
	c.furthestDist = 0
	c.furthestI, c.furthestJ = 0, 0
	for i := 0; i < c.n; i++ {
		xi, yi, _ := c.coords(i)
		for j := i + 1; j < c.n; j++ {
			xj, yj, _ := c.coords(j)
			d := math.Hypot(xi-xj, yi-yj)
			if d > c.furthestDist {
				c.furthestDist = d
				c.furthestI, c.furthestJ = i, j
			}
		}
	}
	c.computeBoundingBox()
}

// computeBoundingBox builds the principal-axis oriented bounding box: the
// axis is the line through the two furthest members, and every member's
// offset from the centroid is projected onto that axis and its
// perpendicular to find the four extrema (spec.md §4.3).
func (c *Cluster) computeBoundingBox() {
	if c.n < 3 || c.furthestDist == 0 {
		c.bbox = BoundingBox{}
		return
	}

	x1, y1, _ := c.coords(c.furthestI)
	x2, y2, _ := c.coords(c.furthestJ)
	ux, uy := x2-x1, y2-y1
	norm := math.Hypot(ux, uy)
	if norm == 0 {
		c.bbox = BoundingBox{}
		return
	}
	ux, uy = ux/norm, uy/norm
	vx, vy := -uy, ux

	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i := 0; i < c.n; i++ {
		x, y, _ := c.coords(i)
		dx, dy := x-c.centroidX, y-c.centroidY
		pu := dx*ux + dy*uy
		pv := dx*vx + dy*vy
		if pu < minU {
			minU = pu
		}
		if pu > maxU {
			maxU = pu
		}
		if pv < minV {
			minV = pv
		}
		if pv > maxV {
			maxV = pv
		}
	}

	c.bbox = BoundingBox{
		RangeU: maxU - minU,
		RangeV: maxV - minV,
		Valid:  true,
	}
}

// BoundingBox returns the cached oriented bounding box.
func (c *Cluster) BoundingBox() BoundingBox { return c.bbox }

// FurthestPair returns the positions of the two furthest-apart members and
// their distance.
func (c *Cluster) FurthestPair() (i, j int, dist float64) {
	return c.furthestI, c.furthestJ, c.furthestDist
}

// GeometricRatio returns RangeV / RangeU, or 0 if the bounding box is
// invalid.
func (c *Cluster) GeometricRatio() float64 {
	if !c.bbox.Valid || c.bbox.RangeU == 0 {
		return 0
	}
	return c.bbox.RangeV / c.bbox.RangeU
}

// Area returns RangeU * RangeV, or 0 if the bounding box is invalid.
func (c *Cluster) Area() float64 {
	if !c.bbox.Valid {
		return 0
	}
	return c.bbox.RangeU * c.bbox.RangeV
}

// VarianceRSSI returns the population variance of member RSSI values,
// caching the result until the next mutation.
func (c *Cluster) VarianceRSSI() float64 {
	if !c.varianceDirty {
		return c.varianceValue
	}
	if c.n == 0 {
		c.varianceValue = 0
		c.varianceDirty = false
		return 0
	}
	rssis := make([]float64, c.n)
	for i := 0; i < c.n; i++ {
		_, _, r := c.coords(i)
		rssis[i] = r
	}
	// Population variance (weights nil, then multiply the sample variance
	// gonum returns by (n-1)/n) — gonum's stat.Variance is the unbiased
	// (n-1) estimator, so convert to the population variance spec.md
	// requires.
	if c.n == 1 {
		c.varianceValue = 0
	} else {
		sampleVar := stat.Variance(rssis, nil)
		c.varianceValue = sampleVar * float64(c.n-1) / float64(c.n)
	}
	c.varianceDirty = false
	return c.varianceValue
}

// Overlap returns the fraction of shared members between c and other:
// popcount(intersection) / (|c| + |other|). Both clusters must be
// vectorized and drawn from the same device's bitset space.
func (c *Cluster) Overlap(other *Cluster) float64 {
	if c.n == 0 && other.n == 0 {
		return 0
	}
	var shared int
	if c.rep == Vectorized && other.rep == Vectorized {
		shared = c.bits.SharedCount(other.bits)
	} else {
		shared = len(intersectIDs(c.memberIDs(), other.memberIDs()))
	}
	return float64(shared) / float64(c.n+other.n)
}

// memberIDs returns the owning-device indices (vectorized) or sample IDs
// (normal) of this cluster's members, for overlap comparisons that mix
// representations.
func (c *Cluster) memberIDs() []int64 {
	ids := make([]int64, 0, c.n)
	switch c.rep {
	case Vectorized:
		for _, idx := range c.devIdxs {
			ids = append(ids, int64(idx))
		}
	case Normal:
		for _, p := range c.points {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func intersectIDs(a, b []int64) []int64 {
	set := make(map[int64]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []int64
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// PointIndices returns the owning-device indices of this cluster's members
// (bitset enumeration for vectorized clusters, stored device indices for
// normal clusters built via ToNormal).
func (c *Cluster) PointIndices() []int {
	if c.rep == Vectorized {
		out := make([]int, len(c.devIdxs))
		copy(out, c.devIdxs)
		return out
	}
	out := make([]int, len(c.devIdxPositions))
	copy(out, c.devIdxPositions)
	return out
}

// Points returns the member sample records. Only meaningful for a Normal
// cluster.
func (c *Cluster) Points() []*sample.Sample {
	return c.points
}

// CloneVectorized returns an independent deep copy of a vectorized
// cluster, used by cluster search (C6) to snapshot the current best
// cluster before continuing to mutate the working cluster in place.
func (c *Cluster) CloneVectorized() *Cluster {
	if c.rep != Vectorized {
		panic("cluster: CloneVectorized called on a non-vectorized cluster")
	}
	clone := &Cluster{
		rep:           Vectorized,
		bits:          c.bits.Clone(),
		xs:            append([]float64(nil), c.xs...),
		ys:            append([]float64(nil), c.ys...),
		rssis:         append([]float64(nil), c.rssis...),
		devIdxs:       append([]int(nil), c.devIdxs...),
		n:             c.n,
		centroidX:     c.centroidX,
		centroidY:     c.centroidY,
		meanRSSI:      c.meanRSSI,
		varianceDirty: c.varianceDirty,
		varianceValue: c.varianceValue,
		furthestI:     c.furthestI,
		furthestJ:     c.furthestJ,
		furthestDist:  c.furthestDist,
		bbox:          c.bbox,
		AoAX:          c.AoAX,
		AoAY:          c.AoAY,
		EstimatedAoA:  c.EstimatedAoA,
		Score:         c.Score,
	}
	return clone
}

// Coordinates returns parallel x, y, and RSSI slices for every member, in
// either representation.
func (c *Cluster) Coordinates() (xs, ys, rssis []float64) {
	xs = make([]float64, c.n)
	ys = make([]float64, c.n)
	rssis = make([]float64, c.n)
	for i := 0; i < c.n; i++ {
		xs[i], ys[i], rssis[i] = c.coords(i)
	}
	return xs, ys, rssis
}

// ToNormal converts a finalized vectorized cluster into a Normal cluster,
// resolving each member's device-local index into the corresponding sample
// record from devicePoints. The resulting cluster's bounding box and
// furthest pair are recomputed from the point representation and must
// match the vectorized source within 1e-9 (spec.md §8).
func (c *Cluster) ToNormal(devicePoints []*sample.Sample) *Cluster {
	if c.rep != Vectorized {
		panic("cluster: ToNormal called on a non-vectorized cluster")
	}

	out := NewNormal()
	out.points = make([]*sample.Sample, 0, c.n)
	out.devIdxPositions = make([]int, 0, c.n)
	for _, idx := range c.devIdxs {
		out.points = append(out.points, devicePoints[idx])
		out.devIdxPositions = append(out.devIdxPositions, idx)
	}
	out.n = c.n
	out.recomputeMeansFromMembers()
	out.recomputeFurthestAndBBox()
	out.Score = c.Score
	out.AoAX, out.AoAY, out.EstimatedAoA = c.AoAX, c.AoAY, c.EstimatedAoA
	return out
}
