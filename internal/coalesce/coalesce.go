// Package coalesce implements point coalescing (C5): near-duplicate
// samples within coalitionDistance of one another are merged into a
// single averaged sample, in place, so that a cluster of sensors reporting
// the same physical location does not bias downstream geometry. Grounded
// on ClusteredTriangulationBase::coalescePoints in
// original_source/src/core/ClusteredTriangulationBase.cpp.
package coalesce

import "github.com/banshee-data/rfloc/internal/sample"

// Coalesce merges every pair of points whose squared planar distance is at
// most coalitionDistance^2, replacing the earlier point with the merged
// average and dropping the later one. Each i's distance comparisons are
// taken against i's position as it stood before its inner scan began, not
// its current (possibly already-merged) position, matching
// coalescePoints's old_x_i/old_y_i snapshot. The merge restarts its inner
// scan at the same index j after a removal, so a chain of near-duplicates
// all collapse into the first member of the chain, matching the
// original's erase/retry behavior, including its left-to-right bias.
// points is mutated and also returned for convenience.
func Coalesce(points []*sample.Sample, coalitionDistance float64) []*sample.Sample {
	threshold2 := coalitionDistance * coalitionDistance

	for i := 0; i < len(points); i++ {
		oldX, oldY := points[i].X, points[i].Y
		for j := i + 1; j < len(points); j++ {
			dx := oldX - points[j].X
			dy := oldY - points[j].Y
			dist2 := dx*dx + dy*dy

			if dist2 <= threshold2 {
				points[i].Merge(points[j])
				points = append(points[:j], points[j+1:]...)
				j--
			}
		}
	}

	return points
}
