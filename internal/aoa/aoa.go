// Package aoa estimates a cluster's angle of arrival (C8) from the plane
// fit (C7) of its members' (x, y, rssi) values: the plane's gradient
// points in the direction of increasing RSSI, which is taken as the
// direction toward the emitter. Grounded on
// ClusteredTriangulationBase::estimateAoAForClusters in
// original_source/src/core/ClusteredTriangulationBase.cpp.
package aoa

import (
	"math"

	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/planefit"
)

// MinPointsForFit is the minimum cluster size a plane fit will be
// attempted for.
const MinPointsForFit = 3

// Estimate fits a plane through c's members and, on success, records the
// resulting gradient and estimated angle of arrival (in degrees, measured
// counter-clockwise from the positive x axis) on c. It reports whether an
// estimate was produced; a false return (too few points, a degenerate fit,
// or a normal with zero z component) leaves c's AoA fields untouched.
func Estimate(c *cluster.Cluster) bool {
	if c.Size() < MinPointsForFit {
		return false
	}

	xs, ys, zs := c.Coordinates()
	normal := planefit.Fit(xs, ys, zs)
	if normal.IsZero() || normal.Z == 0 {
		return false
	}

	gradX := -normal.X / normal.Z
	gradY := -normal.Y / normal.Z

	c.AoAX = gradX
	c.AoAY = gradY
	c.EstimatedAoA = math.Atan2(gradY, gradX) * (180.0 / math.Pi)

	return true
}
