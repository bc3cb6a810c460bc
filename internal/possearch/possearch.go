// Package possearch implements the position-search stage (C9): a cost
// functional over candidate emitter positions built from each cluster's
// centroid and AoA gradient, minimized by a coarse-to-fine,
// quadrant-expanding grid search. Grounded on
// ClusteredTriangulationBase::getCost and
// ClusteredTriangulationAlgorithm2::bruteForceSearch in
// original_source/src/core/ClusteredTriangulationBase.cpp and
// ClusteredTriangulationAlgorithm2.cpp.
package possearch

import (
	"log"
	"math"

	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/timeutil"
)

// Cost evaluates the total position-search cost of candidate point (x, y)
// against clusters, each contributing a perpendicular/along-axis distance
// term weighted by its angle from the candidate to the cluster's AoA ray
// and by its own cluster score. Clusters with a zero AoA gradient (no
// successful plane fit) do not contribute.
func Cost(clusters []*cluster.Cluster, x, y, extraWeight, angleWeight float64) float64 {
	var total float64

	for _, c := range clusters {
		gx, gy := c.AoAX, c.AoAY
		if gx == 0 && gy == 0 {
			continue
		}

		cx, cy := c.Centroid()
		px, py := x-cx, y-cy

		crossMag := math.Abs(px*gy - py*gx)
		gradMag := math.Hypot(gx, gy)
		dot := px*gx + py*gy
		ptcNorm := math.Hypot(px, py)

		if ptcNorm < epsilon {
			continue
		}

		var clusterCost float64
		if dot < 0 {
			clusterCost = -dot/gradMag + ptcNorm
		} else {
			clusterCost = crossMag / gradMag
		}

		cosTheta := dot / (gradMag * ptcNorm)
		if cosTheta < -1.0 || cosTheta > 1.0 {
			log.Printf("possearch: numerical issue computing cost, cos_theta=%v", cosTheta)
			continue
		}
		theta := math.Acos(cosTheta)

		weight := extraWeight + theta*angleWeight
		if c.Score > 0 {
			weight += c.Score
		}
		clusterCost *= weight

		total += clusterCost
	}

	return total
}

const epsilon = 2.220446049250313e-16 // matches std::numeric_limits<double>::epsilon()

// Options configures a Search.
type Options struct {
	Precision       float64
	GridHalfSize    int
	ExtraWeight     float64
	AngleWeight     float64
	TimeoutSeconds  float64 // 0 disables the timeout
	Clock           timeutil.Clock
}

// Result is the outcome of a position search.
type Result struct {
	X, Y      float64
	Cost      float64
	TimedOut  bool
}

// Search performs the coarse-to-fine, quadrant-expanding grid search for
// the (x, y) minimizing Cost(clusters, x, y, opts.ExtraWeight,
// opts.AngleWeight), starting from the origin and repeatedly shifting a
// precision*GridHalfSize-sided anchor zone toward whichever quadrant
// produced the best point, until no quadrant improves on the current best
// or the timeout elapses.
func Search(clusters []*cluster.Cluster, opts Options) Result {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	bestX, bestY := 0.0, 0.0
	bestCost := Cost(clusters, bestX, bestY, opts.ExtraWeight, opts.AngleWeight)

	step := opts.Precision * float64(opts.GridHalfSize)
	zoneX, zoneY := -step, -step

	start := clock.Now()
	visited := make(map[[2]float64]bool)
	timedOut := false

	for {
		if opts.TimeoutSeconds > 0 && clock.Since(start).Seconds() > opts.TimeoutSeconds {
			log.Printf("possearch: timeout reached during grid search")
			timedOut = true
			break
		}

		roundX, roundY, roundCost := bestX, bestY, bestCost

		for q := 0; q < 4; q++ {
			quadX := zoneX + float64(q%2)*step
			quadY := zoneY + float64(q/2)*step

			key := [2]float64{quadX, quadY}
			if visited[key] {
				continue
			}
			visited[key] = true

			for ix := 0; ix < opts.GridHalfSize; ix++ {
				for iy := 0; iy < opts.GridHalfSize; iy++ {
					x := quadX + float64(ix)*opts.Precision
					y := quadY + float64(iy)*opts.Precision
					c := Cost(clusters, x, y, opts.ExtraWeight, opts.AngleWeight)
					if c < roundCost {
						roundCost = c
						roundX, roundY = x, y
					}
				}
			}
		}

		log.Printf("possearch: grid search iteration best (x=%v, y=%v) cost=%v", roundX, roundY, roundCost)

		if roundCost < bestCost {
			bestCost = roundCost
			bestX, bestY = roundX, roundY

			if bestX < zoneX+step {
				zoneX -= step
			} else {
				zoneX += step
			}
			if bestY < zoneY+step {
				zoneY -= step
			} else {
				zoneY += step
			}
		} else {
			break
		}
	}

	log.Printf("possearch: grid search completed at (x=%v, y=%v) cost=%v", bestX, bestY, bestCost)

	return Result{X: bestX, Y: bestY, Cost: bestCost, TimedOut: timedOut}
}
