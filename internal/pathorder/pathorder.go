// Package pathorder implements the path-ordering stage (C4): a greedy
// nearest-neighbor tour construction followed by a bounded 2-opt local
// search, used to order a device's samples before cluster search so that
// spatially adjacent samples tend to land at adjacent positions. Grounded
// on the distance-matrix-then-tour shape of
// katalvlaran-lvlath/examples/tsp_approx_drones.go, adapted to the
// specific greedy+2-opt algorithm this package requires rather than a
// library approximation.
package pathorder

import (
	"log"

	"github.com/banshee-data/rfloc/internal/distcache"
	"github.com/banshee-data/rfloc/internal/sample"
)

// MaxTwoOptIterations bounds the 2-opt local search so pathological inputs
// cannot make ordering a device's samples unboundedly expensive.
const MaxTwoOptIterations = 100

// Order returns a permutation of points, starting from points[0], built by
// greedy nearest-neighbor tour construction and refined by a bounded 2-opt
// local search. points is not mutated.
func Order(points []*sample.Sample, cache *distcache.Cache) []*sample.Sample {
	if len(points) < 2 {
		out := make([]*sample.Sample, len(points))
		copy(out, points)
		return out
	}

	tour := greedyNearestNeighbor(points, cache)
	before := tourLength(tour, cache)

	tour = twoOpt(tour, cache)
	after := tourLength(tour, cache)

	log.Printf("pathorder: greedy tour length %.3f, 2-opt tour length %.3f (%d points)", before, after, len(points))

	return tour
}

func greedyNearestNeighbor(points []*sample.Sample, cache *distcache.Cache) []*sample.Sample {
	n := len(points)
	visited := make([]bool, n)
	tour := make([]*sample.Sample, 0, n)

	cur := 0
	visited[0] = true
	tour = append(tour, points[0])

	for len(tour) < n {
		best := -1
		bestDist := 0.0
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			d := cache.Get(points[cur], points[j])
			if best == -1 || d < bestDist {
				best = j
				bestDist = d
			}
		}
		visited[best] = true
		tour = append(tour, points[best])
		cur = best
	}

	return tour
}

// twoOpt repeatedly reverses tour segments that shorten the overall tour
// length, stopping at the first pass with no improving move or after
// MaxTwoOptIterations passes, whichever comes first. The tour is an open
// path, not a cycle: j is bounded strictly below n-1 and the edge after j
// is always (tour[j], tour[j+1]), never a wraparound to tour[0]. Using a
// wrapped edge here would let the acceptance test approve reversals that
// increase the true open-path length it's supposed to be shortening.
func twoOpt(tour []*sample.Sample, cache *distcache.Cache) []*sample.Sample {
	n := len(tour)
	if n < 4 {
		return tour
	}

	improved := true
	for iter := 0; improved && iter < MaxTwoOptIterations; iter++ {
		improved = false
		for i := 0; i < n-2; i++ {
			for j := i + 2; j < n-1; j++ {
				a, b := tour[i], tour[i+1]
				c, d := tour[j], tour[j+1]

				before := cache.Get(a, b) + cache.Get(c, d)
				after := cache.Get(a, c) + cache.Get(b, d)

				if after < before {
					reverse(tour, i+1, j)
					improved = true
				}
			}
		}
	}

	return tour
}

func reverse(tour []*sample.Sample, i, j int) {
	for i < j {
		tour[i], tour[j] = tour[j], tour[i]
		i++
		j--
	}
}

func tourLength(tour []*sample.Sample, cache *distcache.Cache) float64 {
	var total float64
	for i := 0; i+1 < len(tour); i++ {
		total += cache.Get(tour[i], tour[i+1])
	}
	return total
}
