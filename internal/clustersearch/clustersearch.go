// Package clustersearch implements the branch-and-bound cluster search
// (C6): for every seed point (visited in a stride order that spreads work
// evenly across a parallel worker pool), a depth-first search over
// subsets of its nearby candidates finds the highest-scoring cluster that
// does not excessively overlap a cluster already accepted from another
// seed. Grounded on
// ClusteredTriangulationAlgorithm2::{findBestClusters,getCandidates,checkCluster}
// in original_source/src/core/ClusteredTriangulationAlgorithm2.cpp.
package clustersearch

import (
	"context"
	"log"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/distcache"
	"github.com/banshee-data/rfloc/internal/sample"
	"github.com/banshee-data/rfloc/internal/timeutil"
)

// timeoutCheckInterval is how often (in evaluated combinations) a seed's
// goroutine rechecks its wall-clock budget: the check runs while the
// seed's count of evaluated combinations is a multiple of this value, to
// keep the check itself from dominating the search.
const timeoutCheckInterval = 100

// Options configures a Run.
type Options struct {
	MaxInternalDistance float64
	ClusterMinPoints    int
	MaxOverlap          float64
	PerSeedTimeout      float64 // seconds; 0 disables the per-seed timeout
	Weights             Weights
	Clock               timeutil.Clock
	MaxWorkers          int // 0 lets errgroup run every seed concurrently
}

// SeedStats reports per-seed search telemetry, indexed by a seed's
// position in the input points slice.
type SeedStats struct {
	CandidateCount        int
	CombinationsExplored  int
	TimedOut              bool
	FoundCluster          bool
}

// Result is the outcome of a cluster search run.
type Result struct {
	Clusters             []*cluster.Cluster
	CombinationsExplored int
	TimedOutSeeds        int
	PerSeed              []SeedStats
}

// Run searches points (already path-ordered and coalesced) for the
// highest-scoring, minimally-overlapping set of clusters, using cache for
// pairwise distances.
func Run(ctx context.Context, points []*sample.Sample, cache *distcache.Cache, opts Options) Result {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	n := len(points)
	perSeed := make([]SeedStats, n)

	shared := &sharedState{clock: clock}

	order := strideOrder(n)

	g, _ := errgroup.WithContext(ctx)
	if opts.MaxWorkers > 0 {
		g.SetLimit(opts.MaxWorkers)
	}

	var statsMu sync.Mutex

	for _, seedIdx := range order {
		seedIdx := seedIdx
		g.Go(func() error {
			stats := searchFromSeed(seedIdx, points, cache, opts, shared)

			statsMu.Lock()
			perSeed[seedIdx] = stats
			statsMu.Unlock()

			return nil
		})
	}
	_ = g.Wait()

	explored := 0
	timedOut := 0
	for _, s := range perSeed {
		explored += s.CombinationsExplored
		if s.TimedOut {
			timedOut++
		}
	}
	if timedOut > 0 {
		log.Printf("clustersearch: %d seeds timed out (using best cluster found before timeout)", timedOut)
	}

	accepted := shared.accepted()
	finalized := make([]*cluster.Cluster, 0, len(accepted))
	for _, c := range accepted {
		finalized = append(finalized, c.ToNormal(points))
	}

	log.Printf("clustersearch: explored %d combinations, accepted %d clusters", explored, len(finalized))

	return Result{
		Clusters:             finalized,
		CombinationsExplored: explored,
		TimedOutSeeds:        timedOut,
		PerSeed:              perSeed,
	}
}

// sharedState is the set of accepted clusters visible across every seed's
// goroutine, guarded by a reader-writer lock: checking a candidate
// cluster's overlap against every accepted cluster only needs a read
// lock, and only appending a newly accepted cluster needs exclusivity.
type sharedState struct {
	mu    sync.RWMutex
	list  []*cluster.Cluster
	clock timeutil.Clock
}

func (s *sharedState) overlapsAny(c *cluster.Cluster, maxOverlap float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.list {
		if c.Overlap(existing) > maxOverlap {
			return true
		}
	}
	return false
}

func (s *sharedState) accept(c *cluster.Cluster) {
	s.mu.Lock()
	s.list = append(s.list, c)
	s.mu.Unlock()
}

func (s *sharedState) accepted() []*cluster.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*cluster.Cluster, len(s.list))
	copy(out, s.list)
	return out
}

// searchFromSeed runs the bounded depth-first subset search rooted at
// points[seedIdx], mirroring the stack-based DFS of
// ClusteredTriangulationAlgorithm2::findBestClusters.
func searchFromSeed(seedIdx int, points []*sample.Sample, cache *distcache.Cache, opts Options, shared *sharedState) SeedStats {
	candidates := buildCandidates(seedIdx, points, cache, opts.MaxInternalDistance)
	stats := SeedStats{CandidateCount: len(candidates)}

	if len(candidates) < opts.ClusterMinPoints-1 {
		return stats
	}

	n := len(points)
	working := cluster.NewVectorized(n)
	working.AddVectorized(points[seedIdx], seedIdx)

	var bestCluster *cluster.Cluster
	bestScore := math.Inf(-1)
	found := false

	start := shared.clock.Now()
	combinations := 0
	timedOut := false

	selection := make([]int, 0, len(candidates))
	stack := []int{0}

	for len(stack) > 0 {
		if opts.PerSeedTimeout > 0 && combinations%timeoutCheckInterval == 0 {
			if shared.clock.Since(start).Seconds() > opts.PerSeedTimeout {
				timedOut = true
				break
			}
		}

		candidateIdx := stack[len(stack)-1]

		if candidateIdx >= len(candidates) {
			stack = stack[:len(stack)-1]
			if len(selection) > 0 {
				working.RemoveVectorizedAt(working.Size() - 1)
				selection = selection[:len(selection)-1]
			}
			if len(stack) > 0 {
				stack[len(stack)-1]++
			}
			continue
		}

		selection = append(selection, candidateIdx)
		working.AddVectorized(points[candidates[candidateIdx]], candidates[candidateIdx])

		if working.Size() >= opts.ClusterMinPoints {
			combinations++
			if evaluate(working, opts.Weights, shared, opts.MaxOverlap, &bestScore, &bestCluster) {
				found = true
			}
		}

		if candidateIdx+1 < len(candidates) {
			stack = append(stack, candidateIdx+1)
		} else {
			working.RemoveVectorizedAt(working.Size() - 1)
			selection = selection[:len(selection)-1]
			stack[len(stack)-1]++
		}
	}

	stats.CombinationsExplored = combinations
	stats.TimedOut = timedOut
	stats.FoundCluster = found

	if found {
		shared.accept(bestCluster)
		log.Printf("clustersearch: seed %d formed a valid cluster with score %.4f, size %d (%d combinations explored)",
			seedIdx, bestScore, bestCluster.Size(), combinations)
	}

	return stats
}

// evaluate validates working against weights' acceptability bands and
// scores it. If the score beats *bestScore, it is checked against every
// already-accepted cluster's overlap before *bestCluster/*bestScore are
// replaced; a new best that overlaps too much is rejected outright. A
// valid cluster that does not beat *bestScore is still reported
// acceptable without an overlap check, since it can never become this
// seed's result. Mirrors checkCluster's true/false convention
// (original_source/src/core/ClusteredTriangulationAlgorithm2.cpp), which
// signals only "this branch stays valid", not "this was the best found".
func evaluate(working *cluster.Cluster, weights Weights, shared *sharedState, maxOverlap float64, bestScore *float64, bestCluster **cluster.Cluster) bool {
	if !weights.Valid(working) {
		return false
	}

	score := weights.Score(working)
	if score <= *bestScore {
		return true
	}

	if shared.overlapsAny(working, maxOverlap) {
		return false
	}

	*bestScore = score
	*bestCluster = working.CloneVectorized()
	return true
}

func buildCandidates(seedIdx int, points []*sample.Sample, cache *distcache.Cache, maxInternalDistance float64) []int {
	var out []int
	for j := range points {
		if j == seedIdx {
			continue
		}
		if cache.Get(points[seedIdx], points[j]) <= maxInternalDistance {
			out = append(out, j)
		}
	}
	return out
}

// strideOrder returns a visitation order over [0, n) that advances by a
// stride near sqrt(n), incremented until it is coprime with n, so that
// seeds near each other in index space are not processed back-to-back by
// the same worker. Grounded on strideOrder in
// ClusteredTriangulationAlgorithm2.cpp.
func strideOrder(n int) []int {
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}

	stride := maxInt(2, isqrt(n))
	for gcd(stride, n) != 1 {
		stride++
	}

	current := 0
	for i := 0; i < n; i++ {
		order = append(order, current)
		current = (current + stride) % n
	}
	return order
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func isqrt(n int) int {
	if n < 2 {
		return n
	}
	x := n
	for {
		y := (x + n/x) / 2
		if y >= x {
			return x
		}
		x = y
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
