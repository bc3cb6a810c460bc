package pathorder

import (
	"math/rand"
	"testing"

	"github.com/banshee-data/rfloc/internal/distcache"
	"github.com/banshee-data/rfloc/internal/sample"
)

func randomPoints(n int, seed int64) []*sample.Sample {
	r := rand.New(rand.NewSource(seed))
	pts := make([]*sample.Sample, n)
	for i := range pts {
		s := &sample.Sample{ID: int64(i), RSSI: -50}
		s.SetPlanar(r.Float64()*100, r.Float64()*100, 0, 0)
		pts[i] = s
	}
	return pts
}

func TestTwoOptNeverWorsensGreedyTour(t *testing.T) {
	pts := randomPoints(20, 123456)
	cache := distcache.New()

	greedy := greedyNearestNeighbor(pts, cache)
	greedyLen := tourLength(greedy, cache)

	refined := twoOpt(append([]*sample.Sample(nil), greedy...), cache)
	refinedLen := tourLength(refined, cache)

	if refinedLen > greedyLen+1e-9 {
		t.Fatalf("2-opt tour length %v exceeds greedy tour length %v", refinedLen, greedyLen)
	}
}

func TestOrderPreservesAllPoints(t *testing.T) {
	pts := randomPoints(15, 42)
	cache := distcache.New()

	ordered := Order(pts, cache)
	if len(ordered) != len(pts) {
		t.Fatalf("expected %d points, got %d", len(pts), len(ordered))
	}

	seen := make(map[int64]bool)
	for _, p := range ordered {
		seen[p.ID] = true
	}
	if len(seen) != len(pts) {
		t.Fatalf("expected all distinct points preserved, got %d unique", len(seen))
	}
}

func TestOrderHandlesTrivialInputs(t *testing.T) {
	cache := distcache.New()

	if out := Order(nil, cache); len(out) != 0 {
		t.Fatalf("expected empty output for nil input, got %d", len(out))
	}

	one := randomPoints(1, 1)
	if out := Order(one, cache); len(out) != 1 {
		t.Fatalf("expected single-point output, got %d", len(out))
	}
}
