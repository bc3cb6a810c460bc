package coalesce

import (
	"math"
	"testing"

	"github.com/banshee-data/rfloc/internal/sample"
)

func pt(id int64, x, y float64, rssi int) *sample.Sample {
	s := &sample.Sample{ID: id, RSSI: rssi}
	s.SetPlanar(x, y, 0, 0)
	return s
}

func TestCoalesceMergesNearDuplicates(t *testing.T) {
	points := []*sample.Sample{
		pt(1, 0, 0, -50),
		pt(2, 0.5, 0, -60),
		pt(3, 100, 100, -40),
	}

	out := Coalesce(points, 1.0)

	if len(out) != 2 {
		t.Fatalf("expected 2 points after coalescing, got %d", len(out))
	}
	if math.Abs(out[0].X-0.25) > 1e-9 {
		t.Errorf("expected merged x=0.25, got %v", out[0].X)
	}
	if out[0].RSSI != -55 {
		t.Errorf("expected merged rssi=-55, got %v", out[0].RSSI)
	}
}

func TestCoalesceChainCollapsesIntoFirst(t *testing.T) {
	points := []*sample.Sample{
		pt(1, 0, 0, -50),
		pt(2, 0.1, 0, -50),
		pt(3, 0.2, 0, -50),
	}

	out := Coalesce(points, 1.0)
	if len(out) != 1 {
		t.Fatalf("expected the whole chain to collapse to 1 point, got %d", len(out))
	}
}

func TestCoalesceComparesAgainstPreScanPosition(t *testing.T) {
	// Point 1 sits 0.9 from point 0's original position and merges into it,
	// moving point 0 to x=0.45. Point 2 sits 1.3 from point 0's *original*
	// position (outside the 1.0 threshold) but only 0.85 from point 0's
	// post-merge position. A comparison against the drifted position would
	// incorrectly merge point 2 as well.
	points := []*sample.Sample{
		pt(1, 0, 0, -50),
		pt(2, 0.9, 0, -50),
		pt(3, 1.3, 0, -50),
	}

	out := Coalesce(points, 1.0)
	if len(out) != 2 {
		t.Fatalf("expected point 2 to stay separate, got %d points", len(out))
	}
	if math.Abs(out[0].X-0.45) > 1e-9 {
		t.Errorf("expected merged x=0.45, got %v", out[0].X)
	}
	if math.Abs(out[1].X-1.3) > 1e-9 {
		t.Errorf("expected point 2 unchanged at x=1.3, got %v", out[1].X)
	}
}

func TestCoalesceLeavesDistantPointsAlone(t *testing.T) {
	points := []*sample.Sample{
		pt(1, 0, 0, -50),
		pt(2, 50, 50, -50),
	}

	out := Coalesce(points, 1.0)
	if len(out) != 2 {
		t.Fatalf("expected distant points untouched, got %d", len(out))
	}
}
