package cluster

import (
	"math"
	"testing"

	"github.com/banshee-data/rfloc/internal/sample"
)

func devicePoints() []*sample.Sample {
	coords := [][3]float64{
		{0, 0, -50},
		{1, 0, -52},
		{0, 1, -48},
		{10, 10, -60},
		{10, 11, -61},
	}
	pts := make([]*sample.Sample, len(coords))
	for i, c := range coords {
		s := &sample.Sample{ID: int64(i), RSSI: int(c[2])}
		s.SetPlanar(c[0], c[1], 0, 0)
		pts[i] = s
	}
	return pts
}

func TestCentroidAndMeanMatchArithmeticMean(t *testing.T) {
	pts := devicePoints()
	c := NewVectorized(len(pts))
	for i, p := range pts[:3] {
		c.AddVectorized(p, i)
	}

	wantX, wantY, wantR := (0.0+1.0+0.0)/3, (0.0+0.0+1.0)/3, (-50.0-52.0-48.0)/3
	gotX, gotY := c.Centroid()
	if math.Abs(gotX-wantX) > 1e-9 || math.Abs(gotY-wantY) > 1e-9 {
		t.Errorf("centroid = (%v,%v), want (%v,%v)", gotX, gotY, wantX, wantY)
	}
	if math.Abs(c.MeanRSSI()-wantR) > 1e-9 {
		t.Errorf("mean rssi = %v, want %v", c.MeanRSSI(), wantR)
	}
}

func TestVarianceRSSIIsPopulationVariance(t *testing.T) {
	pts := devicePoints()
	c := NewVectorized(len(pts))
	for i, p := range pts[:3] {
		c.AddVectorized(p, i)
	}

	rssis := []float64{-50, -52, -48}
	mean := (-50.0 - 52.0 - 48.0) / 3
	var want float64
	for _, r := range rssis {
		want += (r - mean) * (r - mean)
	}
	want /= 3

	if math.Abs(c.VarianceRSSI()-want) > 1e-9 {
		t.Errorf("variance = %v, want %v", c.VarianceRSSI(), want)
	}
}

func TestBoundingBoxRangesOrdered(t *testing.T) {
	pts := devicePoints()
	c := NewVectorized(len(pts))
	for i, p := range pts {
		c.AddVectorized(p, i)
	}

	bbox := c.BoundingBox()
	if !bbox.Valid {
		t.Fatal("expected valid bounding box")
	}
	if bbox.RangeV > bbox.RangeU+1e-9 {
		t.Errorf("expected RangeU >= RangeV, got U=%v V=%v", bbox.RangeU, bbox.RangeV)
	}
	if bbox.RangeV < 0 {
		t.Errorf("expected RangeV >= 0, got %v", bbox.RangeV)
	}
}

func TestVectorizedToNormalMatchesWithinTolerance(t *testing.T) {
	pts := devicePoints()
	c := NewVectorized(len(pts))
	for i, p := range pts {
		c.AddVectorized(p, i)
	}

	normal := c.ToNormal(pts)

	vx, vy := c.Centroid()
	nx, ny := normal.Centroid()
	if math.Abs(vx-nx) > 1e-9 || math.Abs(vy-ny) > 1e-9 {
		t.Errorf("centroid mismatch: vectorized (%v,%v) normal (%v,%v)", vx, vy, nx, ny)
	}

	vb, nb := c.BoundingBox(), normal.BoundingBox()
	if math.Abs(vb.RangeU-nb.RangeU) > 1e-9 || math.Abs(vb.RangeV-nb.RangeV) > 1e-9 {
		t.Errorf("bbox mismatch: vectorized %+v normal %+v", vb, nb)
	}
}

func TestOverlapSharedMembers(t *testing.T) {
	pts := make([]*sample.Sample, 10)
	for i := range pts {
		s := &sample.Sample{ID: int64(i), RSSI: -50}
		s.SetPlanar(float64(i), 0, 0, 0)
		pts[i] = s
	}

	a := NewVectorized(len(pts))
	for i := 0; i < 6; i++ {
		a.AddVectorized(pts[i], i)
	}
	b := NewVectorized(len(pts))
	for i := 4; i < 10; i++ {
		b.AddVectorized(pts[i], i)
	}

	// a has 6 members, b has 6 members, 2 shared (indices 4 and 5)
	got := a.Overlap(b)
	want := 2.0 / 12.0 // shared={4,5} -> 2, total=6+6=12
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("overlap = %v, want %v", got, want)
	}
}

func TestRemoveVectorizedRecomputesFurthestPair(t *testing.T) {
	pts := devicePoints()
	c := NewVectorized(len(pts))
	for i, p := range pts {
		c.AddVectorized(p, i)
	}

	_, _, distBefore := c.FurthestPair()
	if distBefore == 0 {
		t.Fatal("expected nonzero furthest distance")
	}

	// Remove until the current furthest-pair member set shrinks; bounding
	// box must stay internally consistent (RangeU >= RangeV) throughout.
	for c.Size() > 2 {
		c.RemoveVectorizedAt(0)
		bbox := c.BoundingBox()
		if bbox.Valid && bbox.RangeV > bbox.RangeU+1e-9 {
			t.Fatalf("bounding box invariant broken after removal: %+v", bbox)
		}
	}
}
