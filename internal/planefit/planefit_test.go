package planefit

import (
	"math"
	"math/rand"
	"testing"
)

func TestFitColinearCase(t *testing.T) {
	x := []float64{0, 1, 0}
	y := []float64{0, 0, 1}
	z := []float64{0, 1, 2}

	n := Fit(x, y, z)
	if n.IsZero() {
		t.Fatal("expected a non-degenerate normal")
	}

	expected := []float64{1, 2, -1}
	enorm := math.Sqrt(1 + 4 + 1)
	for i := range expected {
		expected[i] /= enorm
	}

	dot := n.X*expected[0] + n.Y*expected[1] + n.Z*expected[2]
	if math.Abs(dot) < 0.99 {
		t.Errorf("expected |dot| >= 0.99, got %v", math.Abs(dot))
	}
}

func TestFitRecoversNoisyPlane(t *testing.T) {
	const a, b, c = 0.5, -0.25, 1.234
	r := rand.New(rand.NewSource(123456))

	n := 100
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = r.Float64()*20 - 10
		ys[i] = r.Float64()*20 - 10
		zs[i] = a*xs[i] + b*ys[i] + c + r.NormFloat64()*0.01
	}

	normal := Fit(xs, ys, zs)
	if normal.IsZero() {
		t.Fatal("expected a non-degenerate normal")
	}

	expected := []float64{a, b, -1.0}
	enorm := math.Sqrt(a*a + b*b + 1)
	for i := range expected {
		expected[i] /= enorm
	}

	dot := normal.X*expected[0] + normal.Y*expected[1] + normal.Z*expected[2]
	if math.Abs(dot) < 0.99 {
		t.Errorf("expected |dot| >= 0.99, got %v", math.Abs(dot))
	}
}

func TestFitRejectsTooFewPoints(t *testing.T) {
	n := Fit([]float64{0, 1}, []float64{0, 1}, []float64{0, 1})
	if !n.IsZero() {
		t.Error("expected zero normal for fewer than 3 points")
	}
}

func TestFitDegenerateColinearInputDoesNotPanic(t *testing.T) {
	// All points on a single line in the xy-plane: the normal-equation
	// matrix is singular along the line's direction.
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 2, 3}
	z := []float64{0, 0, 0, 0}

	n := Fit(x, y, z)
	_ = n // degenerate-but-regularized inputs may still solve; just must not panic
}
