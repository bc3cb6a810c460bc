// Package planefit implements the regularized least-squares plane fit
// (C7): given a cluster's (x, y, rssi) triples, it fits z = a*x + b*y + c
// by solving the 3x3 normal equations via Gaussian elimination with
// partial pivoting, and returns the resulting unit plane normal (a, b,
// -1)/||.||. Grounded on fitPlaneNormal in
// original_source/src/core/ClusteredTriangulationBase.cpp, including its
// diagonal regularization and pivot-rejection conventions, verified
// against original_source/src/tools/plane_test.cpp.
package planefit

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RegularizationEps is added to the normal-equation matrix's diagonal to
// keep it well-conditioned for small or near-degenerate clusters.
const RegularizationEps = 1e-12

// PivotRejectionThreshold is the minimum acceptable magnitude for a pivot
// during Gaussian elimination; a smaller pivot indicates a singular (or
// numerically indistinguishable from singular) system, and Fit returns a
// zero normal rather than amplify rounding error.
const PivotRejectionThreshold = 1e-15

// Normal is a unit plane normal in (x, y, z) order. A zero Normal signals
// a degenerate or rejected fit.
type Normal struct {
	X, Y, Z float64
}

// IsZero reports whether n is the degenerate-fit sentinel (0, 0, 0).
func (n Normal) IsZero() bool { return n.X == 0 && n.Y == 0 && n.Z == 0 }

// Fit returns the unit normal of the least-squares plane z = a*x + b*y + c
// through the given points. x, y, and z must be equal length and at least
// 3 long; Fit returns the zero Normal if that precondition fails or if
// elimination hits a pivot smaller than PivotRejectionThreshold.
func Fit(x, y, z []float64) Normal {
	n := len(x)
	if n < 3 || len(y) != n || len(z) != n {
		return Normal{}
	}

	var sxx, sxy, sx, syy, sy, sz, sxz, syz float64
	for i := 0; i < n; i++ {
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
		sx += x[i]
		syy += y[i] * y[i]
		sy += y[i]
		sz += z[i]
		sxz += x[i] * z[i]
		syz += y[i] * z[i]
	}

	m := [3][4]float64{
		{sxx + RegularizationEps, sxy, sx, sxz},
		{sxy, syy + RegularizationEps, sy, syz},
		{sx, sy, float64(n) + RegularizationEps, sz},
	}

	sol, ok := solve3x4(m)
	if !ok {
		return Normal{}
	}

	normal := []float64{sol[0], sol[1], -1.0}
	norm := floats.Norm(normal, 2)
	if norm == 0 {
		return Normal{}
	}
	floats.Scale(1/norm, normal)

	return Normal{X: normal[0], Y: normal[1], Z: normal[2]}
}

// solve3x4 performs Gaussian elimination with partial pivoting on the
// augmented 3x4 matrix m, returning the solution to the 3x3 linear system
// it represents. ok is false if any pivot falls below
// PivotRejectionThreshold.
func solve3x4(m [3][4]float64) (sol [3]float64, ok bool) {
	for col := 0; col < 3; col++ {
		pivot := col
		maxAbs := math.Abs(m[pivot][col])
		for r := col + 1; r < 3; r++ {
			if v := math.Abs(m[r][col]); v > maxAbs {
				maxAbs = v
				pivot = r
			}
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
		}

		piv := m[col][col]
		if math.Abs(piv) < PivotRejectionThreshold {
			return sol, false
		}
		for c := col; c < 4; c++ {
			m[col][c] /= piv
		}
		for r := col + 1; r < 3; r++ {
			factor := m[r][col]
			for c := col; c < 4; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	for i := 2; i >= 0; i-- {
		val := m[i][3]
		for j := i + 1; j < 3; j++ {
			val -= m[i][j] * sol[j]
		}
		sol[i] = val / m[i][i]
	}

	return sol, true
}
