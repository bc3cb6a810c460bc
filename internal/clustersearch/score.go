package clustersearch

import "github.com/banshee-data/rfloc/internal/cluster"

// triangleScore interpolates linearly from 0 at min (or max) to 1 at ideal,
// returning 0 outside [min, max]. Grounded on the triangleScore lambda in
// PointCluster::getAndSetScore (original_source/src/core/Cluster.cpp).
func triangleScore(value, min, ideal, max float64) float64 {
	if value < min || value > max {
		return 0
	}
	if value <= ideal {
		if ideal == min {
			return 1
		}
		return (value - min) / (ideal - min)
	}
	if max == ideal {
		return 1
	}
	return (max - value) / (max - ideal)
}

// Weights holds the scoring coefficients and ideal/min/max bands that
// shape a cluster's acceptability score, all sourced from the parameter
// store (C10).
type Weights struct {
	MinGeometricRatio, IdealGeometricRatio, MaxGeometricRatio float64
	MinArea, IdealArea, MaxArea                               float64
	MinRSSIVariance, IdealRSSIVariance, MaxRSSIVariance        float64
	WeightGeometricRatio, WeightArea, WeightRSSIVariance       float64
	BottomRSSI, TopRSSI, WeightRSSI                            float64
}

// Valid reports whether c's geometry and RSSI variance all fall within the
// acceptable min/max bands — the gate applied before a cluster is scored
// at all.
func (w Weights) Valid(c *cluster.Cluster) bool {
	ratio := c.GeometricRatio()
	area := c.Area()
	variance := c.VarianceRSSI()

	return ratio >= w.MinGeometricRatio && ratio <= w.MaxGeometricRatio &&
		area >= w.MinArea && area <= w.MaxArea &&
		variance >= w.MinRSSIVariance && variance <= w.MaxRSSIVariance
}

// Score computes and records c's acceptability score: a weighted sum of
// triangular interpolations for geometric ratio, area, and RSSI variance,
// plus a linear RSSI-strength term clamped to [0, 1].
func (w Weights) Score(c *cluster.Cluster) float64 {
	grScore := triangleScore(c.GeometricRatio(), w.MinGeometricRatio, w.IdealGeometricRatio, w.MaxGeometricRatio)
	areaScore := triangleScore(c.Area(), w.MinArea, w.IdealArea, w.MaxArea)
	varianceScore := triangleScore(c.VarianceRSSI(), w.MinRSSIVariance, w.IdealRSSIVariance, w.MaxRSSIVariance)

	var rssiScore float64
	avgRSSI := c.MeanRSSI()
	if avgRSSI > w.BottomRSSI {
		if w.TopRSSI == w.BottomRSSI {
			rssiScore = 1
		} else {
			rssiScore = (avgRSSI - w.BottomRSSI) / (w.TopRSSI - w.BottomRSSI)
		}
		if rssiScore > 1 {
			rssiScore = 1
		}
		if rssiScore < 0 {
			rssiScore = 0
		}
	}

	score := w.WeightGeometricRatio*grScore + w.WeightArea*areaScore +
		w.WeightRSSIVariance*varianceScore + w.WeightRSSI*rssiScore
	c.Score = score
	return score
}
