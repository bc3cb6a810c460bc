// Package geo implements the local tangent-plane projection (C1) that maps
// geographic coordinates to a planar (x, y) frame centred on a chosen
// origin, and back.
package geo

import (
	"errors"
	"math"

	"github.com/banshee-data/rfloc/internal/sample"
)

// EarthRadiusMeters is the fixed Earth radius used by the forward/inverse
// projection. The value is region-calibrated (a mean radius is accurate
// enough over the few-kilometre spans the pipeline operates on) and kept as
// a named constant rather than a parameter, matching spec.md §4.1.
const EarthRadiusMeters = 6371000.0

// ErrUninitializedCoordinates is returned when a projection is attempted on
// a sample whose geographic coordinates are not set, whether or not it
// carries planar coordinates.
var ErrUninitializedCoordinates = errors.New("geo: sample has no initialized coordinates")

// ErrInvalidCoordinates is returned when a sample's latitude or longitude is
// NaN, infinite, or outside the physically possible range.
var ErrInvalidCoordinates = errors.New("geo: invalid latitude or longitude")

// validLatLon reports whether lat/lon are finite and within the physically
// possible range, mirroring validCoordinates's gate in the original
// pipeline (original_source/src/core), which every processDataPoint call
// and the final result must pass.
func validLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Origin is the shared (lat, lon) anchor of a run's local planar frame.
type Origin struct {
	Lat float64
	Lon float64
}

// Forward projects a geographic point into the planar frame anchored at o.
func (o Origin) Forward(lat, lon float64) (x, y float64) {
	latRad := o.Lat * math.Pi / 180
	x = EarthRadiusMeters * (lon - o.Lon) * math.Pi / 180 * math.Cos(latRad)
	y = EarthRadiusMeters * (lat - o.Lat) * math.Pi / 180
	return x, y
}

// Inverse is the algebraic inverse of Forward: given planar coordinates, it
// recovers the geographic point relative to o.
func (o Origin) Inverse(x, y float64) (lat, lon float64) {
	latRad := o.Lat * math.Pi / 180
	lat = y/EarthRadiusMeters*180/math.Pi + o.Lat
	lon = x/(EarthRadiusMeters*math.Cos(latRad))*180/math.Pi + o.Lon
	return lat, lon
}

// Project applies the forward transform to s in place, populating its
// planar (X, Y) coordinates from its geographic (Lat, Lon) pair.
func Project(o Origin, s *sample.Sample) error {
	if !s.HasGeo() {
		return ErrUninitializedCoordinates
	}
	if !validLatLon(s.Lat, s.Lon) {
		return ErrInvalidCoordinates
	}
	x, y := o.Forward(s.Lat, s.Lon)
	s.SetPlanar(x, y, o.Lat, o.Lon)
	return nil
}

// ProjectAll projects every sample in points against the same origin,
// returning on the first invalid sample.
func ProjectAll(o Origin, points []*sample.Sample) error {
	for _, p := range points {
		if err := Project(o, p); err != nil {
			return err
		}
	}
	return nil
}

// Unproject converts planar coordinates back to a geographic point using o
// as the anchor. Used by C9 to back-project the estimated emitter position.
func Unproject(o Origin, x, y float64) (lat, lon float64) {
	return o.Inverse(x, y)
}
