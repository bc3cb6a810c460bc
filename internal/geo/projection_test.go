package geo

import (
	"math"
	"testing"

	"github.com/banshee-data/rfloc/internal/sample"
)

func TestRoundTripWithinTenKm(t *testing.T) {
	origin := Origin{Lat: 47.6062, Lon: -122.3321}

	cases := []struct{ dLat, dLon float64 }{
		{0, 0},
		{0.01, 0.01},
		{-0.03, 0.02},
		{0.07, -0.07}, // ~9.4km
	}

	for _, c := range cases {
		lat := origin.Lat + c.dLat
		lon := origin.Lon + c.dLon

		x, y := origin.Forward(lat, lon)
		gotLat, gotLon := origin.Inverse(x, y)

		if math.Abs(gotLat-lat) > 1e-6 {
			t.Errorf("lat round-trip: got %v want %v", gotLat, lat)
		}
		if math.Abs(gotLon-lon) > 1e-6 {
			t.Errorf("lon round-trip: got %v want %v", gotLon, lon)
		}
	}
}

func TestProjectPopulatesPlanar(t *testing.T) {
	origin := Origin{Lat: 10, Lon: 20}
	s := sample.New(10.001, 20.001, -60, 1000, "dev1", "net1")

	if err := Project(origin, s); err != nil {
		t.Fatalf("Project: %v", err)
	}
	if !s.HasPlanar() {
		t.Fatal("expected planar coordinates to be populated")
	}

	lat, lon := Unproject(origin, s.X, s.Y)
	if math.Abs(lat-s.Lat) > 1e-6 || math.Abs(lon-s.Lon) > 1e-6 {
		t.Errorf("unproject mismatch: got (%v,%v) want (%v,%v)", lat, lon, s.Lat, s.Lon)
	}
}

func TestProjectUninitialized(t *testing.T) {
	origin := Origin{Lat: 0, Lon: 0}
	s := &sample.Sample{}

	if err := Project(origin, s); err != ErrUninitializedCoordinates {
		t.Fatalf("expected ErrUninitializedCoordinates, got %v", err)
	}
}

func TestProjectRejectsNaNAndOutOfRangeCoordinates(t *testing.T) {
	origin := Origin{Lat: 0, Lon: 0}

	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"NaN lat", math.NaN(), 10},
		{"Inf lon", 10, math.Inf(1)},
		{"lat out of range", 91, 10},
		{"lon out of range", 10, 181},
	}

	for _, c := range cases {
		s := sample.New(c.lat, c.lon, -60, 0, "dev1", "net1")
		if err := Project(origin, s); err != ErrInvalidCoordinates {
			t.Errorf("%s: expected ErrInvalidCoordinates, got %v", c.name, err)
		}
	}
}

func TestOriginAtEquatorZeroOffset(t *testing.T) {
	origin := Origin{Lat: 0, Lon: 0}
	x, y := origin.Forward(0, 0)
	if x != 0 || y != 0 {
		t.Errorf("expected (0,0) at origin, got (%v,%v)", x, y)
	}
}
