// Package sample defines the located RSSI measurement that flows through
// the triangulation pipeline.
package sample

import "sync/atomic"

var nextID int64

// NextID returns a process-unique identifier for a new Sample.
func NextID() int64 {
	return atomic.AddInt64(&nextID, 1)
}

// Sample is a single received-signal-strength measurement taken at a known
// geographic location. It carries both a geographic (lat, lon) and a local
// planar (X, Y) representation. SetGeo invalidates the planar pair until
// Project (see internal/geo) re-applies the transform; SetPlanar does not
// invalidate the geographic pair.
type Sample struct {
	ID int64

	// ZeroLat, ZeroLon is the shared planar-frame origin for every sample in
	// a run.
	ZeroLat float64
	ZeroLon float64

	Lat float64
	Lon float64
	X   float64
	Y   float64

	RSSI        int
	TimestampMs int64
	DeviceID    string
	SSID        string

	hasGeo    bool
	hasPlanar bool
}

// New builds a Sample from a geographic measurement. The planar coordinates
// are left unset until Project is applied.
func New(lat, lon float64, rssi int, timestampMs int64, deviceID, ssid string) *Sample {
	return &Sample{
		ID:          NextID(),
		Lat:         lat,
		Lon:         lon,
		RSSI:        rssi,
		TimestampMs: timestampMs,
		DeviceID:    deviceID,
		SSID:        ssid,
		hasGeo:      true,
	}
}

// HasGeo reports whether the geographic coordinates are currently valid.
func (s *Sample) HasGeo() bool { return s.hasGeo }

// HasPlanar reports whether the planar coordinates are currently valid.
func (s *Sample) HasPlanar() bool { return s.hasPlanar }

// SetGeo overwrites the geographic coordinates and invalidates the planar
// pair until it is recomputed.
func (s *Sample) SetGeo(lat, lon float64) {
	s.Lat = lat
	s.Lon = lon
	s.hasGeo = true
	s.hasPlanar = false
}

// SetPlanar records the projected planar coordinates for this sample.
// Called by internal/geo after a forward projection.
func (s *Sample) SetPlanar(x, y, zeroLat, zeroLon float64) {
	s.X = x
	s.Y = y
	s.ZeroLat = zeroLat
	s.ZeroLon = zeroLon
	s.hasPlanar = true
}

// Merge replaces this sample's position and RSSI with the arithmetic mean
// of itself and other, used by the point coalescer (C5). The identifier and
// device/network metadata of the receiver are kept.
func (s *Sample) Merge(other *Sample) {
	s.X = (s.X + other.X) / 2
	s.Y = (s.Y + other.Y) / 2
	s.Lat = (s.Lat + other.Lat) / 2
	s.Lon = (s.Lon + other.Lon) / 2
	s.RSSI = (s.RSSI + other.RSSI) / 2
}
