// Package ingest parses signal files into per-device sample sets. Grounded
// on JsonSignalParser::parseFileToVector
// (original_source/src/core/JsonSignalParser.cpp), generalized to the
// device-grouped record shape spec.md's EXTERNAL INTERFACES section
// describes; Go's encoding/json replaces the original's hand-rolled
// brace-scanning parser, since Go's standard decoder already gives a
// correct, tested JSON grammar that no pack library improves on for this
// shape.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/rfloc/internal/geo"
	"github.com/banshee-data/rfloc/internal/sample"
)

// record is one measurement as it appears in a signal file, in either the
// flat (device_id embedded per-record) or nested (grouped under a
// device_id key) input shape.
type record struct {
	DeviceID    string `json:"device_id"`
	SSID        string `json:"ssid"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	RSSI        int     `json:"rssi"`
	TimestampMs int64   `json:"timestamp_ms"`
	Timestamp   int64   `json:"timestamp"`
}

func (r record) ts() int64 {
	if r.TimestampMs != 0 {
		return r.TimestampMs
	}
	return r.Timestamp
}

// Parse reads a signal file from r and groups its records by device id. It
// accepts two top-level shapes: a flat JSON array of records each
// carrying its own "device_id", or a JSON object mapping device id to an
// array of records (the device id is then implied by the key and need not
// repeat inside each record).
//
// The returned Origin anchors the run's planar frame at the first record
// encountered: for the flat array that is the first record in the file; for
// the object shape it is the first record of whichever device the map
// iteration yields first, which is not fixed by the key order in the file.
// This follows JsonSignalParser::parseFileToVector's
// zero_lat/zero_lon sentinel-initialized assignment (the first point parsed
// becomes the projection origin for every point that follows).
func Parse(r io.Reader) (map[string][]*sample.Sample, geo.Origin, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, geo.Origin{}, fmt.Errorf("ingest: reading signal file: %w", err)
	}

	var asArray []record
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return groupFlat(asArray), firstOrigin(asArray), nil
	}

	var asMap map[string][]record
	if err := json.Unmarshal(raw, &asMap); err == nil {
		flat := flattenMap(asMap)
		return groupNested(asMap), firstOrigin(flat), nil
	}

	return nil, geo.Origin{}, fmt.Errorf("ingest: signal file is neither a record array nor a device-keyed object")
}

func firstOrigin(records []record) geo.Origin {
	if len(records) == 0 {
		return geo.Origin{}
	}
	return geo.Origin{Lat: records[0].Latitude, Lon: records[0].Longitude}
}

func flattenMap(byDevice map[string][]record) []record {
	var out []record
	for _, records := range byDevice {
		out = append(out, records...)
	}
	return out
}

func groupFlat(records []record) map[string][]*sample.Sample {
	out := make(map[string][]*sample.Sample)
	for _, r := range records {
		device := r.DeviceID
		if device == "" {
			device = r.SSID
		}
		out[device] = append(out[device], sample.New(r.Latitude, r.Longitude, r.RSSI, r.ts(), device, r.SSID))
	}
	return out
}

func groupNested(byDevice map[string][]record) map[string][]*sample.Sample {
	out := make(map[string][]*sample.Sample, len(byDevice))
	for device, records := range byDevice {
		samples := make([]*sample.Sample, 0, len(records))
		for _, r := range records {
			samples = append(samples, sample.New(r.Latitude, r.Longitude, r.RSSI, r.ts(), device, r.SSID))
		}
		out[device] = samples
	}
	return out
}
