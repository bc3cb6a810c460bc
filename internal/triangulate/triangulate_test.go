package triangulate

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/banshee-data/rfloc/internal/geo"
	"github.com/banshee-data/rfloc/internal/params"
	"github.com/banshee-data/rfloc/internal/sample"
)

func defaultParams() *params.Store {
	p := params.New()
	p.SetFloat("coalition_distance", 1.0)
	p.SetInt("cluster_min_points", 3)
	p.SetFloat("max_internal_distance", 20)
	p.SetFloat("min_geometric_ratio", 0.0)
	p.SetFloat("ideal_geometric_ratio", 1.0)
	p.SetFloat("max_geometric_ratio", 1.0)
	p.SetFloat("min_area", 0.0)
	p.SetFloat("ideal_area", 20)
	p.SetFloat("max_area", 10000)
	p.SetFloat("min_rssi_variance", 0.0)
	p.SetFloat("ideal_rssi_variance", 10)
	p.SetFloat("max_rssi_variance", 10000)
	p.SetFloat("weight_geometric_ratio", 1.0)
	p.SetFloat("weight_area", 1.0)
	p.SetFloat("weight_rssi_variance", 1.0)
	p.SetFloat("bottom_rssi", -90)
	p.SetFloat("top_rssi", -30)
	p.SetFloat("weight_rssi", 1.0)
	p.SetFloat("max_overlap", 0.05)
	p.SetFloat("per_seed_timeout", 1.0)
	p.SetFloat("precision", 1.0)
	p.SetInt("grid_half_size", 20)
	p.SetFloat("cluster_score_weight", 1.0)
	p.SetFloat("angle_weight", 1.0)
	p.SetFloat("timeout", 0)
	return p
}

func syntheticDevice(r *rand.Rand, n int, lat, lon float64, rssi int) []*sample.Sample {
	pts := make([]*sample.Sample, n)
	for i := range pts {
		pts[i] = sample.New(lat+r.Float64()*0.0002, lon+r.Float64()*0.0002, rssi, int64(i), "devA", "net1")
	}
	return pts
}

func TestDirectStrategyPipelineProducesAPosition(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	origin := geo.Origin{Lat: 40.0, Lon: -105.0}

	points := map[string][]*sample.Sample{
		"sensor1": syntheticDevice(r, 8, 40.0001, -105.0001, -50),
		"sensor2": syntheticDevice(r, 8, 40.0002, -104.9999, -52),
	}

	p := defaultParams()
	pipeline := &Pipeline{
		Origin:   origin,
		Strategy: &DirectStrategy{Params: p},
		Params:   p,
	}

	result, err := pipeline.Run(context.Background(), points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Latitude == 0 && result.Longitude == 0 {
		t.Error("expected a nonzero estimated position")
	}
}

func TestPipelineReturnsInsufficientClustersError(t *testing.T) {
	origin := geo.Origin{Lat: 0, Lon: 0}
	points := map[string][]*sample.Sample{
		"sensor1": {sample.New(0.0001, 0.0001, -50, 0, "devA", "net1")},
	}

	p := defaultParams()
	pipeline := &Pipeline{
		Origin:   origin,
		Strategy: &DirectStrategy{Params: p},
		Params:   p,
	}

	_, err := pipeline.Run(context.Background(), points)
	if !errors.Is(err, ErrInsufficientClusters) {
		t.Fatalf("expected ErrInsufficientClusters, got %v", err)
	}
}
