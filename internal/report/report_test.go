package report

import (
	"path/filepath"
	"testing"

	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/sample"
	"github.com/banshee-data/rfloc/internal/store"
	"github.com/banshee-data/rfloc/internal/triangulate"
)

func TestRunSummaryChartRenders(t *testing.T) {
	run := store.Run{
		ID: "test-run",
		Result: triangulate.Result{
			Latitude:  40.0,
			Longitude: -105.0,
			Telemetry: triangulate.Telemetry{ClustersFound: 2, CombinationsExplored: 50},
		},
	}

	page := RunSummaryChart(run)
	if page == nil {
		t.Fatal("expected a non-nil page")
	}
}

func TestSaveCostSurfacePNG(t *testing.T) {
	c := cluster.NewNormal()
	s := &sample.Sample{ID: 1, RSSI: -50}
	s.SetPlanar(0, 0, 0, 0)
	c.AddNormal(s)
	c.AoAX, c.AoAY = 1, 0

	samples := []CostSample{
		{X: -5, Y: -5, Cost: 3},
		{X: 0, Y: 0, Cost: 1},
		{X: 5, Y: 5, Cost: 2},
	}

	path := filepath.Join(t.TempDir(), "cost.png")
	if err := SaveCostSurfacePNG(path, samples, []*cluster.Cluster{c}); err != nil {
		t.Fatalf("SaveCostSurfacePNG: %v", err)
	}
}
