// Package report renders triangulation diagnostics: an HTML summary chart
// for a stored run (served by internal/httpapi) and a cost-surface/AoA-ray
// PNG for offline inspection. Grounded on
// internal/lidar/monitor/gridplotter.go's gonum.org/v1/plot usage
// (banshee-data/velocity.report) for the PNG renderer, and the same
// package's go-echarts handlers for the HTML chart shape.
package report

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/store"
)

// RunSummaryChart builds an HTML page summarizing a stored run's
// telemetry as a bar chart.
func RunSummaryChart(run store.Run) *components.Page {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Run %s", run.ID),
			Subtitle: fmt.Sprintf("lat=%.6f lon=%.6f", run.Result.Latitude, run.Result.Longitude),
		}),
	)

	bar.SetXAxis([]string{"clusters_found", "combinations", "seed_timeouts"}).
		AddSeries("telemetry", []opts.BarData{
			{Value: run.Result.Telemetry.ClustersFound},
			{Value: run.Result.Telemetry.CombinationsExplored},
			{Value: run.Result.Telemetry.SeedTimeouts},
		})

	page := components.NewPage()
	page.AddCharts(bar)
	return page
}

// SaveCostSurfacePNG renders a scatter of the positions of the given grid
// samples overlaid with each cluster's AoA ray drawn from its centroid, to
// path. Every sample is drawn with the same glyph; the Cost values are not
// rendered. Clusters with a zero AoA vector are not drawn.
func SaveCostSurfacePNG(path string, samples []CostSample, clusters []*cluster.Cluster) error {
	p := plot.New()
	p.Title.Text = "Position search cost surface"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.X
		pts[i].Y = s.Y
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("report: building cost-surface scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	for i, c := range clusters {
		cx, cy := c.Centroid()
		if c.AoAX == 0 && c.AoAY == 0 {
			continue
		}
		ray := plotter.XYs{
			{X: cx, Y: cy},
			{X: cx + c.AoAX*50, Y: cy + c.AoAY*50},
		}
		line, err := plotter.NewLine(ray)
		if err != nil {
			return fmt.Errorf("report: building AoA ray for cluster %d: %w", i, err)
		}
		p.Add(line)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving cost surface PNG: %w", err)
	}
	return nil
}

// CostSample is one evaluated grid point from a position search, kept for
// diagnostic rendering.
type CostSample struct {
	X, Y, Cost float64
}
