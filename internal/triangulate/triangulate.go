// Package triangulate orchestrates the full position-estimation pipeline
// (projection -> path ordering -> coalescing -> cluster search -> AoA
// estimation -> position search -> back-projection) behind a Strategy
// interface, so that the orchestration shell stays fixed while the
// clustering approach varies — a composition-over-inheritance structure
// grounded on ITriangulationAlgorithm /
// TriangulationService (original_source/src/core/ITriangulationAlgorithm.h,
// TriangulationService.h/.cpp).
package triangulate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/banshee-data/rfloc/internal/aoa"
	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/clustersearch"
	"github.com/banshee-data/rfloc/internal/coalesce"
	"github.com/banshee-data/rfloc/internal/distcache"
	"github.com/banshee-data/rfloc/internal/geo"
	"github.com/banshee-data/rfloc/internal/params"
	"github.com/banshee-data/rfloc/internal/pathorder"
	"github.com/banshee-data/rfloc/internal/possearch"
	"github.com/banshee-data/rfloc/internal/sample"
	"github.com/banshee-data/rfloc/internal/timeutil"
)

// ErrInvalidCoordinates is returned when a sample's geographic coordinates
// fail validation before projection; fatal, as a run cannot be sensibly
// attempted.
var ErrInvalidCoordinates = errors.New("triangulate: invalid coordinates")

// ErrInsufficientClusters is returned when fewer than two clusters with a
// usable AoA estimate are found across all devices; fatal, since position
// search needs at least two AoA rays to intersect.
var ErrInsufficientClusters = errors.New("triangulate: insufficient clusters to estimate a position")

// Telemetry records non-fatal anomalies surfaced during a run: a degenerate
// plane fit, a cluster with no usable AoA gradient, a per-seed search
// timeout, or a position-search timeout. None of these abort the run; they
// are reported so a caller can judge result quality.
type Telemetry struct {
	ClustersFound            int
	ClustersWithDegenerateAoA int
	SeedTimeouts             int
	PositionSearchTimedOut   bool
	CombinationsExplored     int
}

// Result is a completed run's estimated position plus its telemetry.
type Result struct {
	Latitude, Longitude float64
	Telemetry           Telemetry
}

// Strategy is the pluggable clustering/AoA-estimation approach a Pipeline
// delegates to. Implementations correspond to the two algorithm variants
// named in the parameter store ("cta1", "cta2"); see DirectStrategy and
// SearchStrategy.
type Strategy interface {
	// Estimate fits clusters over points (already projected, ordered, and
	// coalesced) and returns those clusters with AoA estimates attached,
	// plus telemetry about the fitting process.
	Estimate(ctx context.Context, points []*sample.Sample, cache *distcache.Cache) ([]*cluster.Cluster, Telemetry, error)
}

// Pipeline runs the full projection-to-position pipeline over every
// device's samples using a configurable Strategy.
type Pipeline struct {
	Origin   geo.Origin
	Strategy Strategy
	Params   *params.Store
	Clock    timeutil.Clock
}

// Run projects pointsByDevice into the pipeline's planar frame, orders and
// coalesces each device's samples, delegates clustering to the Strategy,
// and minimizes the resulting cost surface to a single estimated position.
func (p *Pipeline) Run(ctx context.Context, pointsByDevice map[string][]*sample.Sample) (Result, error) {
	var allClusters []*cluster.Cluster
	var telemetry Telemetry

	cache := distcache.New()

	for device, pts := range pointsByDevice {
		if err := geo.ProjectAll(p.Origin, pts); err != nil {
			return Result{}, fmt.Errorf("%w: device %s: %v", ErrInvalidCoordinates, device, err)
		}

		coalitionDistance, err := p.Params.Float("coalition_distance")
		if err != nil {
			return Result{}, err
		}

		ordered := pathorder.Order(pts, cache)
		coalesced := coalesce.Coalesce(ordered, coalitionDistance)

		clusters, t, err := p.Strategy.Estimate(ctx, coalesced, cache)
		if err != nil {
			return Result{}, err
		}

		allClusters = append(allClusters, clusters...)
		telemetry.ClustersFound += t.ClustersFound
		telemetry.ClustersWithDegenerateAoA += t.ClustersWithDegenerateAoA
		telemetry.SeedTimeouts += t.SeedTimeouts
		telemetry.CombinationsExplored += t.CombinationsExplored
	}

	if telemetry.ClustersFound < 2 {
		return Result{}, ErrInsufficientClusters
	}

	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	precision, err := p.Params.Float("precision")
	if err != nil {
		return Result{}, err
	}
	gridHalfSize, err := p.Params.Int("grid_half_size")
	if err != nil {
		return Result{}, err
	}
	clusterScoreWeight, err := p.Params.Float("cluster_score_weight")
	if err != nil {
		return Result{}, err
	}
	angleWeight, err := p.Params.Float("angle_weight")
	if err != nil {
		return Result{}, err
	}
	timeout, err := p.Params.Float("timeout")
	if err != nil {
		return Result{}, err
	}

	searchResult := possearch.Search(allClusters, possearch.Options{
		Precision:      precision,
		GridHalfSize:   gridHalfSize,
		ExtraWeight:    clusterScoreWeight,
		AngleWeight:    angleWeight,
		TimeoutSeconds: timeout,
		Clock:          clock,
	})
	telemetry.PositionSearchTimedOut = searchResult.TimedOut

	lat, lon := geo.Unproject(p.Origin, searchResult.X, searchResult.Y)

	log.Printf("triangulate: estimated position (lat=%v, lon=%v) from %d clusters, cost=%v",
		lat, lon, telemetry.ClustersFound, searchResult.Cost)

	return Result{Latitude: lat, Longitude: lon, Telemetry: telemetry}, nil
}
