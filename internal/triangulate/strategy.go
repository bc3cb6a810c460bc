package triangulate

import (
	"context"
	"errors"
	"runtime"

	"github.com/banshee-data/rfloc/internal/aoa"
	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/clustersearch"
	"github.com/banshee-data/rfloc/internal/distcache"
	"github.com/banshee-data/rfloc/internal/params"
	"github.com/banshee-data/rfloc/internal/sample"
)

// weightsFromParams reads the cluster-scoring bands and weights named in
// spec.md's parameter table out of a Store, joining every lookup or
// coercion error it hits so the caller sees every bad name at once rather
// than stopping at the first.
func weightsFromParams(p *params.Store) (clustersearch.Weights, error) {
	var errs []error
	get := func(name string) float64 {
		v, err := p.Float(name)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	w := clustersearch.Weights{
		MinGeometricRatio:    get("min_geometric_ratio"),
		IdealGeometricRatio:  get("ideal_geometric_ratio"),
		MaxGeometricRatio:    get("max_geometric_ratio"),
		MinArea:              get("min_area"),
		IdealArea:            get("ideal_area"),
		MaxArea:              get("max_area"),
		MinRSSIVariance:      get("min_rssi_variance"),
		IdealRSSIVariance:    get("ideal_rssi_variance"),
		MaxRSSIVariance:      get("max_rssi_variance"),
		WeightGeometricRatio: get("weight_geometric_ratio"),
		WeightArea:           get("weight_area"),
		WeightRSSIVariance:   get("weight_rssi_variance"),
		BottomRSSI:           get("bottom_rssi"),
		TopRSSI:              get("top_rssi"),
		WeightRSSI:           get("weight_rssi"),
	}
	return w, errors.Join(errs...)
}

func estimateAoAForClusters(clusters []*cluster.Cluster) (found, degenerate int) {
	for _, c := range clusters {
		if aoa.Estimate(c) {
			found++
		} else {
			degenerate++
		}
	}
	return found, degenerate
}

// SearchStrategy is the "cta2" algorithm variant: a full branch-and-bound
// cluster search (C6) over every candidate subset, scored by the
// triangular weighting function. Grounded on
// ClusteredTriangulationAlgorithm2 (original_source/src/core).
type SearchStrategy struct {
	Params *params.Store
}

// Estimate implements Strategy.
func (s *SearchStrategy) Estimate(ctx context.Context, points []*sample.Sample, cache *distcache.Cache) ([]*cluster.Cluster, Telemetry, error) {
	maxInternalDistance, err := s.Params.Float("max_internal_distance")
	if err != nil {
		return nil, Telemetry{}, err
	}
	clusterMinPoints, err := s.Params.Int("cluster_min_points")
	if err != nil {
		return nil, Telemetry{}, err
	}
	maxOverlap, err := s.Params.Float("max_overlap")
	if err != nil {
		return nil, Telemetry{}, err
	}
	perSeedTimeout, err := s.Params.Float("per_seed_timeout")
	if err != nil {
		return nil, Telemetry{}, err
	}
	weights, err := weightsFromParams(s.Params)
	if err != nil {
		return nil, Telemetry{}, err
	}

	result := clustersearch.Run(ctx, points, cache, clustersearch.Options{
		MaxInternalDistance: maxInternalDistance,
		ClusterMinPoints:    clusterMinPoints,
		MaxOverlap:          maxOverlap,
		PerSeedTimeout:      perSeedTimeout,
		Weights:             weights,
		MaxWorkers:          runtime.GOMAXPROCS(0),
	})

	found, degenerate := estimateAoAForClusters(result.Clusters)

	usable := make([]*cluster.Cluster, 0, found)
	for _, c := range result.Clusters {
		if c.AoAX != 0 || c.AoAY != 0 {
			usable = append(usable, c)
		}
	}

	t := Telemetry{
		ClustersFound:             len(usable),
		ClustersWithDegenerateAoA: degenerate,
		SeedTimeouts:              result.TimedOutSeeds,
		CombinationsExplored:      result.CombinationsExplored,
	}
	return usable, t, nil
}

// DirectStrategy is the "cta1" algorithm variant: the device's entire
// coalesced point set is treated as a single cluster and fit directly,
// skipping branch-and-bound subset search. Grounded on
// ClusteredTriangulationAlgorithm (original_source/src/core), which
// clusters and fits AoA without a combinatorial search stage.
//
// Estimate yields at most one cluster per device, so a single-device run
// can never clear Pipeline.Run's ClustersFound<2 gate on cta1 alone; it
// only produces a usable position when combined with at least one other
// device's cluster. cta2 (SearchStrategy) is the default for this reason.
type DirectStrategy struct {
	Params *params.Store
}

// Estimate implements Strategy.
func (s *DirectStrategy) Estimate(ctx context.Context, points []*sample.Sample, cache *distcache.Cache) ([]*cluster.Cluster, Telemetry, error) {
	clusterMinPoints, err := s.Params.Int("cluster_min_points")
	if err != nil {
		return nil, Telemetry{}, err
	}
	if len(points) < clusterMinPoints {
		return nil, Telemetry{}, nil
	}

	c := cluster.NewNormal()
	for _, p := range points {
		c.AddNormal(p)
	}

	if !aoa.Estimate(c) {
		return nil, Telemetry{ClustersWithDegenerateAoA: 1}, nil
	}

	return []*cluster.Cluster{c}, Telemetry{ClustersFound: 1}, nil
}
