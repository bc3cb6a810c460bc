// Command rfloc estimates an emitter's geographic position from clustered
// RSSI observations. It exposes three subcommands: run (ingest a signal
// file, triangulate, print the result), serve (run the HTTP API backed by
// a sqlite run store), and plot (render a diagnostic cost-surface PNG for
// one ingested file). Grounded on cmd/sweep/main.go and cmd/lidar/lidar.go
// (banshee-data/velocity.report) for the flag.FlagSet-per-subcommand
// shape, and original_source/src/core/CliParser.cpp for the known-flag
// set and parameter passthrough semantics (see internal/cliconfig).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/banshee-data/rfloc/internal/cluster"
	"github.com/banshee-data/rfloc/internal/coalesce"
	"github.com/banshee-data/rfloc/internal/distcache"
	"github.com/banshee-data/rfloc/internal/fsutil"
	"github.com/banshee-data/rfloc/internal/geo"
	"github.com/banshee-data/rfloc/internal/httpapi"
	"github.com/banshee-data/rfloc/internal/ingest"
	"github.com/banshee-data/rfloc/internal/params"
	"github.com/banshee-data/rfloc/internal/pathorder"
	"github.com/banshee-data/rfloc/internal/possearch"
	"github.com/banshee-data/rfloc/internal/report"
	"github.com/banshee-data/rfloc/internal/store"
	"github.com/banshee-data/rfloc/internal/triangulate"
	"github.com/banshee-data/rfloc/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	if hasHelpFlag(args) || sub == "help" {
		printUsage()
		return
	}
	if hasParamHelpFlag(args) {
		printParamHelp()
		return
	}

	var err error
	switch sub {
	case "run":
		err = runCommand(args)
	case "serve":
		err = serveCommand(args)
	case "plot":
		err = plotCommand(args)
	case "version":
		fmt.Printf("rfloc %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	default:
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("rfloc %s: %v", sub, err)
	}
}

func newStrategy(algorithm string, p *params.Store) (triangulate.Strategy, error) {
	switch algorithm {
	case "cta1":
		return &triangulate.DirectStrategy{Params: p}, nil
	case "cta2", "":
		return &triangulate.SearchStrategy{Params: p}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q (want cta1 or cta2)", algorithm)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	opt, p, err := parseKnownFlags(fs, args)
	if err != nil {
		return err
	}
	if opt.signalsFile == "" {
		return fmt.Errorf("--signals-file is required")
	}

	fsys := fsutil.OSFileSystem{}
	f, err := fsys.Open(opt.signalsFile)
	if err != nil {
		return fmt.Errorf("opening signals file: %w", err)
	}
	defer f.Close()

	pointsByDevice, origin, err := ingest.Parse(f)
	if err != nil {
		return err
	}

	strategy, err := newStrategy(opt.algorithm, p)
	if err != nil {
		return err
	}

	pipeline := &triangulate.Pipeline{Origin: origin, Strategy: strategy, Params: p}
	result, err := pipeline.Run(context.Background(), pointsByDevice)
	if err != nil {
		return err
	}

	db, err := store.Open(opt.dbPath)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(result, nil)
	if err != nil {
		log.Printf("rfloc: warning: failed to persist run: %v", err)
	}

	fmt.Printf("run %s: lat=%.6f lon=%.6f clusters=%d combinations=%d seed_timeouts=%d\n",
		id, result.Latitude, result.Longitude,
		result.Telemetry.ClustersFound, result.Telemetry.CombinationsExplored, result.Telemetry.SeedTimeouts)

	return nil
}

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	opt, p, err := parseKnownFlags(fs, args)
	if err != nil {
		return err
	}

	db, err := store.Open(opt.dbPath)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer db.Close()

	server := &httpapi.Server{
		DB:     db,
		Params: p,
		Strategy: func(p *params.Store) triangulate.Strategy {
			strategy, err := newStrategy(opt.algorithm, p)
			if err != nil {
				log.Printf("httpapi: %v, falling back to cta2", err)
				return &triangulate.SearchStrategy{Params: p}
			}
			return strategy
		},
	}

	log.Printf("rfloc: listening on %s", opt.listen)
	return http.ListenAndServe(opt.listen, server.ServeMux())
}

// plotCommand ingests a signal file, runs the same projection / ordering /
// coalescing / clustering stages triangulate.Pipeline.Run uses, and
// renders the resulting clusters and a coarse position-search cost grid to
// a PNG for offline inspection. It duplicates Pipeline's per-device setup
// rather than extending Pipeline's return value, since the clusters
// computed mid-run are a diagnostic-only artifact that the ordinary run/
// serve paths have no use for.
func plotCommand(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	opt, p, err := parseKnownFlags(fs, args)
	if err != nil {
		return err
	}
	if opt.signalsFile == "" || opt.plottingOutput == "" {
		return fmt.Errorf("--signals-file and --plotting-output are both required")
	}

	fsys := fsutil.OSFileSystem{}
	f, err := fsys.Open(opt.signalsFile)
	if err != nil {
		return fmt.Errorf("opening signals file: %w", err)
	}
	defer f.Close()

	pointsByDevice, origin, err := ingest.Parse(f)
	if err != nil {
		return err
	}

	strategy, err := newStrategy(opt.algorithm, p)
	if err != nil {
		return err
	}

	coalitionDistance, err := p.Float("coalition_distance")
	if err != nil {
		return err
	}

	cache := distcache.New()
	var clusters []*cluster.Cluster
	for device, pts := range pointsByDevice {
		if err := geo.ProjectAll(origin, pts); err != nil {
			return fmt.Errorf("device %s: %w", device, err)
		}
		ordered := pathorder.Order(pts, cache)
		coalesced := coalesce.Coalesce(ordered, coalitionDistance)

		deviceClusters, _, err := strategy.Estimate(context.Background(), coalesced, cache)
		if err != nil {
			return fmt.Errorf("device %s: %w", device, err)
		}
		clusters = append(clusters, deviceClusters...)
	}

	samples, err := sampleCostGrid(clusters, p)
	if err != nil {
		return err
	}
	if err := report.SaveCostSurfacePNG(opt.plottingOutput, samples, clusters); err != nil {
		return err
	}

	precision, err := p.Float("precision")
	if err != nil {
		return err
	}
	gridHalfSize, err := p.Int("grid_half_size")
	if err != nil {
		return err
	}
	clusterScoreWeight, err := p.Float("cluster_score_weight")
	if err != nil {
		return err
	}
	angleWeight, err := p.Float("angle_weight")
	if err != nil {
		return err
	}
	timeout, err := p.Float("timeout")
	if err != nil {
		return err
	}

	searchResult := possearch.Search(clusters, possearch.Options{
		Precision:      precision,
		GridHalfSize:   gridHalfSize,
		ExtraWeight:    clusterScoreWeight,
		AngleWeight:    angleWeight,
		TimeoutSeconds: timeout,
	})
	lat, lon := geo.Unproject(origin, searchResult.X, searchResult.Y)

	fmt.Printf("wrote %s (estimated lat=%.6f lon=%.6f, %d clusters)\n", opt.plottingOutput, lat, lon, len(clusters))
	return nil
}

// sampleCostGrid evaluates the position-search cost on a coarse diagnostic
// grid centred on the planar origin and reaching grid_half_size*precision
// along each axis, for PNG rendering only; it plays no part in the actual
// position estimate.
func sampleCostGrid(clusters []*cluster.Cluster, p *params.Store) ([]report.CostSample, error) {
	if len(clusters) == 0 {
		return nil, nil
	}

	const steps = 40
	gridHalfSize, err := p.Int("grid_half_size")
	if err != nil {
		return nil, err
	}
	precision, err := p.Float("precision")
	if err != nil {
		return nil, err
	}
	extraWeight, err := p.Float("cluster_score_weight")
	if err != nil {
		return nil, err
	}
	angleWeight, err := p.Float("angle_weight")
	if err != nil {
		return nil, err
	}
	half := float64(gridHalfSize)

	span := half * precision
	step := 2 * span / steps

	samples := make([]report.CostSample, 0, (steps+1)*(steps+1))
	for ix := 0; ix <= steps; ix++ {
		x := -span + float64(ix)*step
		for iy := 0; iy <= steps; iy++ {
			y := -span + float64(iy)*step
			samples = append(samples, report.CostSample{
				X:    x,
				Y:    y,
				Cost: possearch.Cost(clusters, x, y, extraWeight, angleWeight),
			})
		}
	}
	return samples, nil
}
