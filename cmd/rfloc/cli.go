package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/banshee-data/rfloc/internal/cliconfig"
	"github.com/banshee-data/rfloc/internal/params"
)

// cliOptions holds the values of the CLI's known flags, parsed separately
// from the algorithm parameters passed through into a params.Store.
type cliOptions struct {
	signalsFile    string
	algorithm      string
	precision      float64
	timeout        float64
	plottingOutput string
	logLevel       string
	listen         string
	dbPath         string
}

// parseKnownFlags splits args into the CLI's known options and a
// params.Store of algorithm parameters (starting from the bundled
// defaults, overridden by any "--param-name[=value]" passthrough found).
// Grounded on CliParser.cpp's single-pass scan: known flags and passthrough
// parameters are recognized in the same loop there; here the passthrough
// scan runs first and leaves known flags untouched for flag.FlagSet to
// parse normally, since the two recognizers operate on disjoint flag names.
func parseKnownFlags(fs *flag.FlagSet, args []string) (cliOptions, *params.Store, error) {
	store, err := cliconfig.LoadDefaults()
	if err != nil {
		return cliOptions{}, nil, fmt.Errorf("cli: loading defaults: %w", err)
	}

	leftover, err := cliconfig.ParsePassthrough(args, store)
	if err != nil {
		return cliOptions{}, nil, err
	}

	defaultPrecision, err := store.Float("precision")
	if err != nil {
		return cliOptions{}, nil, fmt.Errorf("cli: %w", err)
	}
	defaultTimeout, err := store.Float("timeout")
	if err != nil {
		return cliOptions{}, nil, fmt.Errorf("cli: %w", err)
	}

	var opt cliOptions
	fs.StringVar(&opt.signalsFile, "signals-file", "", "path to a signal file to ingest")
	fs.StringVar(&opt.signalsFile, "s", "", "shorthand for --signals-file")
	fs.StringVar(&opt.algorithm, "algorithm", "cta2", "triangulation algorithm variant: cta1 or cta2")
	fs.StringVar(&opt.algorithm, "a", "cta2", "shorthand for --algorithm")
	fs.Float64Var(&opt.precision, "precision", defaultPrecision, "position-search grid precision, meters")
	fs.Float64Var(&opt.precision, "p", defaultPrecision, "shorthand for --precision")
	fs.Float64Var(&opt.timeout, "timeout", defaultTimeout, "position-search timeout, seconds (0 disables)")
	fs.Float64Var(&opt.timeout, "t", defaultTimeout, "shorthand for --timeout")
	fs.StringVar(&opt.plottingOutput, "plotting-output", "", "path to write a diagnostic PNG")
	fs.StringVar(&opt.plottingOutput, "o", "", "shorthand for --plotting-output")
	fs.StringVar(&opt.logLevel, "log-level", "info", "log verbosity: debug, info, warn, error")
	fs.StringVar(&opt.logLevel, "l", "info", "shorthand for --log-level")
	fs.StringVar(&opt.listen, "listen", ":8080", "HTTP listen address (serve subcommand)")
	fs.StringVar(&opt.dbPath, "db", "rfloc.db", "path to the sqlite run store")

	if err := fs.Parse(leftover); err != nil {
		return cliOptions{}, nil, err
	}

	store.SetFloat("precision", opt.precision)
	store.SetFloat("timeout", opt.timeout)

	return opt, store, nil
}

func printParamHelp() {
	fmt.Fprintln(os.Stderr, `Any algorithm parameter named in config/defaults.json may be overridden
with "--param-name value" or "--param-name=value", e.g.:

  rfloc run -s signals.json --cluster-min-points 4 --max-overlap=0.1

Dashes in a parameter name are normalized to underscores.`)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `rfloc - multilateration from clustered RSSI observations

Usage:
  rfloc run   -s <signals-file> [--algorithm cta1|cta2] [flags]
  rfloc serve [--listen :8080] [--db rfloc.db] [flags]
  rfloc plot  -s <signals-file> -o <output.png> [flags]
  rfloc version

Flags:
  -s, --signals-file     path to a signal file to ingest
  -a, --algorithm        cta1 (direct) or cta2 (branch-and-bound search)
  -p, --precision        position-search grid precision, meters
  -t, --timeout          position-search timeout, seconds
  -o, --plotting-output  diagnostic PNG output path (plot subcommand)
  -l, --log-level        debug, info, warn, error
      --db               sqlite run store path (serve subcommand)
      --param-help       list how to override algorithm parameters
  -h, --help             this message`)
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		switch strings.TrimLeft(a, "-") {
		case "help", "h":
			return true
		}
	}
	return false
}

func hasParamHelpFlag(args []string) bool {
	for _, a := range args {
		if strings.TrimLeft(a, "-") == "param-help" {
			return true
		}
	}
	return false
}
