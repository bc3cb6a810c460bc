// Package cliconfig loads the default parameter table (config/defaults.json)
// into an internal/params.Store, and implements the command line's known
// flags plus arbitrary "--param-name[=value]" passthrough. The passthrough
// loop is hand-rolled rather than built on the standard flag package,
// because flag has no notion of an unregistered flag: every "--x" not
// already declared with flag.String/Bool/etc is a parse error. The original
// CLI (original_source/src/core/CliParser.cpp) has exactly the same
// requirement and solves it the same way, with its own hand-rolled
// argument scan; ours mirrors that scan's order and both forms of
// parameter (--name=value and --name value), plus its "-"->"_" flag-name
// normalization.
package cliconfig

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/banshee-data/rfloc/internal/params"
)

// defaults.json here is kept in lockstep with config/defaults.json at the
// module root, which is the human-editable copy ops deployments start
// from; go:embed requires the file to live under this package, so the
// build embeds this copy directly.
//
//go:embed defaults.json
var embeddedDefaults embed.FS

// LoadDefaults builds a Store from the module's bundled parameter defaults.
func LoadDefaults() (*params.Store, error) {
	raw, err := embeddedDefaults.ReadFile("defaults.json")
	if err != nil {
		return nil, fmt.Errorf("cliconfig: reading bundled defaults: %w", err)
	}
	return fromJSON(raw)
}

func fromJSON(raw []byte) (*params.Store, error) {
	var table map[string]any
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("cliconfig: parsing defaults: %w", err)
	}

	s := params.New()
	for name, v := range table {
		switch tv := v.(type) {
		case float64:
			if tv == float64(int(tv)) {
				s.SetInt(name, int(tv))
			} else {
				s.SetFloat(name, tv)
			}
		case bool:
			s.SetBool(name, tv)
		case string:
			if err := s.SetFromString(name, tv); err != nil {
				return nil, fmt.Errorf("cliconfig: default %q: %w", name, err)
			}
		default:
			return nil, fmt.Errorf("cliconfig: default %q has unsupported type %T", name, v)
		}
	}
	return s, nil
}

// knownFlags are the CLI's named options, as opposed to algorithm
// parameters passed through to the Store. ParsePassthrough leaves them in
// its leftover arguments for the caller's own flag parsing.
var knownFlags = map[string]bool{
	"help":            true,
	"h":               true,
	"param-help":      true,
	"signals-file":    true,
	"s":               true,
	"algorithm":       true,
	"a":               true,
	"precision":       true,
	"p":               true,
	"timeout":         true,
	"t":               true,
	"plotting-output": true,
	"o":               true,
	"log-level":       true,
	"l":               true,
	"listen":          true,
	"db":              true,
}

// ParsePassthrough scans args for "--param-name=value" and
// "--param-name value" pairs not already among the CLI's known flags,
// recording each into store. A bare "--flag" with no following value (or
// one whose next token itself starts with "-") is recorded as the boolean
// true, matching CliParser's convention that a trailing flag with no
// argument is a toggle. It returns the leftover arguments (those not
// consumed as a parameter name or its value).
func ParsePassthrough(args []string, store *params.Store) ([]string, error) {
	var leftover []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			leftover = append(leftover, arg)
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			value := name[eq+1:]
			name = params.NormalizeFlagName(name[:eq])
			if knownFlags[name] {
				leftover = append(leftover, arg)
				continue
			}
			if err := store.SetFromString(name, value); err != nil {
				return nil, fmt.Errorf("cliconfig: --%s: %w", name, err)
			}
			continue
		}

		normalized := params.NormalizeFlagName(name)
		if knownFlags[normalized] {
			leftover = append(leftover, arg)
			continue
		}

		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			if err := store.SetFromString(normalized, args[i+1]); err != nil {
				return nil, fmt.Errorf("cliconfig: --%s: %w", normalized, err)
			}
			i++
			continue
		}

		store.SetBool(normalized, true)
	}

	return leftover, nil
}
