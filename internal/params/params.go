// Package params implements the name-addressed typed parameter store
// (C10): every algorithm tunable is a string-keyed int, float64, or bool
// value, with narrow int<->float64 coercion on read. Grounded on
// original_source/src/core/AlgorithmParameters.h (the variant store and
// its coercion rule) and CliParser.cpp (SetFromString's parse order and
// '-'->'_' flag-name normalization).
package params

import (
	"fmt"
	"strconv"
	"strings"
)

// value holds exactly one of int, float64, or bool, tagged by kind.
type value struct {
	kind  kind
	i     int
	f     float64
	b     bool
}

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindBool
)

// Store is a name-addressed heterogeneous parameter table.
type Store struct {
	values map[string]value
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]value)}
}

// SetInt records an int-valued parameter.
func (s *Store) SetInt(name string, v int) { s.values[name] = value{kind: kindInt, i: v} }

// SetFloat records a float64-valued parameter.
func (s *Store) SetFloat(name string, v float64) { s.values[name] = value{kind: kindFloat, f: v} }

// SetBool records a bool-valued parameter.
func (s *Store) SetBool(name string, v bool) { s.values[name] = value{kind: kindBool, b: v} }

// SetFromString parses raw and records it under name, trying bool, then
// int (only when raw has no decimal point), then float64, in that order —
// matching AlgorithmParameters::setFromString.
func (s *Store) SetFromString(name, raw string) error {
	switch raw {
	case "true":
		s.SetBool(name, true)
		return nil
	case "false":
		s.SetBool(name, false)
		return nil
	}

	if !strings.Contains(raw, ".") {
		if i, err := strconv.Atoi(raw); err == nil {
			s.SetInt(name, i)
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("params: cannot parse %q: %w", raw, err)
	}
	s.SetFloat(name, f)
	return nil
}

// Has reports whether name has been set.
func (s *Store) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Int returns name's value as an int, coercing from float64 by truncation.
// Returns an error if name is unset or holds a bool, so a lookup or
// coercion mistake propagates to the caller rather than aborting the
// process, matching the original's explicit-error style even though the
// original itself panics via std::bad_variant_access on this case.
func (s *Store) Int(name string) (int, error) {
	v, ok := s.values[name]
	if !ok {
		return 0, fmt.Errorf("params: parameter not found: %s", name)
	}
	switch v.kind {
	case kindInt:
		return v.i, nil
	case kindFloat:
		return int(v.f), nil
	default:
		return 0, fmt.Errorf("params: %s is not numeric", name)
	}
}

// MustInt is Int, panicking on error. Reserved for call sites operating on
// the bundled default store, where every name is known to exist and be
// numeric.
func (s *Store) MustInt(name string) int {
	v, err := s.Int(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Float returns name's value as a float64, coercing from int.
func (s *Store) Float(name string) (float64, error) {
	v, ok := s.values[name]
	if !ok {
		return 0, fmt.Errorf("params: parameter not found: %s", name)
	}
	switch v.kind {
	case kindFloat:
		return v.f, nil
	case kindInt:
		return float64(v.i), nil
	default:
		return 0, fmt.Errorf("params: %s is not numeric", name)
	}
}

// MustFloat is Float, panicking on error. Reserved for call sites
// operating on the bundled default store, where every name is known to
// exist and be numeric.
func (s *Store) MustFloat(name string) float64 {
	v, err := s.Float(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Bool returns name's value as a bool. No coercion is defined for bool.
func (s *Store) Bool(name string) (bool, error) {
	v, ok := s.values[name]
	if !ok {
		return false, fmt.Errorf("params: parameter not found: %s", name)
	}
	if v.kind != kindBool {
		return false, fmt.Errorf("params: %s is not a bool", name)
	}
	return v.b, nil
}

// MustBool is Bool, panicking on error. Reserved for call sites operating
// on the bundled default store, where every name is known to exist and be
// a bool.
func (s *Store) MustBool(name string) bool {
	v, err := s.Bool(name)
	if err != nil {
		panic(err)
	}
	return v
}

// NormalizeFlagName rewrites CLI-style dashes to the underscores used by
// parameter names, e.g. "cluster-min-points" -> "cluster_min_points".
func NormalizeFlagName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
