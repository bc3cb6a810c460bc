package cliconfig

import "testing"

func TestLoadDefaultsPopulatesKnownParams(t *testing.T) {
	s, err := LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if got := s.MustFloat("coalition_distance"); got != 2.0 {
		t.Errorf("coalition_distance = %v, want 2.0", got)
	}
	if got := s.MustInt("cluster_min_points"); got != 3 {
		t.Errorf("cluster_min_points = %v, want 3", got)
	}
}

func TestParsePassthroughEqualsForm(t *testing.T) {
	s, err := LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	leftover, err := ParsePassthrough([]string{"--max-overlap=0.1", "--algorithm", "cta2"}, s)
	if err != nil {
		t.Fatalf("ParsePassthrough: %v", err)
	}
	if got := s.MustFloat("max_overlap"); got != 0.1 {
		t.Errorf("max_overlap = %v, want 0.1", got)
	}
	if len(leftover) != 2 || leftover[0] != "--algorithm" || leftover[1] != "cta2" {
		t.Errorf("expected known flag pair preserved, got %v", leftover)
	}
}

func TestParsePassthroughSpaceFormAndBoolToggle(t *testing.T) {
	s, err := LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	leftover, err := ParsePassthrough([]string{"--cluster-min-points", "5", "--verbose"}, s)
	if err != nil {
		t.Fatalf("ParsePassthrough: %v", err)
	}
	if got := s.MustInt("cluster_min_points"); got != 5 {
		t.Errorf("cluster_min_points = %v, want 5", got)
	}
	if !s.MustBool("verbose") {
		t.Error("expected verbose to be set true as a bare toggle")
	}
	if len(leftover) != 0 {
		t.Errorf("expected no leftover args, got %v", leftover)
	}
}
