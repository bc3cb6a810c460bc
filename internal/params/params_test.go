package params

import "testing"

func TestSetFromStringParseOrder(t *testing.T) {
	s := New()

	if err := s.SetFromString("enabled", "true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := s.Bool("enabled"); err != nil || !got {
		t.Errorf("expected enabled=true, got %v, err %v", got, err)
	}

	if err := s.SetFromString("cluster_min_points", "3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := s.Int("cluster_min_points"); err != nil || got != 3 {
		t.Errorf("expected int 3, got %v, err %v", got, err)
	}

	if err := s.SetFromString("coalition_distance", "2.5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := s.Float("coalition_distance"); err != nil || got != 2.5 {
		t.Errorf("expected float 2.5, got %v, err %v", got, err)
	}

	if err := s.SetFromString("garbage", "not-a-number"); err == nil {
		t.Error("expected error parsing garbage value")
	}
}

func TestIntFloatCoercion(t *testing.T) {
	s := New()
	s.SetInt("n", 5)
	if got, err := s.Float("n"); err != nil || got != 5.0 {
		t.Errorf("expected coerced float 5.0, got %v, err %v", got, err)
	}

	s.SetFloat("x", 2.9)
	if got, err := s.Int("x"); err != nil || got != 2 {
		t.Errorf("expected truncated int 2, got %v, err %v", got, err)
	}
}

func TestMissingAndWrongKindPropagateError(t *testing.T) {
	s := New()
	if _, err := s.Int("missing"); err == nil {
		t.Error("expected error for missing parameter")
	}

	s.SetBool("flag", true)
	if _, err := s.Float("flag"); err == nil {
		t.Error("expected error coercing bool to float")
	}
	if _, err := s.Int("flag"); err == nil {
		t.Error("expected error coercing bool to int")
	}

	s.SetInt("n", 1)
	if _, err := s.Bool("n"); err == nil {
		t.Error("expected error coercing int to bool")
	}
}

func TestHas(t *testing.T) {
	s := New()
	if s.Has("missing") {
		t.Error("expected Has to be false for unset parameter")
	}
	s.SetBool("flag", true)
	if !s.Has("flag") {
		t.Error("expected Has to be true after Set")
	}
}

func TestNormalizeFlagName(t *testing.T) {
	if got := NormalizeFlagName("cluster-min-points"); got != "cluster_min_points" {
		t.Errorf("got %q", got)
	}
}
