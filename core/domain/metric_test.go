package domain

import "testing"

func TestClampScore(t *testing.T) {
	cases := map[int]int{-3: MinScore, 0: MinScore, 1: 1, 3: 3, 5: 5, 9: MaxScore}
	for in, want := range cases {
		if got := ClampScore(in); got != want {
			t.Errorf("ClampScore(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestClampFinalScore(t *testing.T) {
	if got := ClampFinalScore(0.5); got != MinFinalScore {
		t.Errorf("got %v, want %v", got, MinFinalScore)
	}
	if got := ClampFinalScore(7.2); got != MaxFinalScore {
		t.Errorf("got %v, want %v", got, MaxFinalScore)
	}
	if got := ClampFinalScore(3.5); got != 3.5 {
		t.Errorf("in-range value must pass through unchanged, got %v", got)
	}
}

func TestWeightedScore_Basic(t *testing.T) {
	metrics := []AiMetric{
		{Key: "novelty", DefaultWeight: 2},
		{Key: "depth", DefaultWeight: 1},
	}
	scores := map[string]int{"novelty": 5, "depth": 1}
	// (5*2 + 1*1) / 3 = 11/3 = 3.666...
	got := WeightedScore(scores, metrics, nil)
	want := 11.0 / 3.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWeightedScore_OverrideTakesPrecedence(t *testing.T) {
	metrics := []AiMetric{{Key: "novelty", DefaultWeight: 1}, {Key: "depth", DefaultWeight: 1}}
	scores := map[string]int{"novelty": 5, "depth": 1}
	// Default weights would give (5+1)/2 = 3; the override gives (5*3 + 1*1)/4 = 4.
	got := WeightedScore(scores, metrics, map[string]float64{"novelty": 3})
	if got != 4 {
		t.Fatalf("expected the override weight to replace novelty's default weight, got %v", got)
	}
}

func TestWeightedScore_AllWeightsZeroFallsBackToUnweightedAverage(t *testing.T) {
	metrics := []AiMetric{
		{Key: "a", DefaultWeight: 0},
		{Key: "b", DefaultWeight: 0},
	}
	scores := map[string]int{"a": 2, "b": 4}
	got := WeightedScore(scores, metrics, nil)
	if got != 3 {
		t.Fatalf("expected unweighted average 3, got %v", got)
	}
}

func TestWeightedScore_ClampsResult(t *testing.T) {
	metrics := []AiMetric{{Key: "a", DefaultWeight: 1}}
	scores := map[string]int{"a": 9999}
	got := WeightedScore(scores, metrics, nil)
	if got != MaxFinalScore {
		t.Fatalf("expected clamp to %v, got %v", MaxFinalScore, got)
	}
}
