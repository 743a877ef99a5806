package evaluator

import (
	"strings"
	"testing"

	"newsroom/core/domain"
)

func activeMetricSet() []domain.AiMetric {
	return []domain.AiMetric{
		{ID: 1, Key: "novelty", Label: "Novelty"},
		{ID: 2, Key: "depth", Label: "Depth"},
	}
}

func TestValidateResponse_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"dimension_scores\":{\"novelty\":4,\"depth\":3},\"comment\":\"ok\",\"summary\":\"s\"}\n```"
	eval, err := validateResponse(raw, activeMetricSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.scores["novelty"] != 4 || eval.scores["depth"] != 3 {
		t.Fatalf("unexpected scores: %+v", eval.scores)
	}
}

func TestValidateResponse_MissingDimensionIsRejected(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":4},"comment":"ok","summary":"s"}`
	if _, err := validateResponse(raw, activeMetricSet()); err == nil {
		t.Fatal("expected an error for a missing dimension")
	}
}

func TestValidateResponse_UnknownDimensionIsRejected(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":4,"depth":3,"bogus":2},"comment":"ok","summary":"s"}`
	if _, err := validateResponse(raw, activeMetricSet()); err == nil {
		t.Fatal("expected an error for an unknown dimension")
	}
}

func TestValidateResponse_MalformedJSONIsRejected(t *testing.T) {
	if _, err := validateResponse("not json at all", activeMetricSet()); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestValidateResponse_EmptyCommentOrSummaryRejected(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":4,"depth":3},"comment":"","summary":"s"}`
	if _, err := validateResponse(raw, activeMetricSet()); err == nil {
		t.Fatal("expected an error for an empty comment")
	}
	raw2 := `{"dimension_scores":{"novelty":4,"depth":3},"comment":"c","summary":""}`
	if _, err := validateResponse(raw2, activeMetricSet()); err == nil {
		t.Fatal("expected an error for an empty summary")
	}
}

func TestValidateResponse_OutOfRangeScoreIsRejected(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":99,"depth":3},"comment":"c","summary":"s"}`
	if _, err := validateResponse(raw, activeMetricSet()); err == nil {
		t.Fatal("expected an error for an out-of-range score, not a clamp")
	}
	raw2 := `{"dimension_scores":{"novelty":4,"depth":-5},"comment":"c","summary":"s"}`
	if _, err := validateResponse(raw2, activeMetricSet()); err == nil {
		t.Fatal("expected an error for a below-range score, not a clamp")
	}
}

func TestValidateResponse_RoundsHalfUpWithinRange(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":4.5,"depth":3},"comment":"c","summary":"s"}`
	eval, err := validateResponse(raw, activeMetricSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.scores["novelty"] != 5 {
		t.Fatalf("expected 4.5 to round up to 5, got %d", eval.scores["novelty"])
	}
}

func TestValidateResponse_SummaryLongFallsBackToSummary(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":4,"depth":3},"comment":"c","summary":"short summary"}`
	eval, err := validateResponse(raw, activeMetricSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.summaryLong != eval.summary {
		t.Fatalf("expected summary_long to fall back to summary, got %q vs %q", eval.summaryLong, eval.summary)
	}
}

func TestParseKeyConcepts_ArrayForm(t *testing.T) {
	got := parseKeyConcepts([]byte(`["a","b","  c  "]`))
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseKeyConcepts_DelimitedStringForm(t *testing.T) {
	got := parseKeyConcepts([]byte(`"a，b、c;d"`))
	if strings.Join(got, ",") != "a,b,c,d" {
		t.Fatalf("expected delimiter normalization, got %v", got)
	}
}

func TestParseKeyConcepts_CapsAtFiveInValidateResponse(t *testing.T) {
	raw := `{"dimension_scores":{"novelty":4,"depth":3},"comment":"c","summary":"s","key_concepts":["a","b","c","d","e","f"]}`
	eval, err := validateResponse(raw, activeMetricSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.keyConcepts) != 5 {
		t.Fatalf("expected key_concepts capped at 5, got %d", len(eval.keyConcepts))
	}
}

func TestFinalScore_WeightedAverage(t *testing.T) {
	metrics := []domain.AiMetric{{Key: "a", DefaultWeight: 1}, {Key: "b", DefaultWeight: 3}}
	scores := map[string]int{"a": 2, "b": 4}
	got := finalScore(scores, metrics, nil)
	want := round2((2*1.0 + 4*3.0) / 4.0)
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
