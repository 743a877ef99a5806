package composer

import (
	"testing"
	"time"

	"newsroom/core/domain"
)

func mkCandidate(source string, score float64, publish time.Time) candidate {
	return candidate{
		info:    domain.Info{Source: source},
		score:   score,
		publish: publish,
	}
}

func TestSortByScoreThenPublish(t *testing.T) {
	t0 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	items := []candidate{
		mkCandidate("a", 3, t0),
		mkCandidate("b", 5, t0),
		mkCandidate("c", 5, t1),
	}
	sortByScoreThenPublish(items)
	if items[0].info.Source != "c" || items[1].info.Source != "b" || items[2].info.Source != "a" {
		t.Fatalf("expected order c,b,a (score desc, then publish desc), got %v,%v,%v",
			items[0].info.Source, items[1].info.Source, items[2].info.Source)
	}
}

func TestApplyPerSourceCap_TruncatesPerSourceButKeepsOtherSources(t *testing.T) {
	t0 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	items := []candidate{
		mkCandidate("src-a", 5, t0),
		mkCandidate("src-a", 4, t0),
		mkCandidate("src-a", 3, t0),
		mkCandidate("src-b", 2, t0),
	}
	got := applyPerSourceCap(items, 2)
	countBySource := map[string]int{}
	for _, c := range got {
		countBySource[c.info.Source]++
	}
	if countBySource["src-a"] != 2 {
		t.Fatalf("expected src-a capped to 2, got %d", countBySource["src-a"])
	}
	if countBySource["src-b"] != 1 {
		t.Fatalf("expected src-b untouched at 1, got %d", countBySource["src-b"])
	}
}

func TestApplyPerSourceCap_ZeroCapIsNoop(t *testing.T) {
	items := []candidate{mkCandidate("a", 1, time.Now()), mkCandidate("a", 2, time.Now())}
	got := applyPerSourceCap(items, 0)
	if len(got) != len(items) {
		t.Fatalf("cap<=0 must leave every candidate in place, got %d want %d", len(got), len(items))
	}
}

func TestHasCompleteScores(t *testing.T) {
	metrics := []domain.AiMetric{{ID: 1, Key: "a"}, {ID: 2, Key: "b"}}
	complete := []domain.InfoAiScore{{MetricID: 1}, {MetricID: 2}}
	if !hasCompleteScores(complete, metrics) {
		t.Fatal("expected complete score set to pass")
	}
	partial := []domain.InfoAiScore{{MetricID: 1}}
	if hasCompleteScores(partial, metrics) {
		t.Fatal("expected partial score set to fail")
	}
}

func TestParsePublish(t *testing.T) {
	if _, ok := parsePublish(""); ok {
		t.Fatal("empty publish string must not parse")
	}
	if _, ok := parsePublish("not-a-timestamp"); ok {
		t.Fatal("malformed publish string must not parse")
	}
	ts, ok := parsePublish("2026-07-29T10:00:00Z")
	if !ok {
		t.Fatal("expected valid RFC3339 timestamp to parse")
	}
	if ts.Year() != 2026 {
		t.Fatalf("unexpected parsed year %d", ts.Year())
	}
}

func TestGroupByCategory(t *testing.T) {
	items := []candidate{
		{info: domain.Info{Category: "tech"}},
		{info: domain.Info{Category: "game"}},
		{info: domain.Info{Category: "tech"}},
	}
	groups := groupByCategory(items)
	if len(groups["tech"]) != 2 {
		t.Fatalf("expected 2 tech items, got %d", len(groups["tech"]))
	}
	if len(groups["game"]) != 1 {
		t.Fatalf("expected 1 game item, got %d", len(groups["game"]))
	}
}
