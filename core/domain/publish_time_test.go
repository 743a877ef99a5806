package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizePublishedTime_FullTimestamp(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	got := NormalizePublishedTime("2026-07-01T08:30:00Z", now)
	if !strings.HasPrefix(got, "2026-07-01T08:30:00") {
		t.Fatalf("expected full timestamp preserved, got %q", got)
	}
}

func TestNormalizePublishedTime_DateOnlyMatchingNowFillsTimeFromNow(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 34, 56, 0, time.UTC)
	got := NormalizePublishedTime("2026年07月29日", now)
	want := "2026-07-29T12:34:56Z"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizePublishedTime_DateOnlyNotMatchingNowFillsSentinel(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 34, 56, 0, time.UTC)
	got := NormalizePublishedTime("2026-01-15", now)
	want := "2026-01-15T11:11:11Z"
	if got != want {
		t.Fatalf("got %q, want %q (sentinel fill for a date that disagrees with now)", got, want)
	}
}

func TestNormalizePublishedTime_Unparseable(t *testing.T) {
	if got := NormalizePublishedTime("not a date", time.Now()); got != "" {
		t.Fatalf("expected empty string for unparseable input, got %q", got)
	}
	if got := NormalizePublishedTime("", time.Now()); got != "" {
		t.Fatalf("expected empty string for empty input, got %q", got)
	}
}

func TestNormalizePublishedTime_ExplicitMinuteSecondNeverClobbered(t *testing.T) {
	// A provided minute/second must survive even when other fields are
	// inferred from now, unlike the bug in the original Python helper.
	now := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	got := NormalizePublishedTime("2026-07-29T09:15:42Z", now)
	want := "2026-07-29T09:15:42Z"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizePublishedTime_Idempotent(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	first := NormalizePublishedTime("2026-07-20T03:04:05Z", now)
	second := NormalizePublishedTime(first, now)
	if first != second {
		t.Fatalf("normalizing an already-normalized timestamp should be idempotent: %q != %q", first, second)
	}
}
