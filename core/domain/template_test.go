package domain

import (
	"strings"
	"testing"
	"time"
)

func TestRenderTemplate(t *testing.T) {
	now := time.Date(2026, 7, 29, 9, 5, 3, 0, time.UTC)
	got := RenderTemplate("日报 ${date_zh} (${ts})", now)
	if !strings.Contains(got, "2026年07月29日") {
		t.Fatalf("expected date_zh substitution, got %q", got)
	}
	if !strings.Contains(got, "20260729-090503") {
		t.Fatalf("expected ts substitution, got %q", got)
	}
}

func TestRenderTemplate_UnknownPlaceholderLeftVerbatim(t *testing.T) {
	now := time.Now()
	got := RenderTemplate("${unknown_var}", now)
	if got != "${unknown_var}" {
		t.Fatalf("unknown placeholders must be left untouched, got %q", got)
	}
}

func TestRenderSubject_EmptyDegradesToDate(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	got := RenderSubject("   ", now)
	want := "2026年07月29日"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderSubject_NonEmptyPassesThroughTrimmed(t *testing.T) {
	now := time.Now()
	got := RenderSubject("  Daily Digest  ", now)
	if got != "Daily Digest" {
		t.Fatalf("got %q, want trimmed 'Daily Digest'", got)
	}
}
