package domain

import (
	"testing"
	"time"
)

func TestNormalizeWeekdays(t *testing.T) {
	if got := NormalizeWeekdays(nil); got != nil {
		t.Fatalf("nil input should stay nil, got %v", got)
	}
	got := NormalizeWeekdays([]int{5, 1, 1, 9, 0, 3})
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if empty := NormalizeWeekdays([]int{9, 0}); empty == nil || len(empty) != 0 {
		t.Fatalf("out-of-range-only input should normalize to empty non-nil, got %v", empty)
	}
}

func TestWeekdayAllowed(t *testing.T) {
	loc := time.UTC
	// 2026-07-29 is a Wednesday (ISO weekday 3).
	wed := time.Date(2026, 7, 29, 10, 0, 0, 0, loc)

	if !WeekdayAllowed(nil, wed, loc) {
		t.Fatal("nil weekday set must be unrestricted")
	}
	if WeekdayAllowed([]int{}, wed, loc) {
		t.Fatal("empty weekday set must never run")
	}
	if !WeekdayAllowed([]int{3, 5}, wed, loc) {
		t.Fatal("Wednesday should be allowed by {3,5}")
	}
	if WeekdayAllowed([]int{1, 2}, wed, loc) {
		t.Fatal("Wednesday should not be allowed by {1,2}")
	}

	sun := time.Date(2026, 8, 2, 0, 0, 0, 0, loc)
	if !WeekdayAllowed([]int{7}, sun, loc) {
		t.Fatal("Sunday must map to ISO weekday 7, not 0")
	}
}
