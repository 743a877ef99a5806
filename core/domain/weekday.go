package domain

import (
	"sort"
	"time"
)

// NormalizeWeekdays sorts and de-duplicates a weekday set, dropping any
// value outside 1..7. A nil input stays nil (unrestricted, I6); a non-nil
// input that normalizes to empty stays an empty, non-nil slice (never run).
func NormalizeWeekdays(days []int) []int {
	if days == nil {
		return nil
	}
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d >= 1 && d <= 7 {
			seen[d] = true
		}
	}
	out := make([]int, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// WeekdayAllowed implements I6: absent/nil => unrestricted (true); empty
// set => never (false); otherwise true iff today's ISO weekday (Monday=1
// .. Sunday=7) in the given timezone is in the set.
func WeekdayAllowed(days []int, now time.Time, loc *time.Location) bool {
	if days == nil {
		return true
	}
	if len(days) == 0 {
		return false
	}
	today := int(now.In(loc).Weekday())
	if today == 0 {
		today = 7 // time.Sunday == 0; ISO weekday Sunday == 7
	}
	for _, d := range days {
		if d == today {
			return true
		}
	}
	return false
}
