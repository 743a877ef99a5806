package domain

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoLikePattern accepts "YYYY-MM-DD[T ]HH:MM:SS", "YYYY/MM/DD", and the
// Chinese "YYYY年MM月DD日" forms, each with an optional time component and
// an optional "Z" or "+HH:MM" offset (§4.1, grounded on the collector's
// _datetime.py ISO_PATTERN).
var isoLikePattern = regexp.MustCompile(
	`(?P<year>\d{4})[-/年](?P<month>\d{1,2})[-/月](?P<day>\d{1,2})` +
		`(?:[T\s日]` +
		`(?P<hour>\d{1,2}):(?P<minute>\d{1,2})(?::(?P<second>\d{1,2}))?` +
		`)?` +
		`(?P<tz>Z|[+-]\d{2}:?\d{2})?`,
)

// fallbackFillValue is substituted for any date/time component that was
// neither present in the raw text nor recoverable from the reference time.
const fallbackFillValue = 11

type providedSet map[string]bool

// parsePublished extracts a (possibly partial) date/time from raw, along
// with the set of components ("year","month","day","hour","minute","second")
// that were explicitly present in the text, vs. inferred as zero defaults.
func parsePublished(raw string) (time.Time, providedSet, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil, false
	}

	if m := isoLikePattern.FindStringSubmatch(raw); m != nil {
		names := isoLikePattern.SubexpNames()
		fields := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" && i < len(m) {
				fields[name] = m[i]
			}
		}
		if fields["year"] != "" && fields["month"] != "" && fields["day"] != "" {
			provided := providedSet{"year": true, "month": true, "day": true}
			year, _ := strconv.Atoi(fields["year"])
			month, _ := strconv.Atoi(fields["month"])
			day, _ := strconv.Atoi(fields["day"])
			hour, minute, second := 0, 0, 0
			if fields["hour"] != "" {
				provided["hour"] = true
				hour, _ = strconv.Atoi(fields["hour"])
			}
			if fields["minute"] != "" {
				provided["minute"] = true
				minute, _ = strconv.Atoi(fields["minute"])
			}
			if fields["second"] != "" {
				provided["second"] = true
				second, _ = strconv.Atoi(fields["second"])
			}
			loc := time.UTC
			if tz := fields["tz"]; tz != "" && tz != "Z" {
				if off, ok := parseOffset(tz); ok {
					loc = off
				}
			}
			dt := time.Date(year, time.Month(clamp(month, 1, 12)), clamp(day, 1, 31), hour, minute, second, 0, loc)
			return dt, provided, true
		}
	}

	if dt, err := mail.ParseDate(raw); err == nil {
		return dt, providedSet{"year": true, "month": true, "day": true, "hour": true, "minute": true, "second": true}, true
	}

	return time.Time{}, nil, false
}

func parseOffset(tz string) (*time.Location, bool) {
	tz = strings.ReplaceAll(tz, ":", "")
	if len(tz) != 5 {
		return nil, false
	}
	sign := 1
	if tz[0] == '-' {
		sign = -1
	}
	hh, err1 := strconv.Atoi(tz[1:3])
	mm, err2 := strconv.Atoi(tz[3:5])
	if err1 != nil || err2 != nil {
		return nil, false
	}
	offset := sign * (hh*3600 + mm*60)
	return time.FixedZone(tz, offset), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizePublishedTime turns a collected article's (possibly partial or
// malformed) published-time text into a UTC ISO-8601 string, per §4.1:
//
// Parse raw as an ISO-like or RFC-2822 date, tracking which of
// year/month/day/hour/minute/second were explicitly present. If the
// components that *were* provided all agree with `now`'s corresponding
// fields, the components that were *not* provided are filled in from `now`
// (the article was very likely published "now" and the source merely
// omitted finer-grained fields). Otherwise, missing components fall back to
// a fixed sentinel (11) rather than guessing. The result is always clamped
// into valid ranges and rendered in UTC.
//
// If raw cannot be parsed at all, NormalizePublishedTime returns "".
func NormalizePublishedTime(raw string, now time.Time) string {
	dt, provided, ok := parsePublished(raw)
	if !ok {
		return ""
	}
	now = now.UTC()
	dt = dt.UTC()

	matchesNow := false
	for _, field := range []string{"year", "month", "day", "hour"} {
		if !provided[field] {
			continue
		}
		matchesNow = true
		if !fieldEquals(dt, now, field) {
			matchesNow = false
			break
		}
	}

	fill := func(field string, current int) int {
		if provided[field] {
			return current
		}
		if matchesNow {
			return fieldValue(now, field)
		}
		return fallbackFillValue
	}

	year := dt.Year()
	if !provided["year"] {
		if matchesNow {
			year = now.Year()
		}
		// year has no sentinel fallback distinct from the parsed default;
		// the ISO pattern always requires a year, so this path is unreached
		// in practice.
	}
	month := fill("month", int(dt.Month()))
	day := fill("day", dt.Day())
	hour := fill("hour", dt.Hour())
	minute := fill("minute", dt.Minute())
	second := fill("second", dt.Second())

	month = clamp(month, 1, 12)
	day = clamp(day, 1, daysInMonth(year, month))
	hour = clamp(hour, 0, 23)
	minute = clamp(minute, 0, 59)
	second = clamp(second, 0, 59)

	result := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	return result.Format(time.RFC3339)
}

func fieldValue(t time.Time, field string) int {
	switch field {
	case "year":
		return t.Year()
	case "month":
		return int(t.Month())
	case "day":
		return t.Day()
	case "hour":
		return t.Hour()
	case "minute":
		return t.Minute()
	case "second":
		return t.Second()
	}
	return 0
}

func fieldEquals(a, b time.Time, field string) bool {
	return fieldValue(a, field) == fieldValue(b, field)
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
