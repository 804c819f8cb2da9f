// Package streak finds runs of consecutive calendar days in sparse date sets.
package streak

import (
	"slices"
	"time"

	"github.com/atinyakov/habitxp/internal/calendar"
)

// DefaultLookbackDays is the window used for "currently alive" streaks.
const DefaultLookbackDays = 30

// Normalize truncates dates to calendar days, sorts them ascending and drops
// duplicates. The input slice is not modified.
func Normalize(dates []time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, calendar.Day(d))
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

// Current returns the length of the streak still alive at asOf.
//
// Only dates in [asOf-lookbackDays, asOf] are considered. A streak is alive
// when the most recent date is asOf or the day before; it is then counted
// backward from that date until the first missing day.
func Current(dates []time.Time, asOf time.Time, lookbackDays int) int {
	asOf = calendar.Day(asOf)
	from := calendar.AddDays(asOf, -lookbackDays)

	present := make(map[time.Time]struct{}, len(dates))
	var latest time.Time
	for _, d := range dates {
		d = calendar.Day(d)
		if d.Before(from) || d.After(asOf) {
			continue
		}
		present[d] = struct{}{}
		if d.After(latest) {
			latest = d
		}
	}
	if len(present) == 0 {
		return 0
	}
	if !latest.Equal(asOf) && !latest.Equal(calendar.AddDays(asOf, -1)) {
		return 0
	}

	count := 0
	for day := latest; ; day = calendar.AddDays(day, -1) {
		if _, ok := present[day]; !ok {
			break
		}
		count++
	}
	return count
}

// Longest returns the longest run of consecutive days in ordered, which must
// be ascending and free of duplicates (see Normalize). Empty input yields 0.
func Longest(ordered []time.Time) int {
	longest, run := 0, 0
	var prev time.Time
	for i, d := range ordered {
		if i > 0 && calendar.AddDays(prev, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
		prev = d
	}
	return longest
}
