// Package progression maps cumulative XP onto levels, ranks and
// in-level progress.
//
// Two curves coexist on purpose. LinearCurve drives the user profile level,
// PowerCurve drives per-category levels. They answer differently for the same
// XP and must stay separate.
package progression

import "math"

// LevelCurve converts cumulative XP into a level (always >= 1).
type LevelCurve interface {
	// Name identifies the curve in logs and reports.
	Name() string
	// Level returns the level reached with xp cumulative points.
	Level(xp int) int
}

// LinearXPPerLevel is the XP width of every level on the linear curve.
const LinearXPPerLevel = 1000

// LinearCurve advances one level per LinearXPPerLevel points.
type LinearCurve struct{}

var _ LevelCurve = LinearCurve{}

// Name implements LevelCurve.
func (LinearCurve) Name() string { return "linear" }

// Level returns floor(xp/1000) + 1.
func (LinearCurve) Level(xp int) int {
	if xp <= 0 {
		return 1
	}
	return xp/LinearXPPerLevel + 1
}

// XPToNextLevel returns the points still missing to leave the current level.
func (c LinearCurve) XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return c.Level(xp)*LinearXPPerLevel - xp
}

// maxPowerLevel bounds the level search; 10000*n^3 still fits in int64.
const maxPowerLevel = 1 << 16

// PowerCurve requires floor(100 * n^1.5) points to go from level n to n+1.
type PowerCurve struct{}

var _ LevelCurve = PowerCurve{}

// Name implements LevelCurve.
func (PowerCurve) Name() string { return "power" }

// XPForLevel returns floor(100 * level^1.5), the width of the given level.
// Computed as isqrt(10000 * level^3) to stay exact on integers.
func (PowerCurve) XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	n := int64(level)
	return int(isqrt(10000 * n * n * n))
}

// TotalXPToReachLevel returns the cumulative XP at which level starts.
// Level 1 starts at 0.
func (c PowerCurve) TotalXPToReachLevel(level int) int {
	total := 0
	for n := 1; n < level; n++ {
		total += c.XPForLevel(n)
	}
	return total
}

// Level returns the largest L >= 1 with TotalXPToReachLevel(L) <= xp.
func (c PowerCurve) Level(xp int) int {
	if xp <= 0 {
		return 1
	}

	// Exponential search for an upper bound, then binary search.
	low, high := 1, 2
	for c.TotalXPToReachLevel(high) <= xp {
		low = high
		high *= 2
		if high > maxPowerLevel {
			high = maxPowerLevel
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if c.TotalXPToReachLevel(mid) <= xp {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}

// Progress describes where xp sits inside its level on the power curve.
type Progress struct {
	Level              int `json:"level"`
	XPIntoLevel        int `json:"xpIntoLevel"`
	XPForNextLevel     int `json:"xpForNextLevel"`
	ProgressPercentage int `json:"progressPercentage"`
}

// Progress returns the level of xp together with the progress made inside it.
// The percentage is floored and clamped to [0, 100].
func (c PowerCurve) Progress(xp int) Progress {
	level := c.Level(xp)
	into := xp - c.TotalXPToReachLevel(level)
	width := c.XPForLevel(level)

	pct := 0
	if width > 0 {
		pct = int(math.Floor(float64(into) / float64(width) * 100))
	}
	pct = min(max(pct, 0), 100)

	return Progress{
		Level:              level,
		XPIntoLevel:        into,
		XPForNextLevel:     width,
		ProgressPercentage: pct,
	}
}

func isqrt(v int64) int64 {
	if v <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(v)))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}
