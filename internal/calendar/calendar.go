// Package calendar provides UTC calendar-day arithmetic. A day is a time.Time
// at midnight UTC; time-of-day never carries meaning.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the ISO calendar date layout used on the wire and in SQL.
const Layout = "2006-01-02"

// ParseDate parses an ISO YYYY-MM-DD string into a UTC day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Format renders d as YYYY-MM-DD.
func Format(d time.Time) string {
	return Day(d).Format(Layout)
}

// Day drops the time-of-day of t, keeping the calendar date as written in
// t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC day.
func Today() time.Time {
	return Day(time.Now().UTC())
}

// AddDays shifts d by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth validates year and month.
func NewMonth(year, month int) (Month, error) {
	if year < 1 || year > 9999 {
		return Month{}, fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month %d", month)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// Start returns the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.End().Day()
}

// Previous returns the month before m; January rolls back to December of the
// previous year.
func (m Month) Previous() Month {
	p := m.Start().AddDate(0, -1, 0)
	return Month{Year: p.Year(), Month: p.Month()}
}

// HasPrevious reports whether the month before m is representable. January of
// year 1 has no predecessor.
func (m Month) HasPrevious() bool {
	return m.Year > 1 || m.Month > time.January
}

// Dates lists every day of the month in order.
func (m Month) Dates() []time.Time {
	n := m.Days()
	out := make([]time.Time, 0, n)
	start := m.Start()
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

// Label renders the month as "January 2024".
func (m Month) Label() string {
	return m.Start().Format("January 2006")
}
