// Package dates handles the calendar days the crawler works with.
//
// Days are tz-naive: a day is stored as midnight UTC of its calendar date,
// so stepping by 24 hours never crosses a DST boundary.
package dates

import (
	"fmt"
	"time"
)

// Layout is the on-disk date format of the checkpoint file
const Layout = "2006/01/02"

// Epoch is the first day crawled for an aircraft seen for the first time
var Epoch = Date(2022, time.January, 1)

const day = 24 * time.Hour

// Date returns the calendar day y-m-d
func Date(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

// Day returns the calendar day t falls on in t's own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Today returns the current calendar day in loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Day(now.In(loc))
}

// Range returns every day from start to end inclusive in ascending order.
// It returns an empty slice when start is after end.
func Range(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return []time.Time{}
	}

	days := make([]time.Time, 0, int(end.Sub(start)/day)+1)
	for d := start; !d.After(end); d = d.Add(day) {
		days = append(days, d)
	}
	return days
}

// Format renders a day as YYYY/MM/DD
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse reads a YYYY/MM/DD day
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY/MM/DD: %w", s, err)
	}
	return t, nil
}
