// Package dates normalizes calendar dates used as snapshot, price and rate keys.
//
// Every date stored by wealthbook is a time.Time at UTC midnight so that
// equality and "on or before" comparisons behave the same on Postgres and SQLite.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format for calendar dates.
const Layout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day.
func Today() time.Time {
	return Day(time.Now().UTC())
}

// Parse accepts YYYY-MM-DD or RFC3339 and returns the normalized day.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return Day(t), nil
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Range returns every day from..to inclusive in ascending order.
// It returns nil when to is before from.
func Range(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil
	}
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// IsFirstOfMonth reports whether t falls on the first day of its month.
func IsFirstOfMonth(t time.Time) bool {
	return t.Day() == 1
}

// FirstOfMonth returns the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// YearAgo returns the same calendar day one year earlier.
// Feb 29 maps to Feb 28.
func YearAgo(t time.Time) time.Time {
	t = Day(t)
	prev := t.AddDate(-1, 0, 0)
	if t.Month() == time.February && t.Day() == 29 {
		return time.Date(t.Year()-1, time.February, 28, 0, 0, 0, 0, time.UTC)
	}
	return prev
}
