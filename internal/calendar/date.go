// Package calendar provides trading-day arithmetic and the date-window planner.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	LayoutISO     = "2006-01-02"
	LayoutCompact = "20060102"
)

var layouts = []string{LayoutISO, LayoutCompact, time.RFC3339Nano, "2006-01-02 15:04:05", "2006/01/02"}

// ParseDate accepts 2006-01-02, 20060102 and timestamp forms; the result is a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func MustParse(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Day drops the clock and zone, keeping the calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatISO(t time.Time) string     { return t.Format(LayoutISO) }
func FormatCompact(t time.Time) string { return t.Format(LayoutCompact) }
