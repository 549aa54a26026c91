// Package dates provides calendar-aware date stepping for the recurrence
// and planning engines. All operations go through an explicit Calendar value
// so the engine never reads ambient timezone state.
package dates

import (
	"math"
	"time"
)

// Unit is a calendar stepping unit.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

// Calendar fixes the location all date arithmetic is performed in.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a Calendar in the given location. A nil location
// falls back to UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// UTC returns the UTC calendar.
func UTC() Calendar {
	return Calendar{loc: time.UTC}
}

// Location returns the calendar's location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// AddPeriod adds n units to t. Month and year steps follow time.AddDate
// normalization, so Jan 31 + 1 month lands in early March.
func (c Calendar) AddPeriod(t time.Time, unit Unit, n int) time.Time {
	t = t.In(c.Location())
	switch unit {
	case Day:
		return t.AddDate(0, 0, n)
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Month:
		return t.AddDate(0, n, 0)
	case Year:
		return t.AddDate(n, 0, 0)
	}
	return t
}

// StartOfDay returns midnight of t's calendar day.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}

// StartOfMonth returns midnight of the first day of t's month.
func (c Calendar) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.Location()).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, c.Location())
}

// EndOfMonth returns the last instant of t's month.
func (c Calendar) EndOfMonth(t time.Time) time.Time {
	return c.StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DaysBetween returns the number of calendar days from a to b, negative
// when b is before a. Rounding absorbs DST offsets in non-UTC locations.
func (c Calendar) DaysBetween(a, b time.Time) int {
	diff := c.StartOfDay(b).Sub(c.StartOfDay(a))
	return int(math.Round(diff.Hours() / 24))
}

// MonthsBetween returns the number of whole calendar months from a to b,
// ignoring the day of month. January to March is 2 regardless of days.
func (c Calendar) MonthsBetween(a, b time.Time) int {
	ay, am, _ := a.In(c.Location()).Date()
	by, bm, _ := b.In(c.Location()).Date()
	return (by-ay)*12 + int(bm-am)
}
