// Package ledger buckets and sums transactions over calendar windows.
// Every other analytics package builds on these helpers.
package ledger

import (
	"math"
	"time"
)

// DayStart returns midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayRange returns the half-open window [midnight, next midnight) containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := DayStart(t)
	return start, start.AddDate(0, 0, 1)
}

// MonthStart returns the first instant of t's calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthRange returns the half-open window covering a calendar month.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// YearRange returns the half-open window covering a calendar year.
func YearRange(year int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

// WeekStart returns the Monday midnight of t's ISO week.
func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DaysInMonth returns the number of days in the given calendar month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months, clamping the day to the end of the
// target month so Jan 31 + 1 month is Feb 28/29 rather than early March.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := DaysInMonth(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthsBetween returns the number of whole calendar months from a to b.
// A month only counts once b's day-of-month reaches a's; time of day is
// ignored. Negative spans yield 0.
func MonthsBetween(a, b time.Time) int {
	a = DayStart(a)
	b = DayStart(b.In(a.Location()))
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if months > 0 && AddMonths(a, months).After(b) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// DaysBetween returns the number of calendar days from a's day to b's day.
func DaysBetween(a, b time.Time) int {
	a = DayStart(a)
	b = DayStart(b.In(a.Location()))
	// Rounding absorbs DST shifts.
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// MonthKey returns the YYYY-MM key for t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
