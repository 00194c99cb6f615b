package model

import (
	"errors"
	"fmt"
	"time"
)

// PeriodLayout is the year-month format used for budget periods.
const PeriodLayout = "2006-01"

// ErrInvalidPeriod is returned when a budget period is not a YYYY-MM string.
var ErrInvalidPeriod = errors.New("invalid budget period")

// Budget caps monthly spending for one tag. One budget is expected per (TagID, Period).
type Budget struct {
	ID           string  `json:"id"`
	TagID        string  `json:"tagId"`
	Period       string  `json:"period"` // e.g. "2024-03"
	MonthlyLimit float64 `json:"monthlyLimit"`
}

// ParsePeriod returns the first instant of the budget's month in loc.
func (b *Budget) ParsePeriod(loc *time.Location) (time.Time, error) {
	return ParsePeriod(b.Period, loc)
}

// ParsePeriod parses a YYYY-MM period string into the first instant of that month.
func ParsePeriod(period string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(PeriodLayout, period, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidPeriod, period, err)
	}
	return t, nil
}

// FormatPeriod renders a year and month as a budget period string.
func FormatPeriod(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}
