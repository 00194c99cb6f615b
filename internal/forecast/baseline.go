package forecast

import (
	"sort"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/merchant"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Options tunes the forecaster and projector.
type Options struct {
	LowBalanceThreshold float64 // Warn when balances fall below this
	ConfidenceMargin    float64 // Fraction of |trend| used as the interval half-width
	TrendDays           int     // Trailing window for the daily run rate
	MinOccurrences      int     // Debits needed before a merchant can be recurring
}

// DefaultOptions returns the stock forecasting parameters.
func DefaultOptions() Options {
	return Options{
		LowBalanceThreshold: 10000,
		ConfidenceMargin:    0.2,
		TrendDays:           90,
		MinOccurrences:      3,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.TrendDays <= 0 {
		o.TrendDays = def.TrendDays
	}
	if o.MinOccurrences <= 0 {
		o.MinOccurrences = def.MinOccurrences
	}
	if o.ConfidenceMargin < 0 {
		o.ConfidenceMargin = def.ConfidenceMargin
	}
	return o
}

// ExpectedPayment is one projected occurrence of a recurring payment.
type ExpectedPayment struct {
	Date      time.Time `json:"date"`
	Merchant  string    `json:"merchant"`
	Frequency Frequency `json:"frequency"`
	Amount    float64   `json:"amount"`
}

// baseline is the non-recurring daily run rate observed over the trend window.
type baseline struct {
	start        time.Time
	dailyInflow  float64
	dailyOutflow float64
	days         int
}

func (b baseline) dailyNet() float64 {
	return b.dailyInflow - b.dailyOutflow
}

// newBaseline averages credits and non-recurring debits over the trailing
// trendDays before now. Debits to recurring merchants are left out because
// their future occurrences are projected explicitly. A ledger that starts
// inside the window is averaged over the days it actually covers.
func newBaseline(txns []model.Transaction, recurring []RecurringPayment, now time.Time, trendDays int) baseline {
	end := ledger.DayStart(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -trendDays)

	window := ledger.Filter(txns, start, end)
	b := baseline{start: start, days: trendDays}
	if len(window) == 0 {
		return b
	}

	// Only a ledger that begins inside the window shortens the divisor; quiet
	// days at the start of the window still count.
	if first := ledger.SortByDate(txns)[0].Date; first.After(start) {
		b.days = max(1, ledger.DaysBetween(first, end))
	}

	skip := make(map[string]bool, len(recurring))
	for _, r := range recurring {
		skip[r.Merchant] = true
	}

	var in, out float64
	for i := range window {
		txn := &window[i]
		in += txn.CreditAmount()
		if txn.IsDebit() && !skip[merchant.Extract(txn.Details)] {
			out += txn.DebitAmount()
		}
	}
	b.dailyInflow = in / float64(b.days)
	b.dailyOutflow = out / float64(b.days)
	return b
}

// expectedPayments lists the occurrences of every active recurring payment in
// [start, end), ordered by date then merchant.
func expectedPayments(recurring []RecurringPayment, now, start, end time.Time) []ExpectedPayment {
	var out []ExpectedPayment
	for _, r := range recurring {
		if !r.Active(now) {
			continue
		}
		for _, d := range r.OccurrencesBetween(start, end) {
			out = append(out, ExpectedPayment{
				Date:      d,
				Merchant:  r.Merchant,
				Frequency: r.Frequency,
				Amount:    r.Amount,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Merchant < out[j].Merchant
	})
	return out
}

func sumPayments(payments []ExpectedPayment) float64 {
	var total float64
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// horizonStart is the first instant forecasts project from: the day after
// now. Today's activity is assumed to be reflected in the latest balance.
func horizonStart(now time.Time) time.Time {
	return ledger.DayStart(now).AddDate(0, 0, 1)
}
