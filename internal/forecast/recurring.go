// Package forecast detects recurring payments and projects balances and cash
// flow forward from a transaction history.
package forecast

import (
	"math"
	"sort"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/merchant"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Frequency is the inferred periodicity of a recurring payment.
type Frequency string

// Recognised frequencies.
const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Interval jitter tolerated around a frequency's nominal period, in days.
const maxIntervalStdDev = 7.0

// minConfidence discards groups whose intervals vary too much relative to
// their period.
const minConfidence = 0.5

// RecurringPayment is a merchant debit pattern inferred from history.
type RecurringPayment struct {
	LastDate     time.Time `json:"lastDate"`
	NextExpected time.Time `json:"nextExpected"`
	Merchant     string    `json:"merchant"`
	Frequency    Frequency `json:"frequency"`
	Amount       float64   `json:"amount"` // Median of observed debits
	IntervalDays float64   `json:"intervalDays"`
	Confidence   float64   `json:"confidence"`
	Occurrences  int       `json:"occurrences"`
}

// Next returns the first expected payment date after the last observed one.
func (r RecurringPayment) Next() time.Time {
	return r.nth(1)
}

// Active reports whether the pattern is still running at now: a payment that
// has missed two full periods is treated as stopped.
func (r RecurringPayment) Active(now time.Time) bool {
	return now.Sub(r.LastDate).Hours()/24 <= 2*r.IntervalDays
}

// OccurrencesBetween returns the expected payment dates in [start, end).
// Monthly and longer periods step in calendar months from the last observed
// payment, so a payment on the 31st lands on the last day of shorter months.
func (r RecurringPayment) OccurrencesBetween(start, end time.Time) []time.Time {
	var dates []time.Time
	if r.LastDate.IsZero() {
		return dates
	}
	for n := 1; ; n++ {
		cur := r.nth(n)
		if !cur.Before(end) {
			break
		}
		if !cur.Before(start) {
			dates = append(dates, cur)
		}
	}
	return dates
}

// nth returns the n-th expected payment after LastDate, always computed from
// LastDate so month-end clamping does not accumulate.
func (r RecurringPayment) nth(n int) time.Time {
	switch r.Frequency {
	case Weekly:
		return r.LastDate.AddDate(0, 0, 7*n)
	case Biweekly:
		return r.LastDate.AddDate(0, 0, 14*n)
	case Monthly:
		return ledger.AddMonths(r.LastDate, n)
	case Quarterly:
		return ledger.AddMonths(r.LastDate, 3*n)
	case Yearly:
		return ledger.AddMonths(r.LastDate, 12*n)
	default:
		return r.LastDate.AddDate(0, 0, n*int(math.Max(1, math.Round(r.IntervalDays))))
	}
}

// DetectRecurring groups debits by merchant identifier and returns the groups
// whose payment intervals cluster around a stable period. minOccurrences
// below 2 is raised to 2 since a single payment has no interval.
func DetectRecurring(txns []model.Transaction, minOccurrences int) []RecurringPayment {
	if minOccurrences < 2 {
		minOccurrences = 2
	}

	groups := make(map[string][]model.Transaction)
	for i := range txns {
		if !txns[i].IsDebit() {
			continue
		}
		key := merchant.Extract(txns[i].Details)
		if key == merchant.Unknown {
			continue
		}
		groups[key] = append(groups[key], txns[i])
	}

	var recurring []RecurringPayment
	for name, group := range groups {
		if len(group) < minOccurrences {
			continue
		}
		if rp, ok := detectGroup(name, ledger.SortByDate(group)); ok {
			recurring = append(recurring, rp)
		}
	}

	sort.Slice(recurring, func(i, j int) bool {
		return recurring[i].Merchant < recurring[j].Merchant
	})
	return recurring
}

func detectGroup(name string, txns []model.Transaction) (RecurringPayment, bool) {
	intervals := make([]float64, 0, len(txns)-1)
	for i := 1; i < len(txns); i++ {
		intervals = append(intervals, txns[i].Date.Sub(txns[i-1].Date).Hours()/24)
	}

	medianInterval := median(intervals)
	if medianInterval <= 0 {
		return RecurringPayment{}, false
	}

	var sumSq float64
	for _, iv := range intervals {
		diff := iv - medianInterval
		sumSq += diff * diff
	}
	stdDev := math.Sqrt(sumSq / float64(len(intervals)))
	if stdDev > maxIntervalStdDev {
		return RecurringPayment{}, false
	}

	freq, ok := classify(medianInterval, len(txns))
	if !ok {
		return RecurringPayment{}, false
	}

	confidence := 1 - stdDev/medianInterval
	if confidence < minConfidence {
		return RecurringPayment{}, false
	}

	amounts := make([]float64, len(txns))
	for i := range txns {
		amounts[i] = txns[i].DebitAmount()
	}

	rp := RecurringPayment{
		Merchant:     name,
		Frequency:    freq,
		Amount:       median(amounts),
		IntervalDays: medianInterval,
		LastDate:     txns[len(txns)-1].Date,
		Occurrences:  len(txns),
		Confidence:   confidence,
	}
	rp.NextExpected = rp.Next()
	return rp, true
}

// classify maps a median interval to a frequency. Short periods need more
// observations before they are trusted.
func classify(days float64, occurrences int) (Frequency, bool) {
	switch {
	case days >= 5 && days <= 9:
		return Weekly, occurrences >= 4
	case days >= 12 && days <= 16:
		return Biweekly, occurrences >= 4
	case days >= 25 && days <= 35:
		return Monthly, true
	case days >= 85 && days <= 95:
		return Quarterly, true
	case days >= 350 && days <= 380:
		return Yearly, true
	}
	return "", false
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
