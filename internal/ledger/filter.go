package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Filter returns the transactions dated within [start, end).
// The input slice is not modified.
func Filter(txns []model.Transaction, start, end time.Time) []model.Transaction {
	var out []model.Transaction
	for i := range txns {
		d := txns[i].Date
		if !d.Before(start) && d.Before(end) {
			out = append(out, txns[i])
		}
	}
	return out
}

// Since returns the transactions dated at or after start.
func Since(txns []model.Transaction, start time.Time) []model.Transaction {
	var out []model.Transaction
	for i := range txns {
		if !txns[i].Date.Before(start) {
			out = append(out, txns[i])
		}
	}
	return out
}

// Where returns the transactions matching keep.
func Where(txns []model.Transaction, keep func(*model.Transaction) bool) []model.Transaction {
	var out []model.Transaction
	for i := range txns {
		if keep(&txns[i]) {
			out = append(out, txns[i])
		}
	}
	return out
}

// Totals sums credit amounts into inflow and debit amounts into outflow.
func Totals(txns []model.Transaction) (inflow, outflow float64) {
	in, out := decimalTotals(txns)
	return Float(in), Float(out)
}

// decimalTotals is Totals without converting back to float64.
func decimalTotals(txns []model.Transaction) (inflow, outflow decimal.Decimal) {
	for i := range txns {
		inflow = inflow.Add(Amount(txns[i].CreditAmount()))
		outflow = outflow.Add(Amount(txns[i].DebitAmount()))
	}
	return inflow, outflow
}

// SumDebits returns the total outflow of txns.
func SumDebits(txns []model.Transaction) float64 {
	_, out := Totals(txns)
	return out
}

// SortByDate returns a copy of txns in ascending date order. Transactions on
// the same instant keep their input order.
func SortByDate(txns []model.Transaction) []model.Transaction {
	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// LatestBalance returns the running balance of the most recent transaction.
// The boolean is false for an empty ledger.
func LatestBalance(txns []model.Transaction) (float64, bool) {
	if len(txns) == 0 {
		return 0, false
	}
	sorted := SortByDate(txns)
	return sorted[len(sorted)-1].Balance, true
}

// Index groups a ledger by calendar month once so repeated budget, limit and
// report evaluations do not rescan the full ledger.
type Index struct {
	loc     *time.Location
	byMonth map[string][]model.Transaction
	all     []model.Transaction
}

// NewIndex builds a per-month index of txns using loc for calendar boundaries.
func NewIndex(txns []model.Transaction, loc *time.Location) *Index {
	if loc == nil {
		loc = time.UTC
	}
	idx := &Index{
		loc:     loc,
		byMonth: make(map[string][]model.Transaction),
		all:     txns,
	}
	for i := range txns {
		key := MonthKey(txns[i].Date.In(loc))
		idx.byMonth[key] = append(idx.byMonth[key], txns[i])
	}
	return idx
}

// Month returns the transactions dated in the given calendar month.
func (x *Index) Month(year int, month time.Month) []model.Transaction {
	return x.byMonth[MonthKey(time.Date(year, month, 1, 0, 0, 0, 0, x.loc))]
}

// Year returns the transactions dated in the given calendar year.
func (x *Index) Year(year int) []model.Transaction {
	var out []model.Transaction
	for m := time.January; m <= time.December; m++ {
		out = append(out, x.Month(year, m)...)
	}
	return out
}

// All returns the full ledger the index was built from.
func (x *Index) All() []model.Transaction {
	return x.all
}

// Location returns the calendar location used for month boundaries.
func (x *Index) Location() *time.Location {
	return x.loc
}
