// Package limits evaluates spending against user-defined daily, monthly,
// category and merchant caps.
package limits

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/merchant"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Status is the current spend against one limit.
type Status struct {
	WindowStart      time.Time           `json:"windowStart"`
	WindowEnd        time.Time           `json:"windowEnd"`
	Limit            model.SpendingLimit `json:"limit"`
	CurrentSpend     float64             `json:"currentSpend"`
	PercentUsed      float64             `json:"percentUsed"`
	Remaining        float64             `json:"remaining"` // Negative when over the limit
	TransactionCount int                 `json:"transactionCount"`
	Exceeded         bool                `json:"exceeded"`
}

// Breach describes a limit a candidate transaction would push over its cap.
type Breach struct {
	Limit          model.SpendingLimit `json:"limit"`
	CurrentSpend   float64             `json:"currentSpend"`
	ProjectedSpend float64             `json:"projectedSpend"`
	Overage        float64             `json:"overage"`
}

// Window returns the time range a limit measures spend over, relative to now.
// Daily limits use now's calendar day; every other type uses now's calendar
// month.
func Window(limit model.SpendingLimit, now time.Time) ledger.Window {
	if limit.Type == model.LimitDaily {
		start, end := ledger.DayRange(now)
		return ledger.Window{Start: start, End: end}
	}
	start := ledger.MonthStart(now)
	return ledger.Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// Applies reports whether txn counts toward limit, ignoring its date.
// Only debits count. Category limits additionally require the target tag and
// merchant limits the target merchant as identified by merchant.Extract.
func Applies(limit model.SpendingLimit, txn *model.Transaction) bool {
	if !txn.IsDebit() {
		return false
	}
	switch limit.Type {
	case model.LimitCategory:
		return txn.HasTag(limit.TargetID)
	case model.LimitMerchant:
		return merchant.Matches(txn.Details, limit.TargetID)
	default:
		return true
	}
}

// Evaluate computes the current spend against a single limit. Inactive limits
// are evaluated the same way; activity only matters for CheckTransaction.
func Evaluate(limit model.SpendingLimit, txns []model.Transaction, now time.Time) Status {
	st, _ := evaluate(limit, txns, now)
	return st
}

func evaluate(limit model.SpendingLimit, txns []model.Transaction, now time.Time) (Status, decimal.Decimal) {
	w := Window(limit, now)
	st := Status{
		Limit:       limit,
		WindowStart: w.Start,
		WindowEnd:   w.End,
	}

	spend := decimal.Zero
	for i := range txns {
		txn := &txns[i]
		if !w.Contains(txn.Date.In(now.Location())) || !Applies(limit, txn) {
			continue
		}
		spend = spend.Add(ledger.Amount(txn.DebitAmount()))
		st.TransactionCount++
	}

	ceiling := ledger.Amount(limit.Limit)
	st.CurrentSpend = ledger.Float(spend)
	st.PercentUsed = ledger.Float(ledger.Percent(spend, ceiling))
	st.Remaining = ledger.Float(ceiling.Sub(spend))
	st.Exceeded = spend.GreaterThan(ceiling)
	return st, spend
}

// EvaluateAll evaluates every limit independently, preserving input order.
// Overlapping limits (for example two category limits on a transaction with
// both tags) each count the transaction in full.
func EvaluateAll(limits []model.SpendingLimit, txns []model.Transaction, now time.Time) []Status {
	statuses := make([]Status, 0, len(limits))
	for _, l := range limits {
		statuses = append(statuses, Evaluate(l, txns, now))
	}
	return statuses
}

// CheckTransaction reports the active limits that candidate would breach if it
// were committed. txns must not already contain candidate. A limit is
// breached when currentSpend + candidate debit > limit.
func CheckTransaction(limits []model.SpendingLimit, txns []model.Transaction, candidate model.Transaction, now time.Time) []Breach {
	if !candidate.IsDebit() {
		return nil
	}
	amount := ledger.Amount(candidate.DebitAmount())

	var breaches []Breach
	for _, l := range limits {
		if !l.IsActive || !Applies(l, &candidate) {
			continue
		}
		st, spend := evaluate(l, txns, now)
		ceiling := ledger.Amount(l.Limit)
		projected := spend.Add(amount)
		if projected.GreaterThan(ceiling) {
			breaches = append(breaches, Breach{
				Limit:          l,
				CurrentSpend:   st.CurrentSpend,
				ProjectedSpend: ledger.Float(projected),
				Overage:        ledger.Float(projected.Sub(ceiling)),
			})
		}
	}
	return breaches
}
