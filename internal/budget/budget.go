// Package budget evaluates tagged monthly budgets against actual spending.
package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// State is the tri-state health of a budget.
type State string

// Budget states. Thresholds are on percent of the monthly limit used.
const (
	OnTrack  State = "on_track" // below 80%
	Warning  State = "warning"  // 80% up to but excluding 100%
	Exceeded State = "exceeded" // 100% or more
)

var (
	warningThreshold  = decimal.NewFromInt(80)
	exceededThreshold = decimal.NewFromInt(100)
)

// Status is the derived standing of one budget.
type Status struct {
	Budget              model.Budget `json:"budget"`
	TagName             string       `json:"tagName"` // Empty when the tag is not in the catalog
	State               State        `json:"status"`
	CurrentSpend        float64      `json:"currentSpend"`
	PercentUsed         float64      `json:"percentUsed"`
	Remaining           float64      `json:"remaining"`
	ProjectedEndOfMonth float64      `json:"projectedEndOfMonth"`
	DaysElapsed         int          `json:"daysElapsed"`
	DaysInPeriod        int          `json:"daysInPeriod"`
	TransactionCount    int          `json:"transactionCount"`
}

// StateFor maps a percent-used figure onto a budget state.
func StateFor(percentUsed float64) State {
	return stateFor(ledger.Amount(percentUsed))
}

func stateFor(percentUsed decimal.Decimal) State {
	switch {
	case percentUsed.GreaterThanOrEqual(exceededThreshold):
		return Exceeded
	case percentUsed.GreaterThanOrEqual(warningThreshold):
		return Warning
	default:
		return OnTrack
	}
}

// Evaluate computes a budget's status from the debits tagged with its tag
// inside its period. now determines how many days of the period have elapsed
// for the end-of-month projection. The only error is a malformed period.
func Evaluate(b model.Budget, txns []model.Transaction, now time.Time) (Status, error) {
	start, err := b.ParsePeriod(now.Location())
	if err != nil {
		return Status{}, err
	}
	end := start.AddDate(0, 1, 0)

	st := Status{
		Budget:       b,
		DaysInPeriod: ledger.DaysInMonth(start.Year(), start.Month()),
	}

	spend := decimal.Zero
	for i := range txns {
		txn := &txns[i]
		d := txn.Date.In(now.Location())
		if d.Before(start) || !d.Before(end) {
			continue
		}
		if !txn.IsDebit() || !txn.HasTag(b.TagID) {
			continue
		}
		spend = spend.Add(ledger.Amount(txn.DebitAmount()))
		st.TransactionCount++
	}
	st.CurrentSpend = ledger.Float(spend)

	switch {
	case now.Before(start):
		st.DaysElapsed = 0
	case !now.Before(end):
		st.DaysElapsed = st.DaysInPeriod
	default:
		st.DaysElapsed = now.Day()
	}

	limit := ledger.Amount(b.MonthlyLimit)
	percent := ledger.Percent(spend, limit)
	st.PercentUsed = ledger.Float(percent)
	st.Remaining = ledger.Float(limit.Sub(spend))
	st.ProjectedEndOfMonth = st.CurrentSpend
	if st.DaysElapsed > 0 {
		st.ProjectedEndOfMonth = st.CurrentSpend * float64(st.DaysInPeriod) / float64(st.DaysElapsed)
	}
	st.State = stateFor(percent)
	return st, nil
}

// EvaluateAll evaluates every budget, labelling each with its tag name from
// tagNames. Budgets with a malformed period are skipped and returned in the
// error slice so a report can still render the rest.
func EvaluateAll(budgets []model.Budget, txns []model.Transaction, tagNames map[string]string, now time.Time) ([]Status, []error) {
	statuses := make([]Status, 0, len(budgets))
	var errs []error
	for _, b := range budgets {
		st, err := Evaluate(b, txns, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		st.TagName = tagNames[b.TagID]
		statuses = append(statuses, st)
	}
	return statuses, errs
}

// ForPeriod returns the budgets whose period is the given calendar month.
func ForPeriod(budgets []model.Budget, year int, month time.Month) []model.Budget {
	period := model.FormatPeriod(year, month)
	var out []model.Budget
	for _, b := range budgets {
		if b.Period == period {
			out = append(out, b)
		}
	}
	return out
}

// CountByState tallies statuses per state.
func CountByState(statuses []Status) map[State]int {
	counts := make(map[State]int, 3)
	for _, st := range statuses {
		counts[st.State]++
	}
	return counts
}
