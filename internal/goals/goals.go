// Package goals tracks progress toward savings goals and projects
// hypothetical completion dates.
package goals

import (
	"math"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// trailingMonths is the number of complete calendar months averaged for the
// savings and income baselines.
const trailingMonths = 3

// Progress is the derived standing of one savings goal.
type Progress struct {
	Goal                   model.SavingsGoal `json:"goal"`
	CurrentAmount          float64           `json:"currentAmount"`
	PercentComplete        float64           `json:"percentComplete"`
	Remaining              float64           `json:"remaining"`
	RequiredMonthlySavings float64           `json:"requiredMonthlySavings"`
	AverageMonthlySavings  float64           `json:"averageMonthlySavings"`
	MonthsRemaining        int               `json:"monthsRemaining"`
	OnTrack                bool              `json:"onTrack"`
}

// Projection is a hypothetical "what-if" outcome for a goal at a given
// savings rate. MonthsToGoal is -1 and Reachable false when the hypothetical
// savings are not positive.
type Projection struct {
	ProjectedCompletion  time.Time `json:"projectedCompletion"`
	SavingsRate          float64   `json:"savingsRate"`
	AverageMonthlyIncome float64   `json:"averageMonthlyIncome"`
	MonthlySavings       float64   `json:"monthlySavings"`
	Remaining            float64   `json:"remaining"`
	MonthsToGoal         int       `json:"monthsToGoal"`
	Reachable            bool      `json:"reachable"`
}

// Evaluate computes a goal's progress from the transactions dated on or after
// its creation.
func Evaluate(goal model.SavingsGoal, txns []model.Transaction, now time.Time) Progress {
	p := Progress{Goal: goal}

	in, out := ledger.Totals(ledger.Since(txns, goal.CreatedAt))
	p.CurrentAmount = math.Max(0, in-out)
	p.Remaining = math.Max(0, goal.TargetAmount-p.CurrentAmount)
	if goal.TargetAmount > 0 {
		p.PercentComplete = clamp(p.CurrentAmount*100/goal.TargetAmount, 0, 100)
	} else {
		// Nothing to save toward counts as complete.
		p.PercentComplete = 100
	}

	p.MonthsRemaining = ledger.MonthsBetween(now, goal.Deadline)
	if p.MonthsRemaining > 0 {
		p.RequiredMonthlySavings = p.Remaining / float64(p.MonthsRemaining)
	} else {
		p.RequiredMonthlySavings = p.Remaining
	}

	p.AverageMonthlySavings = AverageMonthlySavings(txns, now)
	p.OnTrack = p.Remaining == 0 || p.RequiredMonthlySavings <= p.AverageMonthlySavings
	return p
}

// WhatIf projects how long the goal would take if savingsRate percent of the
// trailing average monthly income were saved each month. The goal is not
// modified.
func WhatIf(goal model.SavingsGoal, txns []model.Transaction, now time.Time, savingsRate float64) Projection {
	p := Evaluate(goal, txns, now)
	proj := Projection{
		SavingsRate:          savingsRate,
		AverageMonthlyIncome: AverageMonthlyIncome(txns, now),
		Remaining:            p.Remaining,
		MonthsToGoal:         -1,
	}
	proj.MonthlySavings = proj.AverageMonthlyIncome * savingsRate / 100

	switch {
	case p.Remaining == 0:
		proj.MonthsToGoal = 0
	case proj.MonthlySavings > 0:
		proj.MonthsToGoal = int(math.Ceil(p.Remaining / proj.MonthlySavings))
	default:
		return proj
	}
	proj.Reachable = true
	proj.ProjectedCompletion = ledger.AddMonths(now, proj.MonthsToGoal)
	return proj
}

// AverageMonthlySavings returns the mean of income minus expenses over the
// three complete calendar months before now. Months whose net is exactly zero
// are left out; with no remaining months the average is 0.
func AverageMonthlySavings(txns []model.Transaction, now time.Time) float64 {
	var sum float64
	var n int
	for _, m := range trailingWindows(now) {
		in, out := ledger.Totals(ledger.Filter(txns, m.Start, m.End))
		if net := in - out; net != 0 {
			sum += net
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageMonthlyIncome returns the mean credit total over the three complete
// calendar months before now. Months without income count as zero.
func AverageMonthlyIncome(txns []model.Transaction, now time.Time) float64 {
	var sum float64
	for _, m := range trailingWindows(now) {
		in, _ := ledger.Totals(ledger.Filter(txns, m.Start, m.End))
		sum += in
	}
	return sum / trailingMonths
}

func trailingWindows(now time.Time) []ledger.Window {
	cur := ledger.MonthStart(now)
	windows := make([]ledger.Window, 0, trailingMonths)
	for i := trailingMonths; i >= 1; i-- {
		start := cur.AddDate(0, -i, 0)
		windows = append(windows, ledger.Window{Start: start, End: start.AddDate(0, 1, 0)})
	}
	return windows
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
