// Package health scores a month of finances and flags unusual spending.
// Reports consume it through small interfaces so the scoring formula can be
// replaced without touching report composition.
package health

import (
	"fmt"
	"math"

	"github.com/Veraticus/spice-dashboard/internal/budget"
)

// Component names.
const (
	ComponentSavingsRate       = "savings_rate"
	ComponentBudgetAdherence   = "budget_adherence"
	ComponentSpendingStability = "spending_stability"
	ComponentBalanceBuffer     = "balance_buffer"
)

// Input is the month summary a score is computed from.
type Input struct {
	Budgets        []budget.Status
	DailySpending  []float64 // Debit total per calendar day of the month, zeros included
	TotalIncome    float64
	TotalExpenses  float64
	AverageBalance float64
}

// Component is one weighted part of the overall score.
type Component struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Score is the overall financial health of a month.
type Score struct {
	Grade           string      `json:"grade"`
	Components      []Component `json:"components"`
	Recommendations []string    `json:"recommendations"`
	Overall         float64     `json:"overall"`
}

// Scorer computes health scores. The zero value uses the stock targets.
type Scorer struct {
	TargetSavingsRate float64 // Savings rate, in percent, that earns a full component score
	BufferMonths      float64 // Months of expenses held as balance that earn a full component score
}

// NewScorer returns a scorer with the stock targets.
func NewScorer() *Scorer {
	return &Scorer{TargetSavingsRate: 20, BufferMonths: 3}
}

// Score rates the month on savings, budget adherence, spending stability
// and balance buffer, and recommends a fix for each weak component.
func (s *Scorer) Score(in Input) Score {
	target := s.TargetSavingsRate
	if target <= 0 {
		target = 20
	}
	bufferMonths := s.BufferMonths
	if bufferMonths <= 0 {
		bufferMonths = 3
	}

	components := []Component{
		savingsComponent(in, target),
		adherenceComponent(in.Budgets),
		stabilityComponent(in.DailySpending),
		bufferComponent(in, bufferMonths),
	}

	var overall float64
	var recs []string
	for _, c := range components {
		overall += c.Score * c.Weight
		if c.Score < 60 {
			recs = append(recs, recommendation(c.Name))
		}
	}
	overall = math.Round(overall*10) / 10

	return Score{
		Overall:         overall,
		Grade:           grade(overall),
		Components:      components,
		Recommendations: recs,
	}
}

func savingsComponent(in Input, target float64) Component {
	var rate float64
	if in.TotalIncome > 0 {
		rate = (in.TotalIncome - in.TotalExpenses) / in.TotalIncome * 100
	}
	return Component{
		Name:   ComponentSavingsRate,
		Weight: 0.30,
		Score:  scale(rate, 0, target),
		Detail: fmt.Sprintf("saved %.1f%% of income", rate),
	}
}

func adherenceComponent(statuses []budget.Status) Component {
	c := Component{Name: ComponentBudgetAdherence, Weight: 0.25, Score: 100, Detail: "no budgets set"}
	if len(statuses) == 0 {
		return c
	}
	counts := budget.CountByState(statuses)
	penalty := float64(counts[budget.Exceeded]) + 0.5*float64(counts[budget.Warning])
	c.Score = clamp(100*(1-penalty/float64(len(statuses))), 0, 100)
	c.Detail = fmt.Sprintf("%d of %d budgets exceeded", counts[budget.Exceeded], len(statuses))
	return c
}

// stabilityComponent scores the coefficient of variation of daily spending:
// 0.5 or below is steady, 2 or above is erratic.
func stabilityComponent(daily []float64) Component {
	c := Component{Name: ComponentSpendingStability, Weight: 0.20, Score: 100, Detail: "no spending"}
	if len(daily) == 0 {
		return c
	}
	var sum float64
	for _, v := range daily {
		sum += v
	}
	mean := sum / float64(len(daily))
	if mean == 0 {
		return c
	}
	var sq float64
	for _, v := range daily {
		sq += (v - mean) * (v - mean)
	}
	cv := math.Sqrt(sq/float64(len(daily))) / mean
	c.Score = 100 - scale(cv, 0.5, 2)
	c.Detail = fmt.Sprintf("daily spending varies by %.0f%% of its mean", cv*100)
	return c
}

func bufferComponent(in Input, months float64) Component {
	c := Component{Name: ComponentBalanceBuffer, Weight: 0.25}
	if in.TotalExpenses <= 0 {
		if in.AverageBalance > 0 {
			c.Score = 100
		}
		c.Detail = "no expenses this month"
		return c
	}
	covered := in.AverageBalance / in.TotalExpenses
	c.Score = scale(covered, 0, months)
	c.Detail = fmt.Sprintf("average balance covers %.1f months of expenses", covered)
	return c
}

func recommendation(component string) string {
	switch component {
	case ComponentSavingsRate:
		return "Aim to save at least 20% of your income each month."
	case ComponentBudgetAdherence:
		return "Several budgets are at or over their limit; review those categories."
	case ComponentSpendingStability:
		return "Spending is concentrated in a few large days; spread big purchases out."
	case ComponentBalanceBuffer:
		return "Build an emergency buffer of about three months of expenses."
	}
	return ""
}

func grade(overall float64) string {
	switch {
	case overall >= 90:
		return "A"
	case overall >= 75:
		return "B"
	case overall >= 60:
		return "C"
	case overall >= 40:
		return "D"
	default:
		return "F"
	}
}

// scale maps v linearly from [lo, hi] onto [0, 100].
func scale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp((v-lo)/(hi-lo)*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
