package report

import (
	"fmt"

	"github.com/Veraticus/spice-dashboard/internal/budget"
	"github.com/Veraticus/spice-dashboard/internal/health"
)

// monthlyRecommendations applies the report rules in order and then appends
// the health scorer's own advice unchanged.
func monthlyRecommendations(r *MonthlyReport) []string {
	recs := []string{}

	if net := r.Summary.NetSavings; net < 0 {
		recs = append(recs, fmt.Sprintf("Spending exceeded income by %.2f this month. Cut discretionary spending to close the gap.", -net))
	}

	if n := budget.CountByState(r.BudgetPerformance)[budget.Exceeded]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d %s exceeded this month. Review spending in those categories.", n, plural(n, "budget", "budgets")))
	}

	if r.HealthScore != nil && r.HealthScore.Overall < healthThreshold {
		recs = append(recs, fmt.Sprintf("Financial health score is %.0f out of 100. Focus on the weakest areas below.", r.HealthScore.Overall))
	}

	high := 0
	for _, a := range r.Anomalies {
		if a.Severity == health.SeverityHigh {
			high++
		}
	}
	if high > 0 {
		recs = append(recs, fmt.Sprintf("%d unusually large %s detected. Check that %s expected.",
			high, plural(high, "transaction", "transactions"), plural(high, "it was", "they were")))
	}

	if r.HealthScore != nil {
		recs = append(recs, r.HealthScore.Recommendations...)
	}
	return recs
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
