package export

import (
	"strconv"

	"github.com/Veraticus/spice-dashboard/internal/budget"
	"github.com/Veraticus/spice-dashboard/internal/forecast"
	"github.com/Veraticus/spice-dashboard/internal/goals"
	"github.com/Veraticus/spice-dashboard/internal/limits"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

const dateLayout = "2006-01-02"

func paymentsSection(title string, payments []forecast.ExpectedPayment) Section {
	sec := Section{Title: title, Header: []string{"Date", "Merchant", "Frequency", "Amount"}}
	for _, p := range payments {
		sec.Rows = append(sec.Rows, []string{p.Date.Format(dateLayout), p.Merchant, string(p.Frequency), money(p.Amount)})
	}
	return sec
}

// ForecastTable flattens a balance forecast.
func ForecastTable(f forecast.Forecast) Table {
	t := Table{
		Title: "Balance Forecast to " + f.PeriodEnd.AddDate(0, 0, -1).Format(dateLayout),
		Meta: [][2]string{
			{"Current Balance", money(f.CurrentBalance)},
			{"Predicted Balance", money(f.PredictedBalance)},
			{"Range", money(f.ConfidenceInterval.Low) + " to " + money(f.ConfidenceInterval.High)},
			{"Days Ahead", strconv.Itoa(f.DaysAhead)},
			{"Daily Inflow", money(f.DailyInflow)},
			{"Daily Outflow", money(f.DailyOutflow)},
			{"Recurring Total", money(f.RecurringTotal)},
		},
	}

	warnings := Section{Title: "Warnings", Header: []string{"Date", "Severity", "Type", "Message"}}
	for _, w := range f.Warnings {
		date := ""
		if !w.Date.IsZero() {
			date = w.Date.Format(dateLayout)
		}
		warnings.Rows = append(warnings.Rows, []string{date, string(w.Severity), w.Type, w.Message})
	}

	assumptions := Section{Title: "Assumptions", Header: []string{"Assumption"}}
	for _, a := range f.Assumptions {
		assumptions.Rows = append(assumptions.Rows, []string{a})
	}

	t.Sections = []Section{warnings, paymentsSection("Upcoming Payments", f.Upcoming), assumptions}
	return t
}

// CashFlowTable flattens a cash-flow projection.
func CashFlowTable(p forecast.Projection) Table {
	t := Table{
		Title: "Cash Flow Projection (" + strconv.Itoa(p.HorizonDays) + " days)",
		Meta: [][2]string{
			{"Total Inflow", money(p.TotalInflow)},
			{"Total Outflow", money(p.TotalOutflow)},
			{"Net Flow", money(p.NetFlow)},
		},
	}
	periods := Section{Title: "Periods", Header: []string{"Month", "Days", "Inflow", "Outflow", "Net", "Recurring"}}
	for _, period := range p.Periods {
		periods.Rows = append(periods.Rows, []string{
			period.Label, strconv.Itoa(period.Days), money(period.ExpectedInflow),
			money(period.ExpectedOutflow), money(period.NetFlow), strconv.Itoa(len(period.RecurringPayments)),
		})
	}
	t.Sections = []Section{periods}
	return t
}

// RecurringTable lists detected recurring payments.
func RecurringTable(payments []forecast.RecurringPayment) Table {
	sec := Section{Header: []string{"Merchant", "Frequency", "Amount", "Every (days)", "Seen", "Last", "Next", "Confidence"}}
	for _, r := range payments {
		sec.Rows = append(sec.Rows, []string{
			r.Merchant, string(r.Frequency), money(r.Amount), pct(r.IntervalDays), strconv.Itoa(r.Occurrences),
			r.LastDate.Format(dateLayout), r.NextExpected.Format(dateLayout), pct(r.Confidence * 100),
		})
	}
	return Table{Title: "Recurring Payments", Sections: []Section{sec}}
}

// BudgetsTable lists budget statuses for one period.
func BudgetsTable(period string, statuses []budget.Status) Table {
	sec := Section{Header: []string{"Tag", "Limit", "Spent", "Used %", "Remaining", "Projected", "Status"}}
	for _, st := range statuses {
		name := st.TagName
		if name == "" {
			name = st.Budget.TagID
		}
		sec.Rows = append(sec.Rows, []string{
			name, money(st.Budget.MonthlyLimit), money(st.CurrentSpend), pct(st.PercentUsed),
			money(st.Remaining), money(st.ProjectedEndOfMonth), string(st.State),
		})
	}
	counts := budget.CountByState(statuses)
	return Table{
		Title: "Budgets " + period,
		Meta: [][2]string{
			{"On Track", strconv.Itoa(counts[budget.OnTrack])},
			{"Warning", strconv.Itoa(counts[budget.Warning])},
			{"Exceeded", strconv.Itoa(counts[budget.Exceeded])},
		},
		Sections: []Section{sec},
	}
}

// LimitsTable lists spending limit statuses.
func LimitsTable(statuses []limits.Status) Table {
	sec := Section{Header: []string{"ID", "Type", "Target", "Limit", "Spent", "Used %", "Remaining", "Active", "Exceeded"}}
	for _, st := range statuses {
		sec.Rows = append(sec.Rows, []string{
			st.Limit.ID, string(st.Limit.Type), st.Limit.TargetID, money(st.Limit.Limit), money(st.CurrentSpend),
			pct(st.PercentUsed), money(st.Remaining), strconv.FormatBool(st.Limit.IsActive), strconv.FormatBool(st.Exceeded),
		})
	}
	return Table{Title: "Spending Limits", Sections: []Section{sec}}
}

// GoalsTable lists savings goal progress.
func GoalsTable(progress []goals.Progress) Table {
	sec := Section{Header: []string{"ID", "Goal", "Target", "Saved", "Done %", "Months Left", "Needed / Month", "Saving / Month", "On Track"}}
	for _, p := range progress {
		sec.Rows = append(sec.Rows, []string{
			p.Goal.ID, p.Goal.Name, money(p.Goal.TargetAmount), money(p.CurrentAmount), pct(p.PercentComplete),
			strconv.Itoa(p.MonthsRemaining), money(p.RequiredMonthlySavings), money(p.AverageMonthlySavings),
			strconv.FormatBool(p.OnTrack),
		})
	}
	return Table{Title: "Savings Goals", Sections: []Section{sec}}
}

// WhatIfTable summarizes a goal projection at a given savings rate.
func WhatIfTable(g model.SavingsGoal, p goals.Projection) Table {
	completion := "never"
	if p.Reachable {
		completion = p.ProjectedCompletion.Format(dateLayout)
	}
	return Table{
		Title: "What If: " + g.Name,
		Meta: [][2]string{
			{"Savings Rate %", pct(p.SavingsRate)},
			{"Average Monthly Income", money(p.AverageMonthlyIncome)},
			{"Monthly Savings", money(p.MonthlySavings)},
			{"Remaining", money(p.Remaining)},
			{"Months To Goal", strconv.Itoa(p.MonthsToGoal)},
			{"Projected Completion", completion},
			{"Deadline", g.Deadline.Format(dateLayout)},
		},
	}
}

// BreachesTable lists the limits a candidate transaction would exceed.
func BreachesTable(breaches []limits.Breach) Table {
	sec := Section{Header: []string{"ID", "Type", "Target", "Limit", "Spent", "Projected", "Overage"}}
	for _, b := range breaches {
		sec.Rows = append(sec.Rows, []string{
			b.Limit.ID, string(b.Limit.Type), b.Limit.TargetID, money(b.Limit.Limit),
			money(b.CurrentSpend), money(b.ProjectedSpend), money(b.Overage),
		})
	}
	return Table{Title: "Limit Breaches", Sections: []Section{sec}}
}
