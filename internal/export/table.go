// Package export turns reports into flat tables and writes them as CSV or
// JSON, optionally age-encrypted.
package export

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/report"
)

// Section is one titled block of rows under a shared header.
type Section struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Table is a report flattened into a key/value header block followed by
// tabular sections. Every exporter renders the same Table.
type Table struct {
	Title    string      `json:"title"`
	Meta     [][2]string `json:"meta"`
	Sections []Section   `json:"sections"`
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func summaryMeta(s report.Summary) [][2]string {
	return [][2]string{
		{"Total Income", money(s.TotalIncome)},
		{"Total Expenses", money(s.TotalExpenses)},
		{"Net Savings", money(s.NetSavings)},
		{"Savings Rate %", pct(s.SavingsRate)},
		{"Transactions", strconv.Itoa(s.TransactionCount)},
	}
}

func breakdownSection(title, keyHeader string, b ledger.Breakdown) Section {
	sec := Section{Title: title, Header: []string{keyHeader, "Label", "Amount", "Count"}}
	for _, e := range b {
		sec.Rows = append(sec.Rows, []string{e.Key, e.Label, money(e.Amount), strconv.Itoa(e.Count)})
	}
	return sec
}

// MonthlyTable flattens a monthly report.
func MonthlyTable(r *report.MonthlyReport) Table {
	t := Table{
		Title: "Monthly Report " + r.Period.Label,
		Meta:  summaryMeta(r.Summary),
	}
	t.Meta = append(t.Meta,
		[2]string{"Current Balance", money(r.Balance.Current)},
		[2]string{"Highest Balance", money(r.Balance.Highest)},
		[2]string{"Lowest Balance", money(r.Balance.Lowest)},
		[2]string{"Average Balance", money(r.Balance.Average)},
	)
	if r.HealthScore != nil {
		t.Meta = append(t.Meta, [2]string{"Health Score", fmt.Sprintf("%.1f (%s)", r.HealthScore.Overall, r.HealthScore.Grade)})
	}

	cash := Section{Title: "Cash Flow", Header: []string{"Period", "Inflow", "Outflow", "Net", "Surplus Days", "Deficit Days"}}
	for _, b := range r.CashFlow {
		cash.Rows = append(cash.Rows, []string{
			b.Key, money(b.TotalInflow), money(b.TotalOutflow), money(b.NetCashFlow),
			strconv.Itoa(b.SurplusDays), strconv.Itoa(b.DeficitDays),
		})
	}

	budgets := Section{Title: "Budget Performance", Header: []string{"Tag", "Limit", "Spent", "Used %", "Remaining", "Status"}}
	for _, st := range r.BudgetPerformance {
		name := st.TagName
		if name == "" {
			name = st.Budget.TagID
		}
		budgets.Rows = append(budgets.Rows, []string{
			name, money(st.Budget.MonthlyLimit), money(st.CurrentSpend),
			pct(st.PercentUsed), money(st.Remaining), string(st.State),
		})
	}

	anomalies := Section{Title: "Anomalies", Header: []string{"Date", "Merchant", "Amount", "Expected", "Severity", "Type"}}
	for _, a := range r.Anomalies {
		anomalies.Rows = append(anomalies.Rows, []string{
			a.Date.Format("2006-01-02"), a.Merchant, money(a.Amount), money(a.Expected), a.Severity, a.Type,
		})
	}

	recs := Section{Title: "Recommendations", Header: []string{"Recommendation"}}
	for _, rec := range r.Recommendations {
		recs.Rows = append(recs.Rows, []string{rec})
	}

	t.Sections = []Section{
		cash,
		breakdownSection("Spending by Tag", "Tag", r.SpendingByTag),
		breakdownSection("Spending by Merchant", "Merchant", r.SpendingByMerchant),
		budgets,
		anomalies,
		recs,
	}
	return t
}

// YearlyTable flattens a yearly report.
func YearlyTable(r *report.YearlyReport) Table {
	t := Table{
		Title: "Yearly Report " + r.Period.Label,
		Meta:  summaryMeta(r.Summary),
	}
	t.Meta = append(t.Meta,
		[2]string{"Average Monthly Savings", money(r.AverageMonthlySavings)},
		[2]string{"Total Invested", money(r.Investment.TotalInvested)},
		[2]string{"SIP Consistency %", pct(r.Investment.SIPConsistency)},
	)
	if yoy := r.YearOverYear; yoy != nil {
		t.Meta = append(t.Meta,
			[2]string{"Income Change % vs " + strconv.Itoa(yoy.PriorYear), pct(yoy.IncomeChange)},
			[2]string{"Expense Change % vs " + strconv.Itoa(yoy.PriorYear), pct(yoy.ExpenseChange)},
			[2]string{"Savings Change % vs " + strconv.Itoa(yoy.PriorYear), pct(yoy.SavingsChange)},
		)
	}

	months := Section{Title: "Months", Header: []string{"Month", "Income", "Expenses", "Net Savings", "Savings Rate %", "Invested"}}
	for _, m := range r.Months {
		months.Rows = append(months.Rows, []string{
			m.Period.Label, money(m.Summary.TotalIncome), money(m.Summary.TotalExpenses),
			money(m.Summary.NetSavings), pct(m.Summary.SavingsRate), money(m.Invested),
		})
	}

	t.Sections = []Section{
		months,
		breakdownSection("Top Categories", "Tag", r.TopCategories),
		breakdownSection("Top Merchants", "Merchant", r.TopMerchants),
	}
	return t
}
