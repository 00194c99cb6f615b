package report

import (
	"sort"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/budget"
	"github.com/Veraticus/spice-dashboard/internal/health"
	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/merchant"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Monthly builds the report for a calendar month. Calendar boundaries use
// now's location. Tags referenced by transactions or budgets that are missing
// from the catalog get an empty label and are listed in UnmatchedTagIDs.
func (g *Generator) Monthly(snap *model.Snapshot, year int, month time.Month, now time.Time) (*MonthlyReport, error) {
	idx := ledger.NewIndex(snap.Transactions, now.Location())
	return g.monthly(snap, idx, year, month, now)
}

func (g *Generator) monthly(snap *model.Snapshot, idx *ledger.Index, year int, month time.Month, now time.Time) (*MonthlyReport, error) {
	period, err := monthPeriod(year, month, idx.Location())
	if err != nil {
		return nil, err
	}

	txns := idx.Month(year, month)
	tags := newTagLabeler(snap)

	r := &MonthlyReport{
		GeneratedAt:        now,
		Period:             period,
		Summary:            summarize(txns),
		Balance:            balanceMetrics(txns),
		CashFlow:           ledger.Aggregate(txns, ledger.Monthly, idx.Location()),
		SpendingByTag:      spendingByTag(txns, tags),
		SpendingByMerchant: spendingByMerchant(txns),
	}

	// ForPeriod matches periods verbatim, so malformed periods never reach
	// EvaluateAll here.
	statuses, _ := budget.EvaluateAll(budget.ForPeriod(snap.Budgets, year, month), txns, snap.TagNames(), now)
	for i := range statuses {
		tags.label(statuses[i].Budget.TagID)
	}
	r.BudgetPerformance = statuses

	if g.Scorer != nil {
		score := g.Scorer.Score(health.Input{
			Budgets:        statuses,
			DailySpending:  dailySpending(txns, period, now),
			TotalIncome:    r.Summary.TotalIncome,
			TotalExpenses:  r.Summary.TotalExpenses,
			AverageBalance: r.Balance.Average,
		})
		r.HealthScore = &score
	}

	if g.Detector != nil {
		history := ledger.Filter(idx.All(), period.Start.AddDate(0, 0, -health.LookbackDays), period.Start)
		r.Anomalies = g.Detector.Detect(txns, history)
	}

	r.Recommendations = monthlyRecommendations(r)
	r.UnmatchedTagIDs = tags.unmatched()
	return r, nil
}

// balanceMetrics reads the running balance of each transaction in date order.
func balanceMetrics(txns []model.Transaction) BalanceMetrics {
	if len(txns) == 0 {
		return BalanceMetrics{}
	}
	sorted := ledger.SortByDate(txns)
	m := BalanceMetrics{
		Current: sorted[len(sorted)-1].Balance,
		Highest: sorted[0].Balance,
		Lowest:  sorted[0].Balance,
	}
	var sum float64
	for i := range sorted {
		b := sorted[i].Balance
		sum += b
		m.Highest = max(m.Highest, b)
		m.Lowest = min(m.Lowest, b)
	}
	m.Average = sum / float64(len(sorted))
	return m
}

// spendingByTag attributes each debit to every tag it carries, so the
// breakdown can total more than the month's expenses.
func spendingByTag(txns []model.Transaction, tags *tagLabeler) ledger.Breakdown {
	acc := ledger.NewAccumulator()
	for i := range txns {
		txn := &txns[i]
		if !txn.IsDebit() {
			continue
		}
		if len(txn.TagIDs) == 0 {
			acc.Add(UntaggedKey, txn.DebitAmount())
			continue
		}
		for _, id := range txn.TagIDs {
			acc.Add(id, txn.DebitAmount())
		}
	}
	return acc.Breakdown(tags.label)
}

func spendingByMerchant(txns []model.Transaction) ledger.Breakdown {
	acc := ledger.NewAccumulator()
	for i := range txns {
		txn := &txns[i]
		if !txn.IsDebit() {
			continue
		}
		name := merchant.Extract(txn.Details)
		if name == merchant.Unknown {
			name = OtherMerchant
		}
		acc.Add(name, txn.DebitAmount())
	}
	return acc.Breakdown(nil)
}

// dailySpending returns the debit total of each elapsed day of the period.
func dailySpending(txns []model.Transaction, period Period, now time.Time) []float64 {
	end := period.End
	if now.Before(end) {
		end = ledger.DayStart(now).AddDate(0, 0, 1)
	}
	days := ledger.DaysBetween(period.Start, end)
	if days <= 0 {
		return nil
	}
	out := make([]float64, days)
	for i := range txns {
		day := ledger.DaysBetween(period.Start, txns[i].Date)
		if day >= 0 && day < days {
			out[day] += txns[i].DebitAmount()
		}
	}
	return out
}

// tagLabeler resolves tag ids to display names and remembers the ids the
// catalog does not know.
type tagLabeler struct {
	names   map[string]string
	missing map[string]bool
}

func newTagLabeler(snap *model.Snapshot) *tagLabeler {
	return &tagLabeler{names: snap.TagNames(), missing: make(map[string]bool)}
}

func (t *tagLabeler) label(id string) string {
	if id == UntaggedKey {
		return "Untagged"
	}
	name, ok := t.names[id]
	if !ok {
		t.missing[id] = true
	}
	return name
}

func (t *tagLabeler) unmatched() []string {
	if len(t.missing) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.missing))
	for id := range t.missing {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
