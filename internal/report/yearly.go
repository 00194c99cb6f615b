package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Yearly builds the report for a calendar year from its monthly reports.
// Months without income or expenses are left out of the totals and averages.
// YearOverYear is only set when the prior year has transactions.
func (g *Generator) Yearly(snap *model.Snapshot, year int, now time.Time) (*YearlyReport, error) {
	idx := ledger.NewIndex(snap.Transactions, now.Location())
	start, end := ledger.YearRange(year, idx.Location())

	investTags := g.investmentTags(snap.Tags)
	tags := newTagLabeler(snap)

	r := &YearlyReport{
		GeneratedAt: now,
		Period:      Period{Start: start, End: end, Label: strconv.Itoa(year), Year: year},
		Investment:  InvestmentSummary{TagIDs: investTags},
		Months:      []MonthSummary{},
	}

	var income, expenses float64
	var count int
	for m := time.January; m <= time.December; m++ {
		monthly, err := g.monthly(snap, idx, year, m, now)
		if err != nil {
			return nil, err
		}
		if !monthly.Summary.HasData() {
			continue
		}

		invested := investedAmount(idx.Month(year, m), investTags)
		r.Months = append(r.Months, MonthSummary{
			Period:   monthly.Period,
			Summary:  monthly.Summary,
			Invested: invested,
		})

		income += monthly.Summary.TotalIncome
		expenses += monthly.Summary.TotalExpenses
		count += monthly.Summary.TransactionCount
		r.Investment.TotalInvested += invested
		if invested > 0 {
			r.Investment.MonthsWithInvesting++
		}
	}

	r.Summary = newSummary(income, expenses, count)
	if n := len(r.Months); n > 0 {
		r.AverageMonthlySavings = r.Summary.NetSavings / float64(n)
		r.Investment.SIPConsistency = float64(r.Investment.MonthsWithInvesting) / float64(n) * 100
	}

	txns := idx.Year(year)
	r.TopCategories = spendingByTag(txns, tags).Top(g.topN())
	r.TopMerchants = spendingByMerchant(txns).Top(g.topN())
	r.UnmatchedTagIDs = tags.unmatched()

	if prior := idx.Year(year - 1); len(prior) > 0 {
		r.YearOverYear = yearOverYear(year-1, summarize(prior), r.Summary)
	}
	return r, nil
}

func yearOverYear(priorYear int, prior, current Summary) *YearOverYear {
	return &YearOverYear{
		PriorYear:     priorYear,
		PriorIncome:   prior.TotalIncome,
		PriorExpenses: prior.TotalExpenses,
		PriorSavings:  prior.NetSavings,
		IncomeChange:  percentChange(current.TotalIncome, prior.TotalIncome),
		ExpenseChange: percentChange(current.TotalExpenses, prior.TotalExpenses),
		SavingsChange: percentChange(current.NetSavings, prior.NetSavings),
	}
}

// investmentTags returns the ids of tags whose name contains an investment
// keyword, case-insensitively.
func (g *Generator) investmentTags(tags []model.Tag) []string {
	keywords := g.InvestmentKeywords
	if len(keywords) == 0 {
		keywords = DefaultInvestmentKeywords
	}
	ids := []string{}
	for _, tag := range tags {
		name := strings.ToLower(tag.Name)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				ids = append(ids, tag.ID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// investedAmount sums debits carrying any investment tag, counting each
// debit once.
func investedAmount(txns []model.Transaction, investTags []string) float64 {
	var total float64
	for i := range txns {
		txn := &txns[i]
		if !txn.IsDebit() {
			continue
		}
		for _, id := range investTags {
			if txn.HasTag(id) {
				total += txn.DebitAmount()
				break
			}
		}
	}
	return total
}
