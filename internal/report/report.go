// Package report composes monthly and yearly financial reports from a
// snapshot of the ledger and its budgets.
package report

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/budget"
	"github.com/Veraticus/spice-dashboard/internal/health"
	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// ErrInvalidMonth is returned for months outside 1-12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// Breakdown keys for spending that has no tag or no recognizable merchant.
const (
	UntaggedKey     = "untagged"
	OtherMerchant   = "other"
	defaultTopN     = 5
	healthThreshold = 60
)

// DefaultInvestmentKeywords identify investment tags by name.
var DefaultInvestmentKeywords = []string{"invest", "sip", "mutual fund", "stock", "etf", "retirement"}

// HealthScorer rates a month of finances.
type HealthScorer interface {
	Score(in health.Input) health.Score
}

// AnomalyDetector flags unusual debits in a month against prior history.
type AnomalyDetector interface {
	Detect(month, history []model.Transaction) []health.Anomaly
}

// Generator builds reports. Nil collaborators are skipped.
type Generator struct {
	Scorer             HealthScorer
	Detector           AnomalyDetector
	InvestmentKeywords []string
	TopN               int
}

// NewGenerator returns a generator wired with the stock health collaborators.
func NewGenerator() *Generator {
	return &Generator{
		Scorer:             health.NewScorer(),
		Detector:           health.NewDetector(),
		InvestmentKeywords: DefaultInvestmentKeywords,
		TopN:               defaultTopN,
	}
}

// Period identifies the calendar window a report covers.
type Period struct {
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Label string     `json:"label"`
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`
}

// Summary holds the headline totals of a report.
type Summary struct {
	TotalIncome      float64 `json:"totalIncome"`
	TotalExpenses    float64 `json:"totalExpenses"`
	NetSavings       float64 `json:"netSavings"`
	SavingsRate      float64 `json:"savingsRate"`
	TransactionCount int     `json:"transactionCount"`
}

// HasData reports whether the period saw any income or expenses.
func (s Summary) HasData() bool {
	return s.TotalIncome != 0 || s.TotalExpenses != 0
}

// BalanceMetrics describes the running balance within a period.
type BalanceMetrics struct {
	Current float64 `json:"currentBalance"`
	Highest float64 `json:"highestBalance"`
	Lowest  float64 `json:"lowestBalance"`
	Average float64 `json:"averageBalance"`
}

// MonthlyReport is the full analysis of one calendar month.
type MonthlyReport struct {
	GeneratedAt        time.Time        `json:"generatedAt"`
	Period             Period           `json:"period"`
	HealthScore        *health.Score    `json:"healthScore,omitempty"`
	CashFlow           []ledger.Bucket  `json:"cashFlow"`
	SpendingByTag      ledger.Breakdown `json:"spendingByTag"`
	SpendingByMerchant ledger.Breakdown `json:"spendingByMerchant"`
	BudgetPerformance  []budget.Status  `json:"budgetPerformance"`
	Anomalies          []health.Anomaly `json:"anomalies"`
	Recommendations    []string         `json:"recommendations"`
	UnmatchedTagIDs    []string         `json:"unmatchedTagIds,omitempty"`
	Balance            BalanceMetrics   `json:"balance"`
	Summary            Summary          `json:"summary"`
}

// MonthSummary is one included month of a yearly report.
type MonthSummary struct {
	Period   Period  `json:"period"`
	Summary  Summary `json:"summary"`
	Invested float64 `json:"invested"`
}

// InvestmentSummary totals debits tagged as investments.
type InvestmentSummary struct {
	TagIDs              []string `json:"tagIds"`
	TotalInvested       float64  `json:"totalInvested"`
	SIPConsistency      float64  `json:"sipConsistency"` // Percent of included months with an investment
	MonthsWithInvesting int      `json:"monthsWithInvesting"`
}

// YearOverYear compares a year's totals with the prior calendar year.
type YearOverYear struct {
	PriorYear     int     `json:"priorYear"`
	PriorIncome   float64 `json:"priorIncome"`
	PriorExpenses float64 `json:"priorExpenses"`
	PriorSavings  float64 `json:"priorSavings"`
	IncomeChange  float64 `json:"incomeChange"`
	ExpenseChange float64 `json:"expenseChange"`
	SavingsChange float64 `json:"savingsChange"`
}

// YearlyReport is the full analysis of one calendar year.
type YearlyReport struct {
	GeneratedAt           time.Time         `json:"generatedAt"`
	Period                Period            `json:"period"`
	YearOverYear          *YearOverYear     `json:"yearOverYear,omitempty"`
	Months                []MonthSummary    `json:"months"`
	TopCategories         ledger.Breakdown  `json:"topCategories"`
	TopMerchants          ledger.Breakdown  `json:"topMerchants"`
	UnmatchedTagIDs       []string          `json:"unmatchedTagIds,omitempty"`
	Investment            InvestmentSummary `json:"investment"`
	Summary               Summary           `json:"summary"`
	AverageMonthlySavings float64           `json:"averageMonthlySavings"`
}

func (g *Generator) topN() int {
	if g.TopN <= 0 {
		return defaultTopN
	}
	return g.TopN
}

func monthPeriod(year int, month time.Month, loc *time.Location) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	start, end := ledger.MonthRange(year, month, loc)
	return Period{Start: start, End: end, Label: ledger.MonthKey(start), Year: year, Month: month}, nil
}

func summarize(txns []model.Transaction) Summary {
	in, out := ledger.Totals(txns)
	return newSummary(in, out, len(txns))
}

func newSummary(income, expenses float64, count int) Summary {
	s := Summary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetSavings:       income - expenses,
		TransactionCount: count,
	}
	if income != 0 {
		s.SavingsRate = s.NetSavings * 100 / income
	}
	return s
}

// percentChange is the relative change from prior to current in percent,
// measured against |prior| so the sign follows the direction of change.
func percentChange(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior) * 100
}
