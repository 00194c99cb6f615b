package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Severity ranks forecast warnings.
type Severity string

// Warning severities.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Warning types.
const (
	WarningOverdraft      = "overdraft"
	WarningLowBalance     = "low_balance"
	WarningLowBalanceRisk = "low_balance_risk"
	WarningBalanceDip     = "balance_dip"
)

// Warning is a human-readable alert attached to a forecast.
type Warning struct {
	Date     time.Time `json:"date"`
	Severity Severity  `json:"severity"`
	Type     string    `json:"type"`
	Message  string    `json:"message"`
}

// Interval brackets the uncertainty of a predicted balance.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Forecast is a projected balance at the end of a period.
type Forecast struct {
	GeneratedAt        time.Time         `json:"generatedAt"`
	PeriodEnd          time.Time         `json:"periodEnd"`
	Upcoming           []ExpectedPayment `json:"upcoming"`
	Assumptions        []string          `json:"assumptions"`
	Warnings           []Warning         `json:"warnings"`
	ConfidenceInterval Interval          `json:"confidenceInterval"`
	CurrentBalance     float64           `json:"currentBalance"`
	DailyInflow        float64           `json:"dailyInflow"`
	DailyOutflow       float64           `json:"dailyOutflow"`
	TrendAmount        float64           `json:"trendAmount"`
	RecurringTotal     float64           `json:"recurringTotal"`
	PredictedBalance   float64           `json:"predictedBalance"`
	DaysAhead          int               `json:"daysAhead"`
}

// Balance projects the account balance from now up to periodEnd (exclusive).
// The projection is the latest known balance, plus the non-recurring daily
// run rate for each remaining day, minus every recurring payment expected in
// the window.
func Balance(txns []model.Transaction, now, periodEnd time.Time, opts Options) Forecast {
	opts = opts.withDefaults()
	return BalanceWith(txns, DetectRecurring(txns, opts.MinOccurrences), now, periodEnd, opts)
}

// MonthEnd projects the balance at the end of now's calendar month.
func MonthEnd(txns []model.Transaction, now time.Time, opts Options) Forecast {
	return Balance(txns, now, ledger.MonthStart(now).AddDate(0, 1, 0), opts)
}

// BalanceWith is Balance with a precomputed recurring payment list, letting
// callers share one detection pass between the forecaster and the projector.
func BalanceWith(txns []model.Transaction, recurring []RecurringPayment, now, periodEnd time.Time, opts Options) Forecast {
	opts = opts.withDefaults()
	start := horizonStart(now)
	if periodEnd.Before(start) {
		periodEnd = start
	}

	base := newBaseline(txns, recurring, now, opts.TrendDays)
	upcoming := expectedPayments(recurring, now, start, periodEnd)

	f := Forecast{
		GeneratedAt:  now,
		PeriodEnd:    periodEnd,
		Upcoming:     upcoming,
		DailyInflow:  base.dailyInflow,
		DailyOutflow: base.dailyOutflow,
		DaysAhead:    ledger.DaysBetween(start, periodEnd),
	}

	current, hasBalance := ledger.LatestBalance(txns)
	f.CurrentBalance = current
	f.TrendAmount = base.dailyNet() * float64(f.DaysAhead)
	f.RecurringTotal = sumPayments(upcoming)
	f.PredictedBalance = f.CurrentBalance + f.TrendAmount - f.RecurringTotal

	margin := opts.ConfidenceMargin * math.Abs(f.TrendAmount)
	f.ConfidenceInterval = Interval{
		Low:  f.PredictedBalance - margin,
		High: f.PredictedBalance + margin,
	}

	f.Assumptions = assumptions(txns, hasBalance, base, upcoming, opts)
	f.Warnings = warnings(f, base, start, opts.LowBalanceThreshold)
	return f
}

func assumptions(txns []model.Transaction, hasBalance bool, base baseline, upcoming []ExpectedPayment, opts Options) []string {
	var out []string
	if hasBalance {
		latest := ledger.SortByDate(txns)[len(txns)-1]
		out = append(out, fmt.Sprintf("Starting balance %.2f taken from the most recent transaction on %s",
			latest.Balance, latest.Date.Format("2006-01-02")))
	} else {
		out = append(out, "No transactions available; starting balance assumed to be 0")
	}

	out = append(out, fmt.Sprintf("Trend of %.2f/day (income %.2f/day, non-recurring spending %.2f/day) averaged over the last %d days",
		base.dailyNet(), base.dailyInflow, base.dailyOutflow, base.days))

	if len(upcoming) == 0 {
		out = append(out, "No recurring payments expected before period end")
	}
	for _, p := range upcoming {
		out = append(out, fmt.Sprintf("Recurring %s payment to %s of %.2f expected on %s",
			p.Frequency, p.Merchant, p.Amount, p.Date.Format("2006-01-02")))
	}

	out = append(out, fmt.Sprintf("Confidence interval is ±%.0f%% of the trend term", opts.ConfidenceMargin*100))
	return out
}

// warnings flags the forecast against the low-balance threshold. The
// day-by-day simulation catches dips that recover before period end.
func warnings(f Forecast, base baseline, start time.Time, threshold float64) []Warning {
	var out []Warning

	switch {
	case f.PredictedBalance < 0:
		out = append(out, Warning{
			Date:     f.PeriodEnd,
			Severity: SeverityCritical,
			Type:     WarningOverdraft,
			Message:  fmt.Sprintf("Balance is projected to go negative (%.2f) by %s", f.PredictedBalance, f.PeriodEnd.Format("2006-01-02")),
		})
	case f.PredictedBalance < threshold:
		out = append(out, Warning{
			Date:     f.PeriodEnd,
			Severity: SeverityWarning,
			Type:     WarningLowBalance,
			Message:  fmt.Sprintf("Projected balance %.2f is below the %.2f threshold", f.PredictedBalance, threshold),
		})
	case f.ConfidenceInterval.Low < threshold:
		out = append(out, Warning{
			Date:     f.PeriodEnd,
			Severity: SeverityInfo,
			Type:     WarningLowBalanceRisk,
			Message:  fmt.Sprintf("Balance could fall to %.2f, below the %.2f threshold", f.ConfidenceInterval.Low, threshold),
		})
	}

	if f.PredictedBalance >= threshold {
		if dip, bal, ok := firstDip(f, base, start, threshold); ok {
			sev := SeverityWarning
			if bal < 0 {
				sev = SeverityCritical
			}
			out = append(out, Warning{
				Date:     dip,
				Severity: sev,
				Type:     WarningBalanceDip,
				Message:  fmt.Sprintf("Balance may dip to %.2f on %s before recovering", bal, dip.Format("2006-01-02")),
			})
		}
	}
	return out
}

func firstDip(f Forecast, base baseline, start time.Time, threshold float64) (time.Time, float64, bool) {
	bal := f.CurrentBalance
	next := 0
	for d := start; d.Before(f.PeriodEnd); d = d.AddDate(0, 0, 1) {
		bal += base.dailyNet()
		end := d.AddDate(0, 0, 1)
		for next < len(f.Upcoming) && f.Upcoming[next].Date.Before(end) {
			bal -= f.Upcoming[next].Amount
			next++
		}
		if bal < threshold {
			return d, bal, true
		}
	}
	return time.Time{}, 0, false
}
