package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func at(m time.Month, d int) time.Time {
	y := 2024
	if m > time.June {
		y = 2023
	}
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func debit(date time.Time, amount float64, details string, balance float64) model.Transaction {
	return model.Transaction{Date: date, Type: model.TypeDebit, Amount: amount, Debit: amount, Details: details, Balance: balance}
}

func credit(date time.Time, amount float64, details string, balance float64) model.Transaction {
	return model.Transaction{Date: date, Type: model.TypeCredit, Amount: amount, Credit: amount, Details: details, Balance: balance}
}

// fixture has a 10-day trend window of +50/day, a latest balance of 50500
// and a monthly 499 Netflix payment next due on March 20.
func fixture() []model.Transaction {
	return []model.Transaction{
		debit(at(time.March, 14), 500, "CAFE latte", 50500),
		debit(at(time.December, 20), 499, "NETFLIX.COM", 0),
		credit(at(time.March, 6), 2000, "SALARY march", 52000),
		debit(at(time.January, 20), 499, "NETFLIX.COM", 0),
		debit(at(time.March, 10), 1000, "GROCER weekly", 51000),
		debit(at(time.February, 20), 499, "NETFLIX.COM", 0),
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.TrendDays = 10
	return opts
}

func TestDetectRecurring(t *testing.T) {
	txns := []model.Transaction{
		debit(at(time.November, 28), 499, "NETFLIX.COM", 0),
		debit(at(time.December, 28), 499, "NETFLIX.COM", 0),
		debit(at(time.January, 28), 649, "NETFLIX.COM", 0),
		debit(at(time.February, 28), 499, "NETFLIX.COM", 0),
		debit(at(time.December, 5), 30000, "RENT/landlord", 0),
		debit(at(time.January, 5), 30000, "RENT/landlord", 0),
		debit(at(time.February, 5), 31000, "RENT/landlord", 0),
		debit(at(time.March, 5), 31000, "RENT/landlord", 0),
		// irregular
		debit(at(time.January, 2), 300, "COFFEE shop", 0),
		debit(at(time.January, 3), 300, "COFFEE shop", 0),
		debit(at(time.March, 1), 300, "COFFEE shop", 0),
		// weekly pattern needs four sightings
		debit(at(time.March, 1), 800, "GYM class", 0),
		debit(at(time.March, 8), 800, "GYM class", 0),
		debit(at(time.March, 15), 800, "GYM class", 0),
		// credits never count
		credit(at(time.January, 1), 100000, "SALARY", 0),
		credit(at(time.February, 1), 100000, "SALARY", 0),
		credit(at(time.March, 1), 100000, "SALARY", 0),
	}

	recurring := DetectRecurring(txns, 3)

	require.Len(t, recurring, 2)

	netflix := recurring[0]
	assert.Equal(t, "netflix.com", netflix.Merchant)
	assert.Equal(t, Monthly, netflix.Frequency)
	assert.Equal(t, 499.0, netflix.Amount, "median resists one-off price changes")
	assert.Equal(t, 4, netflix.Occurrences)
	assert.Equal(t, at(time.March, 28), netflix.NextExpected)

	rent := recurring[1]
	assert.Equal(t, "rent", rent.Merchant)
	assert.Equal(t, 30500.0, rent.Amount)
	assert.Equal(t, time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC), rent.NextExpected)
	assert.Greater(t, rent.Confidence, 0.9)
}

func TestRecurringPayment_OccurrencesBetween(t *testing.T) {
	rp := RecurringPayment{
		Frequency:    Monthly,
		IntervalDays: 30,
		LastDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	dates := rp.OccurrencesBetween(
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	)

	assert.Equal(t, []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}, dates)

	weekly := RecurringPayment{Frequency: Weekly, IntervalDays: 7, LastDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	assert.Len(t, weekly.OccurrencesBetween(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)), 4)
}

func TestRecurringPayment_Active(t *testing.T) {
	rp := RecurringPayment{IntervalDays: 30, LastDate: now.AddDate(0, 0, -45)}
	assert.True(t, rp.Active(now))

	rp.LastDate = now.AddDate(0, 0, -61)
	assert.False(t, rp.Active(now))
}

func TestMonthEnd_Projection(t *testing.T) {
	f := MonthEnd(fixture(), now, testOptions())

	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), f.PeriodEnd)
	assert.Equal(t, 16, f.DaysAhead)
	assert.InDelta(t, 50500, f.CurrentBalance, 0.001)
	assert.InDelta(t, 200, f.DailyInflow, 0.001)
	assert.InDelta(t, 150, f.DailyOutflow, 0.001)
	assert.InDelta(t, 800, f.TrendAmount, 0.001)
	assert.InDelta(t, 499, f.RecurringTotal, 0.001)
	assert.InDelta(t, 50801, f.PredictedBalance, 0.001)
	assert.InDelta(t, 50641, f.ConfidenceInterval.Low, 0.001)
	assert.InDelta(t, 50961, f.ConfidenceInterval.High, 0.001)

	require.Len(t, f.Upcoming, 1)
	assert.Equal(t, "netflix.com", f.Upcoming[0].Merchant)
	assert.Equal(t, at(time.March, 20), f.Upcoming[0].Date)

	assert.Empty(t, f.Warnings)
	assert.Contains(t, f.Assumptions[0], "50500.00")
	assert.Contains(t, f.Assumptions[2], "netflix.com")
}

func TestBalance_Warnings(t *testing.T) {
	tests := []struct {
		name      string
		txns      []model.Transaction
		threshold float64
		want      []Warning
	}{
		{
			name:      "below threshold at period end",
			txns:      fixture(),
			threshold: 51000,
			want:      []Warning{{Severity: SeverityWarning, Type: WarningLowBalance}},
		},
		{
			name:      "only the low bound is below threshold",
			txns:      fixture(),
			threshold: 50700,
			want: []Warning{
				{Severity: SeverityInfo, Type: WarningLowBalanceRisk},
				{Severity: SeverityWarning, Type: WarningBalanceDip, Date: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:      "recurring payment causes an interim dip",
			txns:      fixture(),
			threshold: 50300,
			want: []Warning{
				{Severity: SeverityWarning, Type: WarningBalanceDip, Date: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:      "negative prediction is critical",
			txns:      []model.Transaction{debit(at(time.March, 6), 2000, "SHOP", 1000)},
			threshold: 10000,
			want:      []Warning{{Severity: SeverityCritical, Type: WarningOverdraft}},
		},
		{
			name:      "comfortable balance has no warnings",
			txns:      fixture(),
			threshold: 10000,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.LowBalanceThreshold = tt.threshold

			f := MonthEnd(tt.txns, now, opts)

			require.Len(t, f.Warnings, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.Severity, f.Warnings[i].Severity)
				assert.Equal(t, w.Type, f.Warnings[i].Type)
				assert.NotEmpty(t, f.Warnings[i].Message)
				if !w.Date.IsZero() {
					assert.Equal(t, w.Date, f.Warnings[i].Date)
				}
			}
		})
	}
}

func TestBalance_EmptyLedger(t *testing.T) {
	f := MonthEnd(nil, now, DefaultOptions())

	assert.Equal(t, 0.0, f.PredictedBalance)
	assert.Equal(t, 0.0, f.TrendAmount)
	assert.Contains(t, f.Assumptions[0], "No transactions")
	require.Len(t, f.Warnings, 1)
	assert.Equal(t, WarningLowBalance, f.Warnings[0].Type)
}

func TestCashFlow_DefaultHorizon(t *testing.T) {
	proj := ProjectCashFlow(fixture(), now, 0, testOptions())

	assert.Equal(t, DefaultHorizonDays, proj.HorizonDays)
	require.Len(t, proj.Periods, 4)
	assert.Equal(t, []string{"2024-03", "2024-04", "2024-05", "2024-06"},
		[]string{proj.Periods[0].Label, proj.Periods[1].Label, proj.Periods[2].Label, proj.Periods[3].Label})

	days := 0
	for _, p := range proj.Periods {
		days += p.Days
		assert.InDelta(t, p.ExpectedInflow-p.ExpectedOutflow, p.NetFlow, 0.001)
	}
	assert.Equal(t, 90, days)

	assert.Len(t, proj.Periods[0].RecurringPayments, 1)
	assert.Len(t, proj.Periods[1].RecurringPayments, 1)
	assert.Len(t, proj.Periods[2].RecurringPayments, 1)
	assert.Empty(t, proj.Periods[3].RecurringPayments, "June 20 falls after the horizon")

	// April: 30 days of baseline outflow plus one Netflix payment.
	assert.InDelta(t, 30*200.0, proj.Periods[1].ExpectedInflow, 0.001)
	assert.InDelta(t, 30*150.0+499, proj.Periods[1].ExpectedOutflow, 0.001)
}

func TestCashFlow_ConsistentWithForecast(t *testing.T) {
	txns := fixture()
	opts := testOptions()
	recurring := DetectRecurring(txns, opts.MinOccurrences)

	f := BalanceWith(txns, recurring, now, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), opts)
	proj := CashFlow(txns, recurring, now, f.DaysAhead, opts)

	assert.InDelta(t, f.PredictedBalance-f.CurrentBalance, proj.NetFlow, 0.001)
}

func TestBalance_QuietStartOfWindow(t *testing.T) {
	txns := []model.Transaction{
		credit(now.AddDate(0, 0, -200), 5000, "OPENING deposit", 5000),
		credit(now.AddDate(0, 0, -29), 90000, "SALARY", 95000),
	}
	opts := DefaultOptions()
	opts.TrendDays = 90

	f := MonthEnd(txns, now, opts)

	assert.InDelta(t, 1000, f.DailyInflow, 0.001)
	assert.InDelta(t, 0, f.DailyOutflow, 0.001)
	assert.InDelta(t, 16*1000.0, f.TrendAmount, 0.001)
}

func TestBalance_ShortLedger(t *testing.T) {
	txns := []model.Transaction{
		credit(now.AddDate(0, 0, -29), 90000, "SALARY", 90000),
	}
	opts := DefaultOptions()
	opts.TrendDays = 90

	f := MonthEnd(txns, now, opts)

	assert.InDelta(t, 3000, f.DailyInflow, 0.001)
}
