package limits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

var now = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func debit(date time.Time, amount float64, details string, tags ...string) model.Transaction {
	return model.Transaction{
		Date:    date,
		Type:    model.TypeDebit,
		Amount:  amount,
		Debit:   amount,
		Details: details,
		TagIDs:  tags,
	}
}

func credit(date time.Time, amount float64) model.Transaction {
	return model.Transaction{Date: date, Type: model.TypeCredit, Amount: amount, Credit: amount}
}

func ledgerFixture() []model.Transaction {
	return []model.Transaction{
		debit(now.Add(-2*time.Hour), 500, "SWIGGY order", "food"),
		debit(now.Add(-6*time.Hour), 450, "AMAZON/retail", "shopping"),
		debit(now.AddDate(0, 0, -1), 300, "SWIGGY order", "food"),
		debit(now.AddDate(0, 0, -10), 2000, "RENT march", "housing", "food"),
		debit(now.AddDate(0, -1, 0), 9999, "SWIGGY order", "food"), // previous month
		credit(now.Add(-1*time.Hour), 50000),
	}
}

func TestEvaluate_Windows(t *testing.T) {
	txns := ledgerFixture()

	tests := []struct {
		name      string
		limit     model.SpendingLimit
		wantSpend float64
		wantCount int
	}{
		{
			name:      "daily counts only today's debits",
			limit:     model.SpendingLimit{Type: model.LimitDaily, Limit: 1000, TargetID: "ignored"},
			wantSpend: 950,
			wantCount: 2,
		},
		{
			name:      "monthly counts the calendar month",
			limit:     model.SpendingLimit{Type: model.LimitMonthly, Limit: 5000},
			wantSpend: 3250,
			wantCount: 4,
		},
		{
			name:      "category filters by tag",
			limit:     model.SpendingLimit{Type: model.LimitCategory, TargetID: "food", Limit: 4000},
			wantSpend: 2800,
			wantCount: 3,
		},
		{
			name:      "merchant filters by first token",
			limit:     model.SpendingLimit{Type: model.LimitMerchant, TargetID: "swiggy", Limit: 1000},
			wantSpend: 800,
			wantCount: 2,
		},
		{
			name:      "merchant matches slash-delimited narration",
			limit:     model.SpendingLimit{Type: model.LimitMerchant, TargetID: "amazon", Limit: 1000},
			wantSpend: 450,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Evaluate(tt.limit, txns, now)
			assert.InDelta(t, tt.wantSpend, st.CurrentSpend, 0.001)
			assert.Equal(t, tt.wantCount, st.TransactionCount)
			assert.InDelta(t, tt.limit.Limit-tt.wantSpend, st.Remaining, 0.001)
			assert.InDelta(t, tt.wantSpend/tt.limit.Limit*100, st.PercentUsed, 0.001)
		})
	}
}

func TestEvaluate_ZeroLimitReportsZeroPercent(t *testing.T) {
	st := Evaluate(model.SpendingLimit{Type: model.LimitMonthly, Limit: 0}, ledgerFixture(), now)

	assert.Equal(t, 0.0, st.PercentUsed)
	assert.InDelta(t, -3250, st.Remaining, 0.001)
	assert.True(t, st.Exceeded)
}

func TestEvaluate_NegativeRemainingSignalsOverage(t *testing.T) {
	st := Evaluate(model.SpendingLimit{Type: model.LimitDaily, Limit: 900}, ledgerFixture(), now)

	assert.InDelta(t, -50, st.Remaining, 0.001)
	assert.True(t, st.Exceeded)
	assert.Greater(t, st.PercentUsed, 100.0)
}

func TestEvaluateAll_PreservesOrderAndIncludesInactive(t *testing.T) {
	limits := []model.SpendingLimit{
		{ID: "a", Type: model.LimitMonthly, Limit: 5000, IsActive: false},
		{ID: "b", Type: model.LimitDaily, Limit: 1000, IsActive: true},
	}

	statuses := EvaluateAll(limits, ledgerFixture(), now)

	require.Len(t, statuses, 2)
	assert.Equal(t, "a", statuses[0].Limit.ID)
	assert.Equal(t, "b", statuses[1].Limit.ID)
}

func TestCheckTransaction(t *testing.T) {
	txns := ledgerFixture()
	incoming := debit(now, 100, "CAFE coffee", "food")

	t.Run("daily limit breached", func(t *testing.T) {
		limits := []model.SpendingLimit{{ID: "d", Type: model.LimitDaily, Limit: 1000, IsActive: true}}

		breaches := CheckTransaction(limits, txns, incoming, now)

		require.Len(t, breaches, 1)
		assert.InDelta(t, 950, breaches[0].CurrentSpend, 0.001)
		assert.InDelta(t, 1050, breaches[0].ProjectedSpend, 0.001)
		assert.InDelta(t, 50, breaches[0].Overage, 0.001)
	})

	t.Run("exactly reaching the limit is not a breach", func(t *testing.T) {
		limits := []model.SpendingLimit{{Type: model.LimitDaily, Limit: 1050, IsActive: true}}
		assert.Empty(t, CheckTransaction(limits, txns, incoming, now))
	})

	t.Run("inactive limits are ignored", func(t *testing.T) {
		limits := []model.SpendingLimit{{Type: model.LimitDaily, Limit: 1000, IsActive: false}}
		assert.Empty(t, CheckTransaction(limits, txns, incoming, now))
	})

	t.Run("credits never breach", func(t *testing.T) {
		limits := []model.SpendingLimit{{Type: model.LimitDaily, Limit: 1, IsActive: true}}
		assert.Empty(t, CheckTransaction(limits, txns, credit(now, 5000), now))
	})

	t.Run("out of scope limits are ignored", func(t *testing.T) {
		limits := []model.SpendingLimit{
			{Type: model.LimitCategory, TargetID: "shopping", Limit: 1, IsActive: true},
			{Type: model.LimitMerchant, TargetID: "swiggy", Limit: 1, IsActive: true},
		}
		assert.Empty(t, CheckTransaction(limits, txns, incoming, now))
	})

	t.Run("overlapping category limits are evaluated independently", func(t *testing.T) {
		multi := debit(now, 100, "RENT deposit", "food", "housing")
		limits := []model.SpendingLimit{
			{ID: "food", Type: model.LimitCategory, TargetID: "food", Limit: 2850, IsActive: true},
			{ID: "housing", Type: model.LimitCategory, TargetID: "housing", Limit: 2050, IsActive: true},
		}

		breaches := CheckTransaction(limits, txns, multi, now)

		require.Len(t, breaches, 2)
		assert.Equal(t, "food", breaches[0].Limit.ID)
		assert.Equal(t, "housing", breaches[1].Limit.ID)
	})
}

func TestCheckTransaction_ExactlyAtLimit(t *testing.T) {
	daily := model.SpendingLimit{ID: "d", Type: model.LimitDaily, Limit: 0.3, IsActive: true}
	txns := []model.Transaction{debit(now.Add(-time.Hour), 0.1, "KIOSK")}

	breaches := CheckTransaction([]model.SpendingLimit{daily}, txns, debit(now, 0.2, "KIOSK"), now)
	assert.Empty(t, breaches)

	breaches = CheckTransaction([]model.SpendingLimit{daily}, txns, debit(now, 0.21, "KIOSK"), now)
	require.Len(t, breaches, 1)
	assert.Equal(t, 0.31, breaches[0].ProjectedSpend)
	assert.Equal(t, 0.01, breaches[0].Overage)
}

func TestEvaluate_SpendEqualToLimitIsNotExceeded(t *testing.T) {
	daily := model.SpendingLimit{Type: model.LimitDaily, Limit: 0.3}
	txns := []model.Transaction{
		debit(now.Add(-time.Hour), 0.1, "KIOSK"),
		debit(now.Add(-2*time.Hour), 0.2, "KIOSK"),
	}

	st := Evaluate(daily, txns, now)

	assert.False(t, st.Exceeded)
	assert.Equal(t, 0.3, st.CurrentSpend)
	assert.Equal(t, 100.0, st.PercentUsed)
	assert.Equal(t, 0.0, st.Remaining)
}
