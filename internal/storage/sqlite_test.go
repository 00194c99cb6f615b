package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func debit(d time.Time, amount, balance float64, details string, tags ...string) model.Transaction {
	return model.Transaction{Date: d, Debit: amount, Balance: balance, Details: details, TagIDs: tags, AccountID: "acc1"}
}

func credit(d time.Time, amount, balance float64, details string) model.Transaction {
	return model.Transaction{Date: d, Credit: amount, Balance: balance, Details: details, AccountID: "acc1"}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))

	_, err = NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSaveTransactions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "food", Name: "Food"}))

	batch := []model.Transaction{
		credit(date(2024, 3, 1), 50000, 60000, "SALARY acme"),
		debit(date(2024, 3, 5), 4200, 55800, "GROCER weekly", "food"),
	}

	n, err := store.SaveTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("duplicates are skipped by hash", func(t *testing.T) {
		n, err := store.SaveTransactions(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("derived fields are stored", func(t *testing.T) {
		txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, txns, 2)

		salary, grocer := txns[0], txns[1]
		assert.Equal(t, model.TypeCredit, salary.Type)
		assert.Equal(t, 50000.0, salary.Amount)
		assert.NotEmpty(t, salary.ID)
		assert.NotEmpty(t, salary.Hash)
		assert.True(t, salary.Date.Equal(date(2024, 3, 1)))

		assert.Equal(t, model.TypeDebit, grocer.Type)
		assert.Equal(t, 4200.0, grocer.Debit)
		assert.Equal(t, 55800.0, grocer.Balance)
		assert.Equal(t, []string{"food"}, grocer.TagIDs)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := store.SaveTransactions(ctx, nil)
		assert.ErrorIs(t, err, ErrNilParameter)

		_, err = store.SaveTransactions(ctx, []model.Transaction{{Date: date(2024, 3, 1), Details: "X"}})
		assert.ErrorIs(t, err, ErrInvalidTransaction)

		both := debit(date(2024, 3, 1), 10, 0, "X")
		both.Credit = 5
		_, err = store.SaveTransactions(ctx, []model.Transaction{both})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})
}

func TestGetTransactions_Filter(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "subs", Name: "Subscriptions"}))

	_, err := store.SaveTransactions(ctx, []model.Transaction{
		debit(date(2024, 1, 20), 499, 9000, "NETFLIX.COM", "subs"),
		debit(date(2024, 2, 20), 499, 8000, "NETFLIX.COM", "subs"),
		debit(date(2024, 3, 20), 499, 7000, "NETFLIX.COM", "subs"),
		credit(date(2024, 3, 1), 1000, 7499, "REFUND"),
	})
	require.NoError(t, err)

	start, end := date(2024, 2, 1), date(2024, 3, 21)
	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   int
	}{
		{name: "all", filter: service.TransactionFilter{}, want: 4},
		{name: "date range", filter: service.TransactionFilter{StartDate: &start, EndDate: &end}, want: 3},
		{name: "tag", filter: service.TransactionFilter{TagID: "subs"}, want: 3},
		{name: "limit and offset", filter: service.TransactionFilter{Limit: 2, Offset: 1}, want: 2},
		{name: "offset only", filter: service.TransactionFilter{Offset: 3}, want: 1},
		{name: "other account", filter: service.TransactionFilter{AccountID: "acc2"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.GetTransactions(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, txns, tt.want)
			for i := 1; i < len(txns); i++ {
				assert.False(t, txns[i].Date.Before(txns[i-1].Date), "transactions must be in date order")
			}
		})
	}

	_, err = store.GetTransactions(ctx, service.TransactionFilter{StartDate: &end, EndDate: &start})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestTransactionTags(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "food", Name: "Food"}))
	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "treats", Name: "Treats"}))

	_, err := store.SaveTransactions(ctx, []model.Transaction{debit(date(2024, 3, 5), 300, 700, "CAFE", "food")})
	require.NoError(t, err)
	txns, err := store.GetTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	id := txns[0].ID

	require.NoError(t, store.AddTransactionTag(ctx, id, "treats"))
	require.NoError(t, store.AddTransactionTag(ctx, id, "treats"))

	got, err := store.GetTransactionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "treats"}, got.TagIDs)

	require.NoError(t, store.RemoveTransactionTag(ctx, id, "food"))
	got, err = store.GetTransactionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"treats"}, got.TagIDs)

	assert.ErrorIs(t, store.AddTransactionTag(ctx, id, "ghost"), common.ErrNotFound)
	assert.ErrorIs(t, store.AddTransactionTag(ctx, "missing", "food"), common.ErrNotFound)
	assert.ErrorIs(t, store.RemoveTransactionTag(ctx, id, "food"), common.ErrNotFound)

	_, err = store.GetTransactionByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTags(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	rent := &model.Tag{Name: " Rent "}
	require.NoError(t, store.SaveTag(ctx, rent))
	assert.NotEmpty(t, rent.ID)
	assert.Equal(t, "Rent", rent.Name)

	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "food", Name: "Food", Color: "#0f0"}))
	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "food", Name: "Groceries", Color: "#0f0"}))

	err := store.SaveTag(ctx, &model.Tag{ID: "dup", Name: "Rent"})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	assert.ErrorIs(t, store.SaveTag(ctx, &model.Tag{ID: "a,b", Name: "Comma"}), ErrInvalidTag)
	assert.ErrorIs(t, store.SaveTag(ctx, &model.Tag{Name: ""}), ErrInvalidTag)

	tags, err := store.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Groceries", tags[0].Name)
	assert.Equal(t, "Rent", tags[1].Name)
}

func TestBudgets(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	b := &model.Budget{TagID: "food", Period: "2024-03", MonthlyLimit: 5000}
	require.NoError(t, store.SaveBudget(ctx, b))
	firstID := b.ID

	t.Run("same tag and period updates in place", func(t *testing.T) {
		again := &model.Budget{TagID: "food", Period: "2024-03", MonthlyLimit: 6000}
		require.NoError(t, store.SaveBudget(ctx, again))
		assert.Equal(t, firstID, again.ID)

		budgets, err := store.GetBudgets(ctx)
		require.NoError(t, err)
		require.Len(t, budgets, 1)
		assert.Equal(t, 6000.0, budgets[0].MonthlyLimit)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			budget *model.Budget
		}{
			{name: "malformed period", budget: &model.Budget{TagID: "food", Period: "2024-3", MonthlyLimit: 1}},
			{name: "month out of range", budget: &model.Budget{TagID: "food", Period: "2024-13", MonthlyLimit: 1}},
			{name: "zero limit", budget: &model.Budget{TagID: "food", Period: "2024-04"}},
			{name: "missing tag", budget: &model.Budget{Period: "2024-04", MonthlyLimit: 1}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, store.SaveBudget(ctx, tt.budget), ErrInvalidBudget)
			})
		}
	})

	require.NoError(t, store.DeleteBudget(ctx, firstID))
	assert.ErrorIs(t, store.DeleteBudget(ctx, firstID), common.ErrNotFound)
}

func TestSpendingLimits(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	daily := &model.SpendingLimit{Type: model.LimitDaily, Limit: 2000, IsActive: true}
	merchant := &model.SpendingLimit{Type: model.LimitMerchant, TargetID: "swiggy", Limit: 3000, IsActive: true}
	require.NoError(t, store.SaveSpendingLimit(ctx, daily))
	require.NoError(t, store.SaveSpendingLimit(ctx, merchant))

	require.NoError(t, store.SetSpendingLimitActive(ctx, daily.ID, false))
	assert.ErrorIs(t, store.SetSpendingLimitActive(ctx, "missing", true), common.ErrNotFound)

	limits, err := store.GetSpendingLimits(ctx)
	require.NoError(t, err)
	require.Len(t, limits, 2)
	assert.Equal(t, model.LimitDaily, limits[0].Type)
	assert.False(t, limits[0].IsActive)
	assert.Equal(t, "swiggy", limits[1].TargetID)
	assert.True(t, limits[1].IsActive)

	assert.ErrorIs(t, store.SaveSpendingLimit(ctx, &model.SpendingLimit{Type: "weekly", Limit: 1}), ErrInvalidLimit)
	assert.ErrorIs(t, store.SaveSpendingLimit(ctx, &model.SpendingLimit{Type: model.LimitCategory, Limit: 1}), ErrInvalidLimit)
	assert.ErrorIs(t, store.SaveSpendingLimit(ctx, &model.SpendingLimit{Type: model.LimitMonthly, Limit: -5}), ErrInvalidLimit)

	require.NoError(t, store.DeleteSpendingLimit(ctx, merchant.ID))
	assert.ErrorIs(t, store.DeleteSpendingLimit(ctx, merchant.ID), common.ErrNotFound)
}

func TestSavingsGoals(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	car := &model.SavingsGoal{Name: "Car", TargetAmount: 500000, Deadline: date(2026, 1, 1), CreatedAt: date(2024, 1, 1)}
	trip := &model.SavingsGoal{Name: "Trip", TargetAmount: 80000, Deadline: time.Now().AddDate(10, 0, 0)}
	require.NoError(t, store.SaveSavingsGoal(ctx, car))
	require.NoError(t, store.SaveSavingsGoal(ctx, trip))
	assert.False(t, trip.CreatedAt.IsZero())

	goals, err := store.GetSavingsGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Car", goals[0].Name)
	assert.Equal(t, "Trip", goals[1].Name)

	got, err := store.GetSavingsGoal(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, 500000.0, got.TargetAmount)
	assert.True(t, got.CreatedAt.Equal(date(2024, 1, 1)))

	_, err = store.GetSavingsGoal(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	bad := &model.SavingsGoal{Name: "Late", TargetAmount: 1, Deadline: date(2023, 1, 1), CreatedAt: date(2024, 1, 1)}
	assert.ErrorIs(t, store.SaveSavingsGoal(ctx, bad), ErrInvalidGoal)

	require.NoError(t, store.DeleteSavingsGoal(ctx, car.ID))
	assert.ErrorIs(t, store.DeleteSavingsGoal(ctx, car.ID), common.ErrNotFound)
}

func TestSnapshot(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTag(ctx, &model.Tag{ID: "food", Name: "Food"}))
	require.NoError(t, store.SaveBudget(ctx, &model.Budget{TagID: "food", Period: "2024-03", MonthlyLimit: 5000}))
	require.NoError(t, store.SaveSpendingLimit(ctx, &model.SpendingLimit{Type: model.LimitMonthly, Limit: 40000}))
	require.NoError(t, store.SaveSavingsGoal(ctx, &model.SavingsGoal{Name: "Fund", TargetAmount: 1000, Deadline: time.Now().AddDate(5, 0, 0)}))
	_, err := store.SaveTransactions(ctx, []model.Transaction{debit(date(2024, 3, 5), 4200, 55800, "GROCER", "food")})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Transactions, 1)
	assert.Len(t, snap.Tags, 1)
	assert.Len(t, snap.Budgets, 1)
	assert.Len(t, snap.Limits, 1)
	assert.Len(t, snap.Goals, 1)
	name, ok := snap.TagName("food")
	assert.True(t, ok)
	assert.Equal(t, "Food", name)
}
