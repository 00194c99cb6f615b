// Package testutil provides test utilities for the dashboard: an isolated
// in-memory database and a fluent builder for ledgers with running balances.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/service"
	"github.com/Veraticus/spice-dashboard/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with snap.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, &model.Snapshot{
//		Tags:         []model.Tag{{ID: "food", Name: "Food"}},
//		Transactions: testutil.NewLedger(0).Credit(day, 5000, "SALARY").Build(),
//	})
func SetupTestDB(t *testing.T, snap *model.Snapshot) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, t: t}
	if snap != nil {
		db.Seed(ctx, snap)
	}
	return db
}

// Seed writes every record of snap to the database or fails the test.
func (db *TestDB) Seed(ctx context.Context, snap *model.Snapshot) {
	db.t.Helper()

	for i := range snap.Tags {
		if err := db.Storage.SaveTag(ctx, &snap.Tags[i]); err != nil {
			db.t.Fatalf("failed to seed tag %q: %v", snap.Tags[i].Name, err)
		}
	}
	if len(snap.Transactions) > 0 {
		if _, err := db.Storage.SaveTransactions(ctx, snap.Transactions); err != nil {
			db.t.Fatalf("failed to seed transactions: %v", err)
		}
	}
	for i := range snap.Budgets {
		if err := db.Storage.SaveBudget(ctx, &snap.Budgets[i]); err != nil {
			db.t.Fatalf("failed to seed budget %q: %v", snap.Budgets[i].ID, err)
		}
	}
	for i := range snap.Limits {
		if err := db.Storage.SaveSpendingLimit(ctx, &snap.Limits[i]); err != nil {
			db.t.Fatalf("failed to seed spending limit %q: %v", snap.Limits[i].ID, err)
		}
	}
	for i := range snap.Goals {
		if err := db.Storage.SaveSavingsGoal(ctx, &snap.Goals[i]); err != nil {
			db.t.Fatalf("failed to seed savings goal %q: %v", snap.Goals[i].Name, err)
		}
	}
}

// MustSnapshot loads the current snapshot or fails the test.
func (db *TestDB) MustSnapshot() *model.Snapshot {
	db.t.Helper()
	snap, err := db.Storage.Snapshot(context.Background())
	if err != nil {
		db.t.Fatalf("failed to load snapshot: %v", err)
	}
	return snap
}
