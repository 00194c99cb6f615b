// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// StartDate is inclusive and EndDate exclusive.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	TagID     string
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	AddTransactionTag(ctx context.Context, transactionID, tagID string) error
	RemoveTransactionTag(ctx context.Context, transactionID, tagID string) error

	// Tag operations
	SaveTag(ctx context.Context, tag *model.Tag) error
	GetTags(ctx context.Context) ([]model.Tag, error)

	// Budget operations
	SaveBudget(ctx context.Context, budget *model.Budget) error
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	DeleteBudget(ctx context.Context, id string) error

	// Spending limit operations
	SaveSpendingLimit(ctx context.Context, limit *model.SpendingLimit) error
	GetSpendingLimits(ctx context.Context) ([]model.SpendingLimit, error)
	SetSpendingLimitActive(ctx context.Context, id string, active bool) error
	DeleteSpendingLimit(ctx context.Context, id string) error

	// Savings goal operations
	SaveSavingsGoal(ctx context.Context, goal *model.SavingsGoal) error
	GetSavingsGoals(ctx context.Context) ([]model.SavingsGoal, error)
	GetSavingsGoal(ctx context.Context, id string) (*model.SavingsGoal, error)
	DeleteSavingsGoal(ctx context.Context, id string) error

	// Snapshot loads every record the analytics need in one consistent read.
	Snapshot(ctx context.Context) (*model.Snapshot, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// SnapshotSource supplies fresh snapshots to read-only consumers.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}
