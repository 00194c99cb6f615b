package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// SaveBudget stores a budget. Saving a second budget for the same tag and
// period updates the existing one, whose ID is written back to budget.
func (s *SQLiteStorage) SaveBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}
	if budget.ID == "" {
		budget.ID = uuid.NewString()
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO budgets (id, tag_id, period, monthly_limit) VALUES (?, ?, ?, ?)
		ON CONFLICT(tag_id, period) DO UPDATE SET monthly_limit = excluded.monthly_limit
		RETURNING id
	`, budget.ID, budget.TagID, budget.Period, budget.MonthlyLimit).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("budget %q: %w", budget.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to save budget: %w", err)
	}
	budget.ID = id
	return nil
}

// GetBudgets returns all budgets ordered by period and tag.
func (s *SQLiteStorage) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getBudgetsTx(ctx, s.db)
}

func (s *SQLiteStorage) getBudgetsTx(ctx context.Context, q queryable) ([]model.Budget, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, tag_id, period, monthly_limit
		FROM budgets
		ORDER BY period, tag_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	budgets := []model.Budget{}
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.ID, &b.TagID, &b.Period, &b.MonthlyLimit); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// DeleteBudget removes a budget by ID.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return requireAffected(res, "budget", id)
}
