package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/model"
)

// SaveSavingsGoal creates or updates a savings goal. CreatedAt defaults to now.
func (s *SQLiteStorage) SaveSavingsGoal(ctx context.Context, goal *model.SavingsGoal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if goal != nil && goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now()
	}
	if err := validateSavingsGoal(goal); err != nil {
		return err
	}
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, name, target_amount, deadline, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target_amount = excluded.target_amount,
			deadline = excluded.deadline
	`, goal.ID, goal.Name, goal.TargetAmount, goal.Deadline.UTC(), goal.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save savings goal: %w", err)
	}
	return nil
}

// GetSavingsGoals returns all goals ordered by deadline.
func (s *SQLiteStorage) GetSavingsGoals(ctx context.Context) ([]model.SavingsGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getSavingsGoalsTx(ctx, s.db)
}

func (s *SQLiteStorage) getSavingsGoalsTx(ctx context.Context, q queryable) ([]model.SavingsGoal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, target_amount, deadline, created_at
		FROM savings_goals
		ORDER BY deadline, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query savings goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	goals := []model.SavingsGoal{}
	for rows.Next() {
		var g model.SavingsGoal
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.Deadline, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating savings goals: %w", err)
	}
	return goals, nil
}

// GetSavingsGoal retrieves a goal by ID.
func (s *SQLiteStorage) GetSavingsGoal(ctx context.Context, id string) (*model.SavingsGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var g model.SavingsGoal
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, target_amount, deadline, created_at
		FROM savings_goals
		WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.TargetAmount, &g.Deadline, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("savings goal %q: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get savings goal: %w", err)
	}
	return &g, nil
}

// DeleteSavingsGoal removes a goal by ID.
func (s *SQLiteStorage) DeleteSavingsGoal(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete savings goal: %w", err)
	}
	return requireAffected(res, "savings goal", id)
}
