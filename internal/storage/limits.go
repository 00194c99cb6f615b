package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

// SaveSpendingLimit creates or updates a spending limit. A missing ID is generated.
func (s *SQLiteStorage) SaveSpendingLimit(ctx context.Context, limit *model.SpendingLimit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSpendingLimit(limit); err != nil {
		return err
	}
	if limit.ID == "" {
		limit.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spending_limits (id, type, target_id, amount, is_active) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			target_id = excluded.target_id,
			amount = excluded.amount,
			is_active = excluded.is_active
	`, limit.ID, string(limit.Type), limit.TargetID, limit.Limit, limit.IsActive)
	if err != nil {
		return fmt.Errorf("failed to save spending limit: %w", err)
	}

	slog.Debug("saved spending limit", "id", limit.ID, "type", limit.Type, "limit", limit.Limit)
	return nil
}

// GetSpendingLimits returns every limit, active or not, in creation order.
func (s *SQLiteStorage) GetSpendingLimits(ctx context.Context) ([]model.SpendingLimit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getSpendingLimitsTx(ctx, s.db)
}

func (s *SQLiteStorage) getSpendingLimitsTx(ctx context.Context, q queryable) ([]model.SpendingLimit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, type, target_id, amount, is_active
		FROM spending_limits
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending limits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	limits := []model.SpendingLimit{}
	for rows.Next() {
		var l model.SpendingLimit
		var limitType string
		if err := rows.Scan(&l.ID, &limitType, &l.TargetID, &l.Limit, &l.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan spending limit: %w", err)
		}
		l.Type = model.LimitType(limitType)
		limits = append(limits, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spending limits: %w", err)
	}
	return limits, nil
}

// SetSpendingLimitActive enables or disables a limit.
func (s *SQLiteStorage) SetSpendingLimitActive(ctx context.Context, id string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE spending_limits SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update spending limit: %w", err)
	}
	return requireAffected(res, "spending limit", id)
}

// DeleteSpendingLimit removes a limit by ID.
func (s *SQLiteStorage) DeleteSpendingLimit(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM spending_limits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete spending limit: %w", err)
	}
	return requireAffected(res, "spending limit", id)
}
