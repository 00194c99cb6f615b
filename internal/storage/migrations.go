package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				hash TEXT UNIQUE NOT NULL,
				date DATETIME NOT NULL,
				details TEXT NOT NULL,
				type TEXT NOT NULL,
				amount REAL NOT NULL,
				debit REAL NOT NULL DEFAULT 0,
				credit REAL NOT NULL DEFAULT 0,
				balance REAL NOT NULL DEFAULT 0,
				account_id TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_transactions_date ON transactions(date)`,

			`CREATE TABLE IF NOT EXISTS tags (
				id TEXT PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				icon TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,

			`CREATE TABLE IF NOT EXISTS transaction_tags (
				transaction_id TEXT NOT NULL,
				tag_id TEXT NOT NULL,
				PRIMARY KEY (transaction_id, tag_id),
				FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX idx_transaction_tags_tag ON transaction_tags(tag_id)`,
		),
	},
	{
		Version:     2,
		Description: "Add budgets and spending limits",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS budgets (
				id TEXT PRIMARY KEY,
				tag_id TEXT NOT NULL,
				period TEXT NOT NULL,
				monthly_limit REAL NOT NULL,
				UNIQUE (tag_id, period)
			)`,
			`CREATE INDEX idx_budgets_period ON budgets(period)`,

			`CREATE TABLE IF NOT EXISTS spending_limits (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				target_id TEXT NOT NULL DEFAULT '',
				amount REAL NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		),
	},
	{
		Version:     3,
		Description: "Add savings goals",
		Up: execAll(
			`CREATE TABLE IF NOT EXISTS savings_goals (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				target_amount REAL NOT NULL,
				deadline DATETIME NOT NULL,
				created_at DATETIME NOT NULL
			)`,
		),
	},
	{
		Version:     4,
		Description: "Add payment method and notes to transactions",
		Up: execAll(
			`ALTER TABLE transactions ADD COLUMN payment_method TEXT NOT NULL DEFAULT ''`,
			`ALTER TABLE transactions ADD COLUMN notes TEXT NOT NULL DEFAULT ''`,
		),
	},
}

func execAll(queries ...string) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, query := range queries {
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to execute query '%s': %w", query, err)
			}
		}
		return nil
	}
}

// SchemaVersion returns the database's current user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
