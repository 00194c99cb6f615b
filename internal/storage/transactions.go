package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/service"
)

const transactionColumns = `t.id, t.hash, t.date, t.details, t.type, t.amount, t.debit, t.credit,
	t.balance, t.account_id, t.payment_method, t.notes, COALESCE(GROUP_CONCAT(tt.tag_id), '')`

// SaveTransactions saves multiple transactions to the database and returns how
// many were new. Transactions whose hash is already stored are skipped.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := s.saveTransactionsTx(ctx, tx, transactions)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	slog.Debug("saved transactions",
		"received", len(transactions),
		"inserted", inserted,
		"duplicates", len(transactions)-inserted)
	return inserted, nil
}

func (s *SQLiteStorage) saveTransactionsTx(ctx context.Context, tx *sql.Tx, transactions []model.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, hash, date, details, type, amount, debit, credit,
			balance, account_id, payment_method, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare tag statement: %w", err)
	}
	defer func() { _ = tagStmt.Close() }()

	inserted := 0
	for _, txn := range transactions {
		normalizeTransaction(&txn)

		res, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.Hash,
			txn.Date.UTC(),
			strings.TrimSpace(txn.Details),
			string(txn.Type),
			txn.Amount,
			txn.Debit,
			txn.Credit,
			txn.Balance,
			txn.AccountID,
			txn.PaymentMethod,
			txn.Notes,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			continue
		}
		inserted++

		for _, tagID := range txn.TagIDs {
			if _, err := tagStmt.ExecContext(ctx, txn.ID, tagID); err != nil {
				return 0, fmt.Errorf("failed to tag transaction %s: %w", txn.ID, err)
			}
		}
	}

	return inserted, nil
}

// normalizeTransaction fills the derived fields of a transaction before it is stored.
func normalizeTransaction(txn *model.Transaction) {
	if txn.Type == "" {
		if txn.Debit > 0 {
			txn.Type = model.TypeDebit
		} else {
			txn.Type = model.TypeCredit
		}
	}
	switch txn.Type {
	case model.TypeDebit:
		if txn.Debit == 0 {
			txn.Debit = txn.DebitAmount()
		}
		txn.Amount = txn.Debit
	case model.TypeCredit:
		if txn.Credit == 0 {
			txn.Credit = txn.CreditAmount()
		}
		txn.Amount = txn.Credit
	}
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
}

// GetTransactions retrieves transactions matching the filter in date order.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}
	return s.getTransactionsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN transaction_tags tt ON tt.transaction_id = t.id
		WHERE 1=1`
	args := []any{}

	if filter.StartDate != nil {
		query += " AND t.date >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query += " AND t.date < ?"
		args = append(args, filter.EndDate.UTC())
	}
	if filter.AccountID != "" {
		query += " AND t.account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.TagID != "" {
		query += " AND EXISTS (SELECT 1 FROM transaction_tags x WHERE x.transaction_id = t.id AND x.tag_id = ?)"
		args = append(args, filter.TagID)
	}

	query += " GROUP BY t.id ORDER BY t.date ASC, t.rowid ASC"

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (model.Transaction, error) {
	var txn model.Transaction
	var txType, tags string
	err := row.Scan(
		&txn.ID,
		&txn.Hash,
		&txn.Date,
		&txn.Details,
		&txType,
		&txn.Amount,
		&txn.Debit,
		&txn.Credit,
		&txn.Balance,
		&txn.AccountID,
		&txn.PaymentMethod,
		&txn.Notes,
		&tags,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.Type = model.TransactionType(txType)
	if tags != "" {
		txn.TagIDs = strings.Split(tags, ",")
		sort.Strings(txn.TagIDs)
	}
	return txn, nil
}

// GetTransactionByID retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN transaction_tags tt ON tt.transaction_id = t.id
		WHERE t.id = ?
		GROUP BY t.id`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %q: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return &txn, nil
}

// AddTransactionTag attaches a catalog tag to a stored transaction.
func (s *SQLiteStorage) AddTransactionTag(ctx context.Context, transactionID, tagID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}
	if err := validateTagID(tagID); err != nil {
		return err
	}

	if err := s.mustExist(ctx, "transactions", transactionID); err != nil {
		return err
	}
	if err := s.mustExist(ctx, "tags", tagID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
		transactionID, tagID); err != nil {
		return fmt.Errorf("failed to tag transaction: %w", err)
	}
	return nil
}

// RemoveTransactionTag detaches a tag from a transaction.
func (s *SQLiteStorage) RemoveTransactionTag(ctx context.Context, transactionID, tagID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`,
		transactionID, tagID)
	if err != nil {
		return fmt.Errorf("failed to untag transaction: %w", err)
	}
	return requireAffected(res, "transaction tag", transactionID+"/"+tagID)
}

func (s *SQLiteStorage) mustExist(ctx context.Context, table, id string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = ?)", id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up %s: %w", table, err)
	}
	if !exists {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(table, "s"), id, common.ErrNotFound)
	}
	return nil
}
