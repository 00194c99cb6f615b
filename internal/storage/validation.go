// Package storage provides the data persistence layer for the dashboard.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidTag         = errors.New("invalid tag")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrInvalidLimit       = errors.New("invalid spending limit")
	ErrInvalidGoal        = errors.New("invalid savings goal")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Details) == "" {
		return fmt.Errorf("%w: missing details", ErrInvalidTransaction)
	}
	if txn.Debit < 0 || txn.Credit < 0 {
		return fmt.Errorf("%w: debit and credit cannot be negative", ErrInvalidTransaction)
	}
	if txn.Debit > 0 && txn.Credit > 0 {
		return fmt.Errorf("%w: debit and credit are mutually exclusive", ErrInvalidTransaction)
	}
	if !txn.IsDebit() && !txn.IsCredit() {
		return fmt.Errorf("%w: neither debit nor credit", ErrInvalidTransaction)
	}
	for _, id := range txn.TagIDs {
		if err := validateTagID(id); err != nil {
			return err
		}
	}
	return nil
}

func validateTagID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTag)
	}
	if strings.Contains(id, ",") {
		return fmt.Errorf("%w: id %q contains a comma", ErrInvalidTag, id)
	}
	return nil
}

// validateTag validates a tag.
func validateTag(tag *model.Tag) error {
	if tag == nil {
		return fmt.Errorf("%w: tag", ErrNilParameter)
	}
	if tag.ID != "" {
		if err := validateTagID(tag.ID); err != nil {
			return err
		}
	}
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTag)
	}
	return nil
}

// validateBudget validates a budget.
func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if strings.TrimSpace(budget.TagID) == "" {
		return fmt.Errorf("%w: missing tag", ErrInvalidBudget)
	}
	if _, err := model.ParsePeriod(budget.Period, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	if budget.MonthlyLimit <= 0 {
		return fmt.Errorf("%w: monthly limit must be positive", ErrInvalidBudget)
	}
	return nil
}

// validateSpendingLimit validates a spending limit.
func validateSpendingLimit(limit *model.SpendingLimit) error {
	if limit == nil {
		return fmt.Errorf("%w: spending limit", ErrNilParameter)
	}
	if !limit.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidLimit, limit.Type)
	}
	if limit.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidLimit)
	}
	switch limit.Type {
	case model.LimitCategory, model.LimitMerchant:
		if strings.TrimSpace(limit.TargetID) == "" {
			return fmt.Errorf("%w: %s limits need a target", ErrInvalidLimit, limit.Type)
		}
	}
	return nil
}

// validateSavingsGoal validates a savings goal.
func validateSavingsGoal(goal *model.SavingsGoal) error {
	if goal == nil {
		return fmt.Errorf("%w: savings goal", ErrNilParameter)
	}
	if strings.TrimSpace(goal.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidGoal)
	}
	if goal.TargetAmount <= 0 {
		return fmt.Errorf("%w: target amount must be positive", ErrInvalidGoal)
	}
	if goal.Deadline.IsZero() {
		return fmt.Errorf("%w: missing deadline", ErrInvalidGoal)
	}
	if !goal.CreatedAt.IsZero() && !goal.Deadline.After(goal.CreatedAt) {
		return fmt.Errorf("%w: deadline must be after creation", ErrInvalidGoal)
	}
	return nil
}
