package model

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TransactionType indicates the direction of money for a transaction.
type TransactionType string

const (
	// TypeDebit is money leaving the account.
	TypeDebit TransactionType = "debit"
	// TypeCredit is money entering the account.
	TypeCredit TransactionType = "credit"
)

// Transaction represents a single bank-statement line.
// Debit and Credit are mutually exclusive; the unused side is zero.
type Transaction struct {
	Date          time.Time       `json:"date"`
	ID            string          `json:"id"`
	Details       string          `json:"details"` // Raw narration, used for merchant extraction
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	AccountID     string          `json:"accountId,omitempty"`
	Hash          string          `json:"hash,omitempty"`
	Type          TransactionType `json:"type"`
	TagIDs        []string        `json:"tagIds,omitempty"`
	Amount        float64         `json:"amount"`
	Debit         float64         `json:"debit,omitempty"`
	Credit        float64         `json:"credit,omitempty"`
	Balance       float64         `json:"balance"` // Running account balance after this transaction
}

// IsDebit reports whether the transaction moved money out of the account.
func (t *Transaction) IsDebit() bool {
	if t.Type != "" {
		return t.Type == TypeDebit
	}
	return t.Debit > 0
}

// IsCredit reports whether the transaction moved money into the account.
func (t *Transaction) IsCredit() bool {
	if t.Type != "" {
		return t.Type == TypeCredit
	}
	return t.Credit > 0
}

// DebitAmount returns the outflow carried by the transaction, or zero for credits.
func (t *Transaction) DebitAmount() float64 {
	if !t.IsDebit() {
		return 0
	}
	if t.Debit > 0 {
		return t.Debit
	}
	return abs(t.Amount)
}

// CreditAmount returns the inflow carried by the transaction, or zero for debits.
func (t *Transaction) CreditAmount() float64 {
	if !t.IsCredit() {
		return 0
	}
	if t.Credit > 0 {
		return t.Credit
	}
	return abs(t.Amount)
}

// HasTag reports whether the transaction is tagged with id.
func (t *Transaction) HasTag(id string) bool {
	return slices.Contains(t.TagIDs, id)
}

// GenerateHash creates a unique hash for duplicate detection.
// Tags are not part of the hash.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Type,
		t.DebitAmount(),
		t.CreditAmount(),
		strings.TrimSpace(t.Details),
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
