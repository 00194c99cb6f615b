package testutil

import (
	"time"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

// Ledger builds a transaction history whose running balances are consistent
// with an opening balance. Entries must be added in date order.
type Ledger struct {
	txns    []model.Transaction
	balance float64
}

// NewLedger starts a ledger at the given opening balance.
func NewLedger(opening float64) *Ledger {
	return &Ledger{balance: opening}
}

// Credit appends an inflow.
func (l *Ledger) Credit(date time.Time, amount float64, details string, tags ...string) *Ledger {
	l.balance += amount
	l.txns = append(l.txns, model.Transaction{
		Date:    date,
		Details: details,
		Type:    model.TypeCredit,
		Credit:  amount,
		Amount:  amount,
		Balance: l.balance,
		TagIDs:  tags,
	})
	return l
}

// Debit appends an outflow.
func (l *Ledger) Debit(date time.Time, amount float64, details string, tags ...string) *Ledger {
	l.balance -= amount
	l.txns = append(l.txns, model.Transaction{
		Date:    date,
		Details: details,
		Type:    model.TypeDebit,
		Debit:   amount,
		Amount:  amount,
		Balance: l.balance,
		TagIDs:  tags,
	})
	return l
}

// Monthly appends the same entry on day of each month from start for n months.
// Positive amounts are credits, negative amounts debits.
func (l *Ledger) Monthly(start time.Time, n int, amount float64, details string, tags ...string) *Ledger {
	for i := 0; i < n; i++ {
		d := start.AddDate(0, i, 0)
		if amount >= 0 {
			l.Credit(d, amount, details, tags...)
		} else {
			l.Debit(d, -amount, details, tags...)
		}
	}
	return l
}

// Balance returns the running balance after the last entry.
func (l *Ledger) Balance() float64 {
	return l.balance
}

// Build returns a copy of the transactions added so far.
func (l *Ledger) Build() []model.Transaction {
	out := make([]model.Transaction, len(l.txns))
	copy(out, l.txns)
	return out
}
