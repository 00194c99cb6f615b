package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/spice-dashboard/internal/model"
)

func TestValidateContext(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, validateContext(context.Background()))
	assert.NoError(t, validateContext(canceled))
	//nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateTransaction(t *testing.T) {
	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		txn     *model.Transaction
		name    string
		wantErr bool
	}{
		{name: "debit", txn: &model.Transaction{Date: when, Details: "CAFE", Debit: 10}},
		{name: "credit by type", txn: &model.Transaction{Date: when, Details: "PAY", Type: model.TypeCredit, Amount: 10}},
		{name: "nil", txn: nil, wantErr: true},
		{name: "missing date", txn: &model.Transaction{Details: "CAFE", Debit: 10}, wantErr: true},
		{name: "blank details", txn: &model.Transaction{Date: when, Details: "  ", Debit: 10}, wantErr: true},
		{name: "negative debit", txn: &model.Transaction{Date: when, Details: "CAFE", Debit: -1, Type: model.TypeDebit}, wantErr: true},
		{name: "no direction", txn: &model.Transaction{Date: when, Details: "CAFE"}, wantErr: true},
		{name: "comma in tag", txn: &model.Transaction{Date: when, Details: "CAFE", Debit: 1, TagIDs: []string{"a,b"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransaction(tt.txn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
