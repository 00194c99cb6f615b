package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-dashboard/internal/export"
)

func TestValues(t *testing.T) {
	table := export.Table{
		Title: "Monthly Report 2024-03",
		Meta:  [][2]string{{"Total Income", "50000.00"}, {"Total Expenses", "30000.00"}},
		Sections: []export.Section{{
			Title:  "Spending by Merchant",
			Header: []string{"Merchant", "Amount"},
			Rows:   [][]string{{"rent", "30000.00"}},
		}},
	}

	values := Values(table)

	require.Len(t, values, 7)
	assert.Equal(t, []any{"Monthly Report 2024-03"}, values[0])
	assert.Equal(t, []any{"Total Income", "50000.00"}, values[1])
	assert.Empty(t, values[3])
	assert.Equal(t, []any{"Spending by Merchant"}, values[4])
	assert.Equal(t, []any{"Merchant", "Amount"}, values[5])
	assert.Equal(t, []any{"rent", "30000.00"}, values[6])
}

func TestNewWriter_InvalidConfig(t *testing.T) {
	_, err := NewWriter(context.Background(), Config{BatchSize: 10}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestMockWriter(t *testing.T) {
	var w TableWriter = NewMockWriter()
	require.NoError(t, w.Write(context.Background(), export.Table{Title: "a"}))

	mock := w.(*MockWriter)
	mock.WriteFunc = func(context.Context, export.Table) error { return errors.New("quota") }
	assert.Error(t, w.Write(context.Background(), export.Table{Title: "b"}))

	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, "b", mock.Tables[1].Title)
}
