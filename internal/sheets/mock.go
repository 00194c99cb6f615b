package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-dashboard/internal/export"
)

// MockWriter records tables instead of sending them to Google.
type MockWriter struct {
	WriteFunc func(ctx context.Context, table export.Table) error
	Tables    []export.Table
	mu        sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write records table and returns WriteFunc's result.
func (m *MockWriter) Write(ctx context.Context, table export.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tables = append(m.Tables, table)
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, table)
	}
	return nil
}

// Calls returns the number of recorded writes.
func (m *MockWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tables)
}
