package testutils

import (
	"context"

	"github.com/amategeko/gazette/pkg/history"
)

// MockHistoryStore is an in-memory history store
type MockHistoryStore struct {
	Exchanges []history.Exchange

	// RecordErr is returned from Record when set
	RecordErr error
}

func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{}
}

func (m *MockHistoryStore) Record(_ context.Context, ex history.Exchange) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Exchanges = append(m.Exchanges, ex)
	return nil
}

func (m *MockHistoryStore) List(_ context.Context) ([]history.Exchange, error) {
	// newest first
	out := make([]history.Exchange, 0, len(m.Exchanges))
	for i := len(m.Exchanges) - 1; i >= 0; i-- {
		out = append(out, m.Exchanges[i])
	}
	return out, nil
}

func (m *MockHistoryStore) Close() error {
	return nil
}

// Ensure MockHistoryStore implements history.Store
var _ history.Store = (*MockHistoryStore)(nil)
