package testutils

import "context"

// MockWebSearcher is a test web searcher returning a fixed result
type MockWebSearcher struct {
	// Result is returned from Search for any query
	Result string

	// Err is returned from Search when set
	Err error

	// Queries records every query passed to Search
	Queries []string
}

func NewMockWebSearcher(result string) *MockWebSearcher {
	return &MockWebSearcher{Result: result}
}

func (m *MockWebSearcher) Search(_ context.Context, query string) (string, error) {
	m.Queries = append(m.Queries, query)

	if m.Err != nil {
		return "", m.Err
	}

	return m.Result, nil
}
