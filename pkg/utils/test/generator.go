package testutils

import (
	"context"
	"fmt"
)

// MockGenerator is a test generator returning a fixed response
type MockGenerator struct {
	// Response is returned from Generate for any prompt
	Response string

	// Err is returned from Generate when set
	Err error

	// Prompts records every prompt passed to Generate
	Prompts []string
}

func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)

	if m.Err != nil {
		return "", fmt.Errorf("mock generation failure: %w", m.Err)
	}

	return m.Response, nil
}

func (m *MockGenerator) Close() error {
	return nil
}
