package llm

import "context"

// MockClient is a configurable Client for tests.
type MockClient struct {
	// Responses are returned in order; the last one repeats once exhausted.
	Responses []string
	// Err, if set, is returned from every call.
	Err error
	// Model reported by GetModel.
	Model string

	// CapturedPrompts records every prompt seen, in order.
	CapturedPrompts []string

	calls int
}

// GenerateResponse returns the next canned response or the configured error.
func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.CapturedPrompts = append(m.CapturedPrompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++
	return m.Responses[idx], nil
}

// GetModel returns the configured mock model name.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
