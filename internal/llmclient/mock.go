package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockProvider is a deterministic fake RawProvider for tests and for
// spec.md §14's deterministic-mode harness.
type MockProvider struct {
	mu        sync.Mutex
	Responses map[string]string // keyed by a caller-supplied lookup key
	Default   map[string]interface{}
	Calls     []MockCall
	Err       error
}

// MockCall records one invocation for assertions.
type MockCall struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// NewMockProvider builds an empty MockProvider returning Default for any call
// not explicitly keyed in Responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Responses: make(map[string]string),
		Default:   map[string]interface{}{"status": "ok"},
	}
}

// RawCall implements RawProvider. If Responses contains an entry keyed by the
// user prompt verbatim, that text is returned; otherwise the Default map is
// marshaled to JSON.
func (m *MockProvider) RawCall(_ context.Context, _ string, userPrompt string, _ string, _ float64, _ int) (string, Usage, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{User: userPrompt})
	m.mu.Unlock()

	if m.Err != nil {
		return "", Usage{}, m.Err
	}
	if text, ok := m.Responses[userPrompt]; ok {
		return text, Usage{InputTokens: len(userPrompt) / 4, OutputTokens: len(text) / 4}, nil
	}
	b, err := json.Marshal(m.Default)
	if err != nil {
		return "", Usage{}, fmt.Errorf("mock marshal default: %w", err)
	}
	return string(b), Usage{InputTokens: len(userPrompt) / 4, OutputTokens: len(b) / 4}, nil
}
