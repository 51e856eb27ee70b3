package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/determinism"
	"github.com/claimboundary/factcheck/internal/health"
)

func newTestClient(t *testing.T, mock *MockProvider) *Client {
	t.Helper()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	c := NewClient(mock, bt, ht)
	c.Register(Prompt{
		Key:          "TEST_PROMPT",
		SystemPrompt: "system",
		Schema:       Schema{RequiredFields: []string{"answer"}},
		DefaultTier:  TierHaiku,
	})
	return c
}

func TestCallParsesJSONAndRecordsTokens(t *testing.T) {
	mock := NewMockProvider()
	mock.Default = map[string]interface{}{"answer": 42}
	c := newTestClient(t, mock)

	data, outcome, err := c.Call(context.Background(), "TEST_PROMPT", map[string]interface{}{"q": "?"}, CallOptions{Tier: TierHaiku})
	require.NoError(t, err)
	require.False(t, outcome.Degraded)
	require.EqualValues(t, 42, data["answer"])
}

func TestCallSchemaFailureFallsBackAfterOneRetry(t *testing.T) {
	mock := NewMockProvider()
	mock.Default = map[string]interface{}{"not_the_field": 1}
	c := newTestClient(t, mock)

	data, outcome, err := c.Call(context.Background(), "TEST_PROMPT", map[string]interface{}{}, CallOptions{})
	require.NoError(t, err)
	require.True(t, outcome.Degraded)
	require.Equal(t, "structured_output_failure", outcome.DegradedReason)
	require.Contains(t, data, "answer")
	require.Nil(t, data["answer"])
	// Original attempt + one schema retry.
	require.Len(t, mock.Calls, 2)
}

func TestDeterministicForcesZeroTemperature(t *testing.T) {
	require.Equal(t, 0.0, determinism.Temperature(0.9, true))
	require.Equal(t, 0.1, determinism.Temperature(0.0, false))
	require.Equal(t, 0.7, determinism.Temperature(5, false))
	require.Equal(t, 0.5, determinism.Temperature(0.5, false))
}

func TestSystemPausedShortCircuits(t *testing.T) {
	mock := NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(1)
	ht.PauseSystem("test pause")
	c := NewClient(mock, bt, ht)
	c.Register(Prompt{Key: "TEST_PROMPT", Schema: Schema{RequiredFields: []string{"answer"}}})

	data, outcome, err := c.Call(context.Background(), "TEST_PROMPT", nil, CallOptions{})
	require.NoError(t, err)
	require.True(t, outcome.Degraded)
	require.Contains(t, outcome.DegradedReason, "system_paused")
	require.Nil(t, data["answer"])
	require.Empty(t, mock.Calls)
}

func TestParseJSONObjectStripsCodeFences(t *testing.T) {
	data, err := parseJSONObject("```json\n{\"a\":1}\n```")
	require.NoError(t, err)
	require.EqualValues(t, 1, data["a"])
}
