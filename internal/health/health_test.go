package health

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeShaped struct {
	name     string
	provider Provider
	status   int
	fatal    bool
}

func (f fakeShaped) Error() string { return f.name }
func (f fakeShaped) ErrorShape() (string, Provider, int, bool) {
	return f.name, f.provider, f.status, f.fatal
}

func TestClassifyShapeBased(t *testing.T) {
	c := Classify(fakeShaped{name: "RateLimitError", provider: ProviderSearch, status: 429})
	require.Equal(t, CategoryRateLimit, c.Category)
	require.True(t, c.ShouldCountAsFailure)
}

func TestClassifyMessageSubstrings(t *testing.T) {
	c := Classify(errors.New("request timed out after 60s"))
	require.Equal(t, CategoryTimeout, c.Category)
	require.False(t, c.ShouldCountAsFailure)

	c = Classify(errors.New("I can't help with that request"))
	require.Equal(t, CategorySoftRefusal, c.Category)
	require.False(t, c.ShouldCountAsFailure)

	c = Classify(errors.New("503 service unavailable"))
	require.Equal(t, CategoryProviderOutage, c.Category)
	require.True(t, c.ShouldCountAsFailure)
}

func TestCircuitBreakerOpensOnThirdConsecutiveFailure(t *testing.T) {
	tr := NewTracker(3)
	failure := Classification{Category: CategoryRateLimit, Provider: ProviderSearch, ShouldCountAsFailure: true}

	tr.RecordOutcome(failure)
	tr.RecordOutcome(failure)
	paused, _ := tr.IsPaused()
	require.False(t, paused)
	require.False(t, tr.CircuitOpen(ProviderSearch))

	tr.RecordOutcome(failure)
	paused, reason := tr.IsPaused()
	require.True(t, paused)
	require.NotEmpty(t, reason)
	require.True(t, tr.CircuitOpen(ProviderSearch))

	// Opening search's circuit must not open llm's.
	require.False(t, tr.CircuitOpen(ProviderLLM))
}

func TestResumeSystemClearsCounters(t *testing.T) {
	tr := NewTracker(3)
	failure := Classification{Category: CategoryProviderOutage, Provider: ProviderLLM, ShouldCountAsFailure: true}
	tr.RecordOutcome(failure)
	tr.RecordOutcome(failure)
	tr.RecordOutcome(failure)
	require.True(t, tr.CircuitOpen(ProviderLLM))

	tr.ResumeSystem()
	require.False(t, tr.CircuitOpen(ProviderLLM))
	require.Equal(t, 0, tr.ConsecutiveFailures(ProviderLLM))
	paused, _ := tr.IsPaused()
	require.False(t, paused)
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	tr := NewTracker(3)
	failure := Classification{Category: CategoryRateLimit, Provider: ProviderSearch, ShouldCountAsFailure: true}
	tr.RecordOutcome(failure)
	tr.RecordOutcome(failure)
	require.Equal(t, 2, tr.ConsecutiveFailures(ProviderSearch))

	tr.RecordOutcome(Classification{Category: CategoryTimeout, Provider: ProviderSearch, ShouldCountAsFailure: false})
	require.Equal(t, 0, tr.ConsecutiveFailures(ProviderSearch))
}

func TestIsSoftRefusal(t *testing.T) {
	require.True(t, IsSoftRefusal("I can't help with that."))
	require.False(t, IsSoftRefusal("The claim is mostly true."))
}
