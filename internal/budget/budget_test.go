package budget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPerContextCapIndependentOfGlobalCap(t *testing.T) {
	// A per-context cap of 2 must not imply a global cap of 2: with two
	// contexts each allowed 2 iterations, the global cap (5) binds first.
	tr := NewTracker(Config{MaxIterationsPerContext: 2, MaxTotalIterations: 5})

	for i := 0; i < 2; i++ {
		require.True(t, tr.CheckContextIterationBudget("ctx-a").Allowed)
		tr.RecordIteration("ctx-a")
	}
	require.False(t, tr.CheckContextIterationBudget("ctx-a").Allowed)

	for i := 0; i < 2; i++ {
		require.True(t, tr.CheckContextIterationBudget("ctx-b").Allowed)
		tr.RecordIteration("ctx-b")
	}

	// Global total is now 4; one more iteration (context c) is allowed before
	// the global cap of 5 binds.
	require.True(t, tr.CheckContextIterationBudget("ctx-c").Allowed)
	tr.RecordIteration("ctx-c")
	res := tr.CheckContextIterationBudget("ctx-c")
	require.False(t, res.Allowed)
	require.Contains(t, res.Reason, "global")
}

func TestTokenBudgetPerCallAndTotal(t *testing.T) {
	tr := NewTracker(Config{MaxTokensPerCall: 100, MaxTotalTokens: 150})

	require.False(t, tr.CheckTokenBudget(101).Allowed)

	require.True(t, tr.CheckTokenBudget(100).Allowed)
	tr.RecordTokens(100)

	require.False(t, tr.CheckTokenBudget(60).Allowed) // would total 160 > 150
	require.True(t, tr.CheckTokenBudget(50).Allowed)
}

func TestCountersMonotoneNonDecreasing(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tr.RecordIteration("a")
	tr.RecordIteration("a")
	tr.RecordTokens(10)
	tr.RecordTokens(5)
	stats := tr.Stats()
	require.Equal(t, 2, stats.TotalIterations)
	require.Equal(t, 2, stats.IterationsByContext["a"])
	require.Equal(t, 15, stats.TotalTokens)
}
