package gates

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/domain"
)

func TestRunGate1CountsFilteredAndCentralClaims(t *testing.T) {
	all := []*domain.AtomicClaim{{ID: "C1"}, {ID: "C2"}, {ID: "C3"}}
	surviving := []*domain.AtomicClaim{{ID: "C1", IsCentral: true}, {ID: "C2"}}
	g1 := RunGate1(all, surviving)
	require.Equal(t, 3, g1.TotalClaims)
	require.Equal(t, 2, g1.FidelityPassed)
	require.Equal(t, 1, g1.Filtered)
	require.Equal(t, 1, g1.CentralRetained)
}

func TestRunGate4BandsVerdictsByConfidence(t *testing.T) {
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", Confidence: 85},
		{ClaimID: "C2", Confidence: 55},
		{ClaimID: "C3", Confidence: 10},
	}
	g4 := RunGate4(verdicts)
	require.Equal(t, []string{"C1"}, g4.High)
	require.Equal(t, []string{"C2"}, g4.Medium)
	require.Equal(t, []string{"C3"}, g4.Insufficient)
}

func TestSummarizeAlwaysReportsAllPassed(t *testing.T) {
	summary := Summarize(domain.Gate1Result{}, domain.Gate4Result{Insufficient: []string{"C1"}})
	require.True(t, summary.AllPassed)
}
