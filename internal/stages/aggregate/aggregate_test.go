package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/health"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

func newTestClient() (*llmclient.Client, *llmclient.MockProvider) {
	mock := llmclient.NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	c := llmclient.NewClient(mock, bt, ht)
	c.Register(llmclient.Prompt{Key: NarrativePromptKey, Schema: NarrativeSchema, DefaultTier: llmclient.TierHaiku})
	return c, mock
}

func TestWeightForZeroesOutTangentialClaims(t *testing.T) {
	claim := &domain.AtomicClaim{ThesisRelevance: domain.RelevanceTangential, Centrality: domain.CentralityHigh}
	verdict := &domain.CBClaimVerdict{Confidence: 90, HarmPotential: domain.HarmHigh}
	require.Zero(t, weightFor(claim, verdict))
}

func TestWeightForCombinesMultipliers(t *testing.T) {
	claim := &domain.AtomicClaim{ThesisRelevance: domain.RelevanceDirect, Centrality: domain.CentralityHigh}
	verdict := &domain.CBClaimVerdict{Confidence: 50, HarmPotential: domain.HarmHigh, IsContested: false}
	// 3.0 (centrality) * 1.5 (harm) * 1.0 (not contested) * 0.5 (confidence/100)
	require.InDelta(t, 2.25, weightFor(claim, verdict), 0.001)
}

func TestContestationMultiplierDampensEstablishedContestedFacts(t *testing.T) {
	require.InDelta(t, 0.3, contestationMultiplier(true, domain.FactualEstablished), 0.001)
	require.InDelta(t, 0.5, contestationMultiplier(true, domain.FactualDisputed), 0.001)
	require.InDelta(t, 1.0, contestationMultiplier(true, domain.FactualOpinion), 0.001)
	require.InDelta(t, 1.0, contestationMultiplier(false, domain.FactualEstablished), 0.001)
}

func TestEffectiveTruthInvertsCounterClaims(t *testing.T) {
	claim := &domain.AtomicClaim{IsCounterClaim: true}
	verdict := &domain.CBClaimVerdict{TruthPercentage: 80}
	require.Equal(t, 20.0, effectiveTruth(claim, verdict))
}

func TestWeightedAverageDefaultsToFiftyWhenAllWeightsZero(t *testing.T) {
	claims := []*domain.AtomicClaim{{ID: "C1", ThesisRelevance: domain.RelevanceIrrelevant}}
	verdicts := map[string]*domain.CBClaimVerdict{"C1": {ClaimID: "C1", TruthPercentage: 90, Confidence: 90}}
	require.Equal(t, 50.0, weightedAverage(claims, verdicts))
}

func TestPruneTangentialBaselessClaimsKeepsDirectRegardless(t *testing.T) {
	claims := []*domain.AtomicClaim{
		{ID: "C1", ThesisRelevance: domain.RelevanceDirect},
		{ID: "C2", ThesisRelevance: domain.RelevanceTangential},
	}
	evidence := []*domain.EvidenceItem{} // no evidence at all
	cfg := DefaultConfig()
	out := pruneTangentialBaselessClaims(claims, evidence, cfg)
	require.Len(t, out, 1)
	require.Equal(t, "C1", out[0].ID)
}

func TestPruneOpinionOnlyFactorsDropsNonDirectOpinions(t *testing.T) {
	claims := []*domain.AtomicClaim{
		{ID: "C1", ThesisRelevance: domain.RelevanceDirect},
		{ID: "C2", ThesisRelevance: domain.RelevanceTangential},
	}
	verdicts := map[string]*domain.CBClaimVerdict{
		"C1": {ClaimID: "C1", FactualBasis: domain.FactualOpinion},
		"C2": {ClaimID: "C2", FactualBasis: domain.FactualOpinion},
	}
	out := pruneOpinionOnlyFactors(claims, verdicts)
	require.Len(t, out, 1)
	require.Equal(t, "C1", out[0].ID)
}

func TestOpinionRatioWarningEmittedAboveThreshold(t *testing.T) {
	c, mock := newTestClient()
	mock.Default = map[string]interface{}{
		"headline": "x", "evidence_base_summary": "y", "key_finding": "z", "limitations": "w",
	}
	claims := []*domain.AtomicClaim{
		{ID: "C1", ThesisRelevance: domain.RelevanceDirect, Centrality: domain.CentralityHigh},
		{ID: "C2", ThesisRelevance: domain.RelevanceTangential},
		{ID: "C3", ThesisRelevance: domain.RelevanceTangential},
	}
	evidence := []*domain.EvidenceItem{
		{ID: "EV1", RelevantClaimIDs: []string{"C2"}, ProbativeValue: domain.ProbativeHigh},
		{ID: "EV2", RelevantClaimIDs: []string{"C2"}, ProbativeValue: domain.ProbativeHigh},
		{ID: "EV3", RelevantClaimIDs: []string{"C3"}, ProbativeValue: domain.ProbativeHigh},
		{ID: "EV4", RelevantClaimIDs: []string{"C3"}, ProbativeValue: domain.ProbativeHigh},
	}
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", TruthPercentage: 80, Confidence: 80, FactualBasis: domain.FactualEstablished},
		{ClaimID: "C2", TruthPercentage: 60, Confidence: 60, FactualBasis: domain.FactualOpinion},
		{ClaimID: "C3", TruthPercentage: 60, Confidence: 60, FactualBasis: domain.FactualOpinion},
	}
	assessment, warnings, err := Aggregate(context.Background(), c, claims, verdicts, evidence, nil, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, assessment)
	found := false
	for _, w := range warnings {
		if w.Type == domain.WarnHighOpinionRatio {
			found = true
		}
	}
	require.True(t, found)
}

func TestBoundaryDisagreementGapForcesNarrativeMention(t *testing.T) {
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", BoundaryFindings: []domain.BoundaryFinding{
			{BoundaryID: "CB_1", Support: 0.9},
			{BoundaryID: "CB_2", Support: -0.9},
		}},
	}
	boundaries := []*domain.ClaimBoundary{{ID: "CB_1"}, {ID: "CB_2"}}
	gap, must := boundaryDisagreementGap(verdicts, boundaries)
	require.True(t, must)
	require.Greater(t, gap, 20.0)
}

func TestAggregateFallsBackToDeterministicNarrativeOnDegraded(t *testing.T) {
	c, _ := newTestClient()
	ht := health.NewTracker(0)
	ht.PauseSystem("paused for test")
	bt := budget.NewTracker(budget.DefaultConfig())
	pausedClient := llmclient.NewClient(llmclient.NewMockProvider(), bt, ht)
	pausedClient.Register(llmclient.Prompt{Key: NarrativePromptKey, Schema: NarrativeSchema, DefaultTier: llmclient.TierHaiku})
	_ = c

	claims := []*domain.AtomicClaim{{ID: "C1", ThesisRelevance: domain.RelevanceDirect, Centrality: domain.CentralityHigh}}
	verdicts := []*domain.CBClaimVerdict{{ClaimID: "C1", TruthPercentage: 70, Confidence: 70}}
	assessment, _, err := Aggregate(context.Background(), pausedClient, claims, verdicts, nil, nil, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, assessment.VerdictNarrative.Headline)
	require.Contains(t, assessment.VerdictNarrative.Limitations, "unavailable")
}
