package debate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/health"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

func newTestDebateClient() (*llmclient.Client, *llmclient.MockProvider) {
	mock := llmclient.NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	c := llmclient.NewClient(mock, bt, ht)
	c.Register(llmclient.Prompt{Key: AdvocatePromptKey, Schema: AdvocateSchema, DefaultTier: llmclient.TierSonnet})
	c.Register(llmclient.Prompt{Key: ChallengerPromptKey, Schema: ChallengerSchema, DefaultTier: llmclient.TierSonnet})
	c.Register(llmclient.Prompt{Key: ReconciliationPromptKey, Schema: ReconciliationSchema, DefaultTier: llmclient.TierSonnet})
	c.Register(llmclient.Prompt{Key: ValidationGroundingKey, Schema: ValidationSchema, DefaultTier: llmclient.TierHaiku})
	c.Register(llmclient.Prompt{Key: ValidationDirectionKey, Schema: ValidationSchema, DefaultTier: llmclient.TierHaiku})
	return c, mock
}

func oneVerdictResponse(claimID string, truth, confidence float64) map[string]interface{} {
	return map[string]interface{}{
		"verdicts": []interface{}{
			map[string]interface{}{
				"claim_id": claimID, "truth_percentage": truth, "confidence": confidence,
				"verdict": "MOSTLY-TRUE", "reasoning": "because",
				"supporting_evidence_ids": []interface{}{"EV_1"},
			},
		},
	}
}

func TestApplySpreadAdjustmentMultiplierTable(t *testing.T) {
	cases := []struct {
		spread, confidence, want float64
	}{
		{4, 80, 80},
		{10, 80, 72},
		{18, 80, 56},
		{30, 80, 32},
	}
	for _, c := range cases {
		v := &domain.CBClaimVerdict{Confidence: c.confidence}
		applySpreadAdjustment(v, c.spread)
		require.InDelta(t, c.want, v.Confidence, 0.01)
	}
}

func TestEnforceHarmConfidenceFloorForcesUnverified(t *testing.T) {
	v := &domain.CBClaimVerdict{Verdict: "MOSTLY-TRUE", Confidence: 40}
	changed := enforceHarmConfidenceFloor(v, domain.HarmHigh)
	require.True(t, changed)
	require.Equal(t, "UNVERIFIED", v.Verdict)
}

func TestEnforceHarmConfidenceFloorLeavesLowHarmAlone(t *testing.T) {
	v := &domain.CBClaimVerdict{Verdict: "MOSTLY-TRUE", Confidence: 40}
	changed := enforceHarmConfidenceFloor(v, domain.HarmLow)
	require.False(t, changed)
	require.Equal(t, "MOSTLY-TRUE", v.Verdict)
}

func TestStructuralConsistencyCheckFlagsUnknownIDsAndZeroEvidence(t *testing.T) {
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", TruthPercentage: 90, Verdict: "TRUE", SupportingEvidenceIDs: []string{"EV_GHOST"}},
		{ClaimID: "C2", TruthPercentage: 50, Verdict: "UNVERIFIED"},
	}
	warnings := structuralConsistencyCheck(verdicts, map[string]bool{"EV_1": true}, map[string]bool{}, nil)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		require.Equal(t, domain.WarnStructuralInvariantViolation, w.Type)
	}
}

func TestStructuralConsistencyCheckUsesCoverageMatrixOverSelfReportedCitations(t *testing.T) {
	// C1's advocate step claims it cited EV_1, but the independently built
	// coverage matrix says C1 has zero evidence anywhere in any boundary:
	// the matrix must win, since the advocate's own citation list is the
	// thing this check exists to cross-check.
	coverage := domain.NewCoverageMatrix([]string{"C1"}, []string{"B1"})
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", TruthPercentage: 50, Verdict: "UNVERIFIED", SupportingEvidenceIDs: []string{"EV_1"}},
	}
	warnings := structuralConsistencyCheck(verdicts, map[string]bool{"EV_1": true}, map[string]bool{"B1": true}, coverage)
	found := false
	for _, w := range warnings {
		if w.Type == domain.WarnStructuralInvariantViolation {
			found = true
		}
	}
	require.True(t, found, "expected zero-evidence warning driven by the coverage matrix despite a non-empty self-reported citation list")
}

func TestRunProducesVerdictsAndAppliesPostProcessing(t *testing.T) {
	c, mock := newTestDebateClient()
	mock.Default = oneVerdictResponse("CLAIM_1", 90, 30)

	claims := []*domain.AtomicClaim{{ID: "CLAIM_1", Statement: "x happened", HarmPotential: domain.HarmHigh}}
	evidence := []*domain.EvidenceItem{{ID: "EV_1", Statement: "evidence for x"}}

	verdicts, warnings, err := Run(context.Background(), c, claims, evidence, nil, nil, Config{SelfConsistencyMode: SelfConsistencyDisabled, Deterministic: true})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	// Confidence 30 with HarmHigh is below the high-harm confidence floor (50), which forces UNVERIFIED.
	require.Equal(t, "UNVERIFIED", verdicts[0].Verdict)
	found := false
	for _, w := range warnings {
		if w.Type == domain.WarnHarmConfidenceFloorTriggered {
			found = true
		}
	}
	require.True(t, found)
}

func TestRunDegradedAdvocateReturnsNeutralVerdicts(t *testing.T) {
	claims := []*domain.AtomicClaim{{ID: "CLAIM_1"}}

	mock := llmclient.NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	pausedHT := health.NewTracker(0)
	pausedHT.PauseSystem("test pause")
	pausedClient := llmclient.NewClient(mock, bt, pausedHT)
	pausedClient.Register(llmclient.Prompt{Key: AdvocatePromptKey, Schema: AdvocateSchema, DefaultTier: llmclient.TierSonnet})

	verdicts, warnings, err := Run(context.Background(), pausedClient, claims, nil, nil, nil, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	require.Equal(t, "UNVERIFIED", verdicts[0].Verdict)
	require.NotEmpty(t, warnings)
}
