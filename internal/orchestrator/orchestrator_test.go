package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/domain"
)

func ptr(f float64) *float64 { return &f }

func TestApplyReliabilityWeightingAdjustsTruthAndConfidence(t *testing.T) {
	evidence := []*domain.EvidenceItem{
		{ID: "EV1", SourceID: "SRC1"},
		{ID: "EV2", SourceID: "SRC2"},
	}
	sources := []*domain.FetchedSource{
		{ID: "SRC1", TrackRecordScore: ptr(0.9)},
		{ID: "SRC2", TrackRecordScore: ptr(0.3)},
	}
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", TruthPercentage: 80, Confidence: 70, SupportingEvidenceIDs: []string{"EV1"}, ContradictingEvidenceIDs: []string{"EV2"}},
	}

	applyReliabilityWeighting(verdicts, evidence, sources)

	v := verdicts[0]
	require.NotNil(t, v.EvidenceWeight)
	require.NotNil(t, v.SourceReliabilityMeta)
	assert.InDelta(t, 0.6, *v.EvidenceWeight, 0.0001)
	assert.Equal(t, 0, v.SourceReliabilityMeta.UnknownSources)
	assert.Equal(t, v.TruthPercentage, v.SourceReliabilityMeta.AdjustedTruth)
	assert.Equal(t, domain.VerdictLabelFor(v.TruthPercentage, domain.InputClaim), v.Verdict)
}

func TestApplyReliabilityWeightingSkipsVerdictWithNoResolvableEvidence(t *testing.T) {
	verdicts := []*domain.CBClaimVerdict{
		{ClaimID: "C1", TruthPercentage: 55, Confidence: 50, SupportingEvidenceIDs: []string{"UNKNOWN"}},
	}
	applyReliabilityWeighting(verdicts, nil, nil)

	assert.Nil(t, verdicts[0].EvidenceWeight)
	assert.Nil(t, verdicts[0].SourceReliabilityMeta)
	assert.Equal(t, 55.0, verdicts[0].TruthPercentage)
}

func TestClaimsForContextBindsUnscopedClaimsToGeneral(t *testing.T) {
	claims := []*domain.AtomicClaim{
		{ID: "CL1", RelatedContextID: "CTX_1"},
		{ID: "CL2", RelatedContextID: ""},
	}

	inCtx1 := claimsForContext(claims, "CTX_1")
	require.Len(t, inCtx1, 1)
	assert.Equal(t, "CL1", inCtx1[0].ID)

	general := claimsForContext(claims, domain.GeneralContextID)
	require.Len(t, general, 1)
	assert.Equal(t, "CL2", general[0].ID)
}

func TestResolveEvidenceContextsBindsSingleContextEvidenceToThatContext(t *testing.T) {
	evidence := []*domain.EvidenceItem{
		{ID: "EV1", SourceURL: "https://a.example/story", ContextID: "CTX_1"},
	}
	resolveEvidenceContexts(evidence)
	assert.Equal(t, "CTX_1", evidence[0].ContextID)
}

func TestResolveEvidenceContextsBindsSharedSourceToUnscoped(t *testing.T) {
	// Same URL surfaced by two different contexts' research loops: ambiguous,
	// must bind to CTX_UNSCOPED rather than either context.
	evidence := []*domain.EvidenceItem{
		{ID: "EV1", SourceURL: "https://a.example/shared", ContextID: "CTX_1"},
		{ID: "EV2", SourceURL: "https://a.example/shared", ContextID: "CTX_2"},
	}
	resolveEvidenceContexts(evidence)
	assert.Equal(t, domain.UnscopedContextID, evidence[0].ContextID)
	assert.Equal(t, domain.UnscopedContextID, evidence[1].ContextID)
}

func TestSurvivingClaimsFor(t *testing.T) {
	claims := []*domain.AtomicClaim{{ID: "CL1"}, {ID: "CL2"}}
	verdicts := []*domain.CBClaimVerdict{{ClaimID: "CL1"}}

	surviving := survivingClaimsFor(claims, verdicts)
	require.Len(t, surviving, 1)
	assert.Equal(t, "CL1", surviving[0].ID)
}

func TestContainsCrashSignature(t *testing.T) {
	assert.True(t, containsCrashSignature(errors.New("panic: Cannot read properties of undefined (reading 'value')")))
	assert.False(t, containsCrashSignature(errors.New("some other failure")))
	assert.False(t, containsCrashSignature(nil))
}

func TestSearchProviderNamesHandlesNilProvider(t *testing.T) {
	assert.Nil(t, searchProviderNames(nil))
}

func TestStageErrorUnwrapAndMessage(t *testing.T) {
	cause := errors.New("boom")
	se := &StageError{Stage: "extract", Cause: cause}
	assert.ErrorIs(t, se, cause)
	assert.Contains(t, se.Error(), "extract")

	seWithCtx := &StageError{Stage: "debate", Cause: cause, Context: "claim CL1"}
	assert.Contains(t, seWithCtx.Error(), "claim CL1")
}
