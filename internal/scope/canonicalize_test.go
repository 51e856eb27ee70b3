package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/domain"
)

func TestEnsureAtLeastOneContextAppendsGeneral(t *testing.T) {
	contexts, remap := Canonicalize(nil, "no scope markers here")
	require.Len(t, contexts, 1)
	require.Equal(t, domain.GeneralContextID, contexts[0].ID)
	require.Equal(t, "unknown", contexts[0].Status)
	require.Equal(t, domain.GeneralContextID, remap[domain.GeneralContextID])
}

func TestCanonicalizeAssignsInstitutionIDsAndResolvesCollisions(t *testing.T) {
	raw := []*domain.AnalysisContext{
		{ID: "raw1", Name: "General proceeding", Type: domain.ContextLegal, Subject: "FTC enforcement action against Acme Corp"},
		{ID: "raw2", Name: "Second FTC matter", Type: domain.ContextLegal, Subject: "FTC rulemaking on data brokers"},
	}
	contexts, remap := Canonicalize(raw, "filed in 2024, case pending")

	require.Len(t, contexts, 2)
	ids := map[string]bool{}
	for _, c := range contexts {
		ids[c.ID] = true
	}
	require.Len(t, ids, 2, "collision must be resolved to distinct ids")
	require.Equal(t, "CTX_FTC", remap["raw1"])
	require.Contains(t, remap["raw2"], "CTX_FTC")
	require.NotEqual(t, remap["raw1"], remap["raw2"])
}

func TestCanonicalizeBlanksDateAndStatusWithoutAnchors(t *testing.T) {
	raw := []*domain.AnalysisContext{{ID: "r1", Name: "Some matter", Type: domain.ContextOther, Date: "2019-01-01", Status: "active"}}
	contexts, _ := Canonicalize(raw, "no year or status words present")
	require.Empty(t, contexts[0].Date)
	require.Equal(t, "unknown", contexts[0].Status)
}

func TestCanonicalizeKeepsDateAndStatusWithAnchors(t *testing.T) {
	raw := []*domain.AnalysisContext{{ID: "r1", Name: "Some matter", Type: domain.ContextOther, Date: "2019-01-01"}}
	contexts, _ := Canonicalize(raw, "the case was resolved in 2019 after appeal")
	require.Equal(t, "2019-01-01", contexts[0].Date)
	require.Equal(t, "resolved", contexts[0].Status)
}

func TestCanonicalNameReplacesGenericPlaceholder(t *testing.T) {
	raw := []*domain.AnalysisContext{{ID: "r1", Name: "General criminal proceeding", Type: domain.ContextLegal, Subject: "State v. Doe, armed robbery trial"}}
	contexts, _ := Canonicalize(raw, "")
	require.Equal(t, "State v. Doe, armed robbery trial", contexts[0].Name)
}

func TestRewriteRelatedContextIDsUnresolvedBindsToUnscoped(t *testing.T) {
	claims := []*domain.AtomicClaim{{ID: "c1", RelatedContextID: "raw1"}, {ID: "c2", RelatedContextID: "ghost"}}
	remap := Remap{"raw1": "CTX_FTC"}
	RewriteRelatedContextIDs(claims, remap)
	require.Equal(t, "CTX_FTC", claims[0].RelatedContextID)
	require.Equal(t, domain.UnscopedContextID, claims[1].RelatedContextID)
}

func TestResolveEvidenceContextAmbiguousBindsUnscoped(t *testing.T) {
	require.Equal(t, domain.UnscopedContextID, ResolveEvidenceContext(nil))
	require.Equal(t, domain.UnscopedContextID, ResolveEvidenceContext([]string{"CTX_A", "CTX_B"}))
	require.Equal(t, "CTX_A", ResolveEvidenceContext([]string{"CTX_A"}))
}

func TestPreDetectHintsMatchTriggerPatterns(t *testing.T) {
	hints := PreDetectHints("the new engine is more efficient than the old, producing higher output")
	require.Len(t, hints, 1)
	require.Equal(t, [2]string{"SCOPE_PRODUCTION", "SCOPE_USAGE"}, hints[0].Scopes)

	hints = PreDetectHints("critics say the trial was unfair and the sentence too harsh")
	require.Len(t, hints, 1)
	require.Equal(t, "SCOPE_LEGAL_PROC", hints[0].Scopes[0])
}
