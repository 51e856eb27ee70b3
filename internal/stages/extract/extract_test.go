package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/health"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

func TestExtractParsesClaimsAndContexts(t *testing.T) {
	mock := llmclient.NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	c := llmclient.NewClient(mock, bt, ht)
	c.Register(llmclient.Prompt{Key: PromptKey, Schema: Schema, DefaultTier: llmclient.TierHaiku})

	mock.Default = map[string]interface{}{
		"implied_claim": "Acme products cause harm",
		"atomic_claims": []interface{}{
			map[string]interface{}{
				"id": "CLAIM_1", "statement": "Acme's product failed a safety test.",
				"centrality": "high", "harm_potential": "high",
				"claim_direction": "supports_thesis", "thesis_relevance": "direct",
				"thesis_relevance_confidence": 55.0,
			},
		},
		"analysis_contexts": []interface{}{
			map[string]interface{}{"id": "RAWCTX_1", "name": "FTC proceeding", "type": "legal", "subject": "FTC enforcement"},
		},
	}

	res, err := Extract(context.Background(), c, "Acme's product failed a safety test.", nil)
	require.NoError(t, err)
	require.Equal(t, "Acme products cause harm", res.ImpliedClaim)
	require.Len(t, res.AtomicClaims, 1)
	require.True(t, res.AtomicClaims[0].IsCentral)
	require.Equal(t, domain.RelevanceTangential, res.AtomicClaims[0].ThesisRelevance)
	require.Contains(t, res.DowngradedClaims, "CLAIM_1")
}

func TestExtractLogsLowConfidenceWithoutDowngrading(t *testing.T) {
	mock := llmclient.NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	c := llmclient.NewClient(mock, bt, ht)
	c.Register(llmclient.Prompt{Key: PromptKey, Schema: Schema, DefaultTier: llmclient.TierHaiku})

	mock.Default = map[string]interface{}{
		"implied_claim": "x",
		"atomic_claims": []interface{}{
			map[string]interface{}{"id": "CLAIM_1", "thesis_relevance": "direct", "thesis_relevance_confidence": 65.0},
		},
		"analysis_contexts": []interface{}{},
	}
	res, err := Extract(context.Background(), c, "text", nil)
	require.NoError(t, err)
	require.Empty(t, res.DowngradedClaims)
	require.Contains(t, res.LoggedLowConfidence, "CLAIM_1")
	require.Equal(t, domain.RelevanceDirect, res.AtomicClaims[0].ThesisRelevance)
}

func TestExtractDegradedReturnsEmptyResultWithoutError(t *testing.T) {
	mock := llmclient.NewMockProvider()
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(1)
	ht.PauseSystem("test")
	c := llmclient.NewClient(mock, bt, ht)
	c.Register(llmclient.Prompt{Key: PromptKey, Schema: Schema, DefaultTier: llmclient.TierHaiku})

	res, err := Extract(context.Background(), c, "text", nil)
	require.NoError(t, err)
	require.True(t, res.Outcome.Degraded)
	require.Nil(t, res.AtomicClaims)
}
