package reliability

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/health"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

func TestNormalizeScoreHandlesBothScalesAndEdgeCases(t *testing.T) {
	require.InDelta(t, 0.8, NormalizeScore(0.8), 1e-9)
	require.InDelta(t, 0.8, NormalizeScore(80), 1e-9)
	require.Equal(t, 0.5, NormalizeScore(math.NaN()))
	require.Equal(t, 0.5, NormalizeScore(math.Inf(1)))
	require.Equal(t, 0.0, NormalizeScore(-5))
}

func TestApplySourceTypeCapBoundsKnownCategories(t *testing.T) {
	require.InDelta(t, 0.14, ApplySourceTypeCap(0.9, "propaganda_outlet"), 1e-9)
	require.InDelta(t, 0.42, ApplySourceTypeCap(0.9, "state_controlled_media"), 1e-9)
	require.InDelta(t, 0.9, ApplySourceTypeCap(0.9, "independent_newsroom"), 1e-9)
}

func TestNormalizeSourceTypeAcceptsLegacyLabel(t *testing.T) {
	require.Equal(t, "reliable", NormalizeSourceType("generally_reliable"))
	require.Equal(t, "unreliable", NormalizeSourceType("unreliable"))
}

func TestInsufficientDataGatesLowConfidenceOrThinEvidence(t *testing.T) {
	require.True(t, InsufficientData(2, 0.9))
	require.True(t, InsufficientData(5, 0.3))
	require.False(t, InsufficientData(3, 0.5))
}

func TestWeightFormulaMatchesSpec(t *testing.T) {
	s1, s2 := 0.8, 0.6
	result := Weight(80, 70, []*float64{&s1, &s2})
	require.InDelta(t, 0.7, result.MeanScore, 1e-9)
	require.InDelta(t, 71, result.AdjustedTruth, 1e-9) // 50 + 30*0.7
	require.InDelta(t, 59.5, result.AdjustedConfidence, 1e-9) // 70*(0.5+0.35)
}

func TestWeightAllUnknownDefaultsToNeutral(t *testing.T) {
	result := Weight(80, 70, []*float64{nil, nil})
	require.Equal(t, 2, result.UnknownSources)
	require.InDelta(t, 0.5, result.MeanScore, 1e-9)
	require.InDelta(t, 65, result.AdjustedTruth, 1e-9) // 50 + 30*0.5
}

func TestTrackerPrefetchThenSyncLookup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reliability.db")
	cache, err := NewCache(dbPath)
	require.NoError(t, err)
	defer func() { _ = cache.Close(); _ = os.Remove(dbPath) }()

	mock := llmclient.NewMockProvider()
	mock.Default = map[string]interface{}{
		"score": 0.9, "source_type": "independent_newsroom", "confidence": 0.8, "evidence_count": float64(5),
	}
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	client := llmclient.NewClient(mock, bt, ht)
	client.Register(llmclient.Prompt{Key: EvalPromptKey, Schema: ReliabilitySchema, DefaultTier: llmclient.TierHaiku})

	tracker := NewTracker(cache, client)
	require.Nil(t, tracker.TrackRecordScore("example.com"))

	tracker.Prefetch(context.Background(), []string{"example.com", "example.com"})

	score := tracker.TrackRecordScore("example.com")
	require.NotNil(t, score)
	require.InDelta(t, 0.9, *score, 1e-9)
	require.Len(t, mock.Calls, 1) // singleflight coalesced the duplicate
}

func TestTrackerInsufficientDataYieldsUnknown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reliability2.db")
	cache, err := NewCache(dbPath)
	require.NoError(t, err)
	defer func() { _ = cache.Close(); _ = os.Remove(dbPath) }()

	mock := llmclient.NewMockProvider()
	mock.Default = map[string]interface{}{
		"score": 0.9, "source_type": "independent_newsroom", "confidence": 0.2, "evidence_count": float64(1),
	}
	bt := budget.NewTracker(budget.DefaultConfig())
	ht := health.NewTracker(3)
	client := llmclient.NewClient(mock, bt, ht)
	client.Register(llmclient.Prompt{Key: EvalPromptKey, Schema: ReliabilitySchema, DefaultTier: llmclient.TierHaiku})

	tracker := NewTracker(cache, client)
	tracker.Prefetch(context.Background(), []string{"thin.example.com"})
	require.Nil(t, tracker.TrackRecordScore("thin.example.com"))
}
