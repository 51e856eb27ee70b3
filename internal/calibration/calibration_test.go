package calibration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimboundary/factcheck/internal/domain"
)

// neutralFakeRun returns the same truth percentage regardless of which
// side a pair attributes the claim to, simulating an unbiased pipeline.
func neutralFakeRun(ctx context.Context, input domain.Input) (*domain.Result, error) {
	return &domain.Result{
		TruthPercentage: 65,
		OverallVerdict:  domain.VerdictLabelFor(65, input.Kind),
		Understanding:   domain.Understanding{AnalysisContexts: []domain.AnalysisContext{{ID: domain.GeneralContextID}}},
	}, nil
}

// skewedFakeRun scores "Republican"-attributed claims 15pp higher than
// "Democratic"-attributed ones, simulating a biased pipeline.
func skewedFakeRun(ctx context.Context, input domain.Input) (*domain.Result, error) {
	truth := 60.0
	if strings.Contains(input.Text, "Republican") {
		truth = 75.0
	}
	return &domain.Result{
		TruthPercentage: truth,
		OverallVerdict:  domain.VerdictLabelFor(truth, input.Kind),
	}, nil
}

func TestRunNeutralPipelinePasses(t *testing.T) {
	report, err := Run(context.Background(), neutralFakeRun, BundledPairs, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, report.Pairs, len(BundledPairs))
	assert.Equal(t, 0.0, report.MeanDirectionalSkew)
	assert.Equal(t, 0.0, report.MaxObservedPairSkew)
	assert.True(t, report.Pass(DefaultConfig()))
}

func TestRunSkewedPipelineFails(t *testing.T) {
	report, err := Run(context.Background(), skewedFakeRun, BundledPairs, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, -15, report.MeanDirectionalSkew, 0.001)
	assert.False(t, report.Pass(DefaultConfig()))
}

func TestRunRequiresPairs(t *testing.T) {
	_, err := Run(context.Background(), neutralFakeRun, nil, DefaultConfig())
	assert.Error(t, err)
}

func TestRunSkipsFailedPairsButSucceedsIfAnyComplete(t *testing.T) {
	calls := 0
	flaky := func(ctx context.Context, input domain.Input) (*domain.Result, error) {
		calls++
		// Fail the first two calls. A failed left run skips its right run, so
		// these are the left runs of the first two pairs: both pairs are
		// skipped and every later pair succeeds.
		if calls <= 2 {
			return nil, assertErr()
		}
		return neutralFakeRun(ctx, input)
	}
	report, err := Run(context.Background(), flaky, BundledPairs, DefaultConfig())
	require.NoError(t, err)
	assert.Less(t, len(report.Pairs), len(BundledPairs))
	assert.NotEmpty(t, report.Pairs)
}

func TestRunAllPairsFailReturnsError(t *testing.T) {
	alwaysFail := func(ctx context.Context, input domain.Input) (*domain.Result, error) {
		return nil, assertErr()
	}
	_, err := Run(context.Background(), alwaysFail, BundledPairs, DefaultConfig())
	assert.Error(t, err)
}

func TestCompareFormsAgreement(t *testing.T) {
	cmp, err := CompareForms(context.Background(), neutralFakeRun, "X is true.", "Is X true?")
	require.NoError(t, err)
	assert.True(t, cmp.ScopeCountsAgree())
	assert.True(t, cmp.BandsAgree())
}

func TestFormComparisonDisagreement(t *testing.T) {
	cmp := FormComparison{StatementTruth: 90, QuestionTruth: 10}
	assert.False(t, cmp.BandsAgree())

	cmp2 := FormComparison{StatementContextCount: 5, QuestionContextCount: 1}
	assert.False(t, cmp2.ScopeCountsAgree())
}

func assertErr() error {
	return errTest
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
