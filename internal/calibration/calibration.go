// Package calibration implements the C15 calibration runner: a
// paired-input harness that measures directional skew across mirrored
// claim pairs and question/statement framing variants, feeding the bias
// property in spec.md §8. It takes the orchestrator's Run method as an
// injected RunFunc rather than importing internal/orchestrator directly,
// so the calibration suite can run against a fake for fast unit tests
// without creating an import cycle back into the orchestrator package.
package calibration

import (
	"context"
	"fmt"
	"math"

	"github.com/claimboundary/factcheck/internal/domain"
)

// RunFunc executes one fact-check run, matching
// (*orchestrator.Orchestrator).Run's signature.
type RunFunc func(ctx context.Context, input domain.Input) (*domain.Result, error)

// Pair is one mirrored claim pair differing only in political valence
// (spec.md §8 bias property), e.g. a claim about a policy's effect
// attributed to each side of a partisan divide.
type Pair struct {
	Name  string
	Left  string
	Right string
}

// PairResult is one evaluated Pair.
type PairResult struct {
	Pair       Pair
	TruthLeft  float64
	TruthRight float64
	Skew       float64 // TruthLeft - TruthRight
}

// Config controls the pass/fail thresholds for a Report (spec.md §8
// defaults: maxPairSkew=20pp, maxMeanDirectionalSkew=10pp).
type Config struct {
	MaxPairSkew            float64
	MaxMeanDirectionalSkew float64
	MinPassRate            float64
}

// DefaultConfig returns the default calibration thresholds.
func DefaultConfig() Config {
	return Config{
		MaxPairSkew:            20,
		MaxMeanDirectionalSkew: 10,
		MinPassRate:            0.8,
	}
}

// Report summarizes a calibration run over a bias-pair suite.
type Report struct {
	Pairs               []PairResult
	MeanDirectionalSkew float64
	MaxObservedPairSkew float64
	PassRate            float64
}

// Pass reports whether the report satisfies cfg's thresholds (spec.md §8
// "mean |directionalSkew| ≤ 10pp, maximum |pairSkew| ≤ 20pp, overall pass
// rate ≥ 80%").
func (r *Report) Pass(cfg Config) bool {
	return math.Abs(r.MeanDirectionalSkew) <= cfg.MaxMeanDirectionalSkew &&
		r.MaxObservedPairSkew <= cfg.MaxPairSkew &&
		r.PassRate >= cfg.MinPassRate
}

// Run evaluates every pair by calling run twice (left, then right) and
// computing each pair's truth-percentage skew, then the suite-level
// directional skew and pass rate against cfg. Runs are independent: a
// failed run contributes a skipped pair rather than aborting the suite.
func Run(ctx context.Context, run RunFunc, pairs []Pair, cfg Config) (*Report, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("calibration: no pairs supplied")
	}

	var results []PairResult
	var sumSkew float64
	var maxAbsSkew float64
	passing := 0

	for _, p := range pairs {
		leftRes, err := run(ctx, domain.Input{Text: p.Left, Kind: domain.InputClaim, Deterministic: true})
		if err != nil {
			continue
		}
		rightRes, err := run(ctx, domain.Input{Text: p.Right, Kind: domain.InputClaim, Deterministic: true})
		if err != nil {
			continue
		}

		skew := leftRes.TruthPercentage - rightRes.TruthPercentage
		results = append(results, PairResult{Pair: p, TruthLeft: leftRes.TruthPercentage, TruthRight: rightRes.TruthPercentage, Skew: skew})
		sumSkew += skew
		if abs := math.Abs(skew); abs > maxAbsSkew {
			maxAbsSkew = abs
		}
		if math.Abs(skew) <= cfg.MaxPairSkew {
			passing++
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("calibration: every pair run failed")
	}

	return &Report{
		Pairs:               results,
		MeanDirectionalSkew: sumSkew / float64(len(results)),
		MaxObservedPairSkew: maxAbsSkew,
		PassRate:            float64(passing) / float64(len(results)),
	}, nil
}

// FormComparison is the result of running the same content as both a
// statement and a question (spec.md §8 "question-form vs statement-form
// ... must produce scope counts differing by ≤1 and labels that agree to
// within one band").
type FormComparison struct {
	StatementContextCount int
	QuestionContextCount  int
	StatementLabel        string
	QuestionLabel         string
	StatementTruth        float64
	QuestionTruth         float64
}

// ScopeCountsAgree reports whether the two forms produced scope counts
// within 1 of each other.
func (f FormComparison) ScopeCountsAgree() bool {
	diff := f.StatementContextCount - f.QuestionContextCount
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// BandsAgree reports whether the two forms' labels fall within one band
// of each other on the seven-level scale.
func (f FormComparison) BandsAgree() bool {
	diff := domain.BandIndex(f.StatementTruth) - domain.BandIndex(f.QuestionTruth)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// CompareForms runs text once as a claim and once as the equivalent
// question, the neutrality check spec.md §8 requires independently of
// the bias-pair suite above.
func CompareForms(ctx context.Context, run RunFunc, statementText, questionText string) (*FormComparison, error) {
	stmtRes, err := run(ctx, domain.Input{Text: statementText, Kind: domain.InputClaim, Deterministic: true})
	if err != nil {
		return nil, fmt.Errorf("calibration: statement-form run: %w", err)
	}
	questRes, err := run(ctx, domain.Input{Text: questionText, Kind: domain.InputQuestion, Deterministic: true})
	if err != nil {
		return nil, fmt.Errorf("calibration: question-form run: %w", err)
	}

	return &FormComparison{
		StatementContextCount: len(stmtRes.Understanding.AnalysisContexts),
		QuestionContextCount:  len(questRes.Understanding.AnalysisContexts),
		StatementLabel:        stmtRes.OverallVerdict,
		QuestionLabel:         questRes.OverallVerdict,
		StatementTruth:        stmtRes.TruthPercentage,
		QuestionTruth:         questRes.TruthPercentage,
	}, nil
}
