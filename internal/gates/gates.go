// Package gates implements the two non-blocking quality gates (C12): Gate 1
// claim-fidelity bookkeeping and Gate 4 confidence-publishability banding.
// Neither gate ever blocks a run; both attach statistics to the result.
package gates

import (
	"github.com/claimboundary/factcheck/internal/domain"
)

// Publishability band thresholds. The exact cut points are left open by
// design; these mirror the confidence semantics of the seven-level truth scale,
// where anything below a coin-flip's distance from UNVERIFIED reads as
// insufficient for publication.
const (
	highConfidenceThreshold     = 70.0
	mediumConfidenceThreshold   = 40.0
)

// RunGate1 tallies claim-fidelity bookkeeping: how many claims started,
// survived thesis-relevance validation, were filtered out, and how many of
// the survivors are central. It never blocks the run.
func RunGate1(allClaims, survivingClaims []*domain.AtomicClaim) domain.Gate1Result {
	central := 0
	for _, c := range survivingClaims {
		if c.IsCentral {
			central++
		}
	}
	return domain.Gate1Result{
		TotalClaims:     len(allClaims),
		FidelityPassed:  len(survivingClaims),
		Filtered:        len(allClaims) - len(survivingClaims),
		CentralRetained: central,
	}
}

// RunGate4 buckets verdicts by confidence publishability. Insufficient
// verdicts still appear in the result — they are flagged, not dropped.
func RunGate4(verdicts []*domain.CBClaimVerdict) domain.Gate4Result {
	var result domain.Gate4Result
	for _, v := range verdicts {
		switch band(v.Confidence) {
		case domain.ConfidenceHigh:
			result.High = append(result.High, v.ClaimID)
		case domain.ConfidenceMedium:
			result.Medium = append(result.Medium, v.ClaimID)
		default:
			result.Insufficient = append(result.Insufficient, v.ClaimID)
		}
	}
	return result
}

func band(confidence float64) domain.ConfidenceBand {
	switch {
	case confidence >= highConfidenceThreshold:
		return domain.ConfidenceHigh
	case confidence >= mediumConfidenceThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceInsufficient
	}
}

// Summarize builds the first-class QualityGateSummary for a run. AllPassed
// is always true since neither gate blocks; it exists so callers and tests
// have a single boolean to check without re-deriving it from band contents.
func Summarize(gate1 domain.Gate1Result, gate4 domain.Gate4Result) domain.QualityGateSummary {
	return domain.QualityGateSummary{Gate1: gate1, Gate4: gate4, AllPassed: true}
}
