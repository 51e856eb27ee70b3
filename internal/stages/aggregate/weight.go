package aggregate

import (
	"math"

	"github.com/claimboundary/factcheck/internal/domain"
)

var centralityMultiplier = map[domain.Centrality]float64{
	domain.CentralityHigh:   3.0,
	domain.CentralityMedium: 2.0,
	domain.CentralityLow:    1.0,
}

var harmMultiplier = map[domain.HarmPotential]float64{
	domain.HarmCritical: 2.0,
	domain.HarmHigh:      1.5,
	domain.HarmMedium:    1.0,
	domain.HarmLow:       1.0,
}

// contestationMultiplier implements spec.md §4.11's contestation factor: a
// contested claim's weight is damped further when its factual basis is
// already well-established (a contested "fact" still counts, but less),
// and left untouched when it's merely opinion/alleged/unknown or when the
// claim isn't contested at all.
func contestationMultiplier(isContested bool, basis domain.FactualBasis) float64 {
	if !isContested {
		return 1.0
	}
	switch basis {
	case domain.FactualEstablished:
		return 0.3
	case domain.FactualDisputed:
		return 0.5
	default:
		return 1.0
	}
}

// weightFor computes one claim's contribution weight (spec.md §4.11).
// A tangential or irrelevant claim never contributes to the weighted
// average; its weight is forced to zero rather than excluded from the loop,
// so callers can sum over the full claim set uniformly.
func weightFor(claim *domain.AtomicClaim, verdict *domain.CBClaimVerdict) float64 {
	if claim.ThesisRelevance == domain.RelevanceTangential || claim.ThesisRelevance == domain.RelevanceIrrelevant {
		return 0
	}
	cm := centralityMultiplier[claim.Centrality]
	if cm == 0 {
		cm = 1.0
	}
	hm := harmMultiplier[verdict.HarmPotential]
	if hm == 0 {
		hm = 1.0
	}
	ctm := contestationMultiplier(verdict.IsContested, verdict.FactualBasis)
	return cm * hm * ctm * (verdict.Confidence / 100.0)
}

// effectiveTruth applies the counter-claim inversion (spec.md §4.11): a
// counter-claim's truth percentage is read as the inverse, since a true
// counter-claim undermines the thesis it was extracted to oppose.
func effectiveTruth(claim *domain.AtomicClaim, verdict *domain.CBClaimVerdict) float64 {
	if claim.IsCounterClaim {
		return 100 - verdict.TruthPercentage
	}
	return verdict.TruthPercentage
}

// weightedAverage computes the overall truth percentage across claims,
// defaulting to 50 (UNVERIFIED's center) when every claim's weight is zero.
func weightedAverage(claims []*domain.AtomicClaim, verdictByClaim map[string]*domain.CBClaimVerdict) float64 {
	var weightedSum, totalWeight float64
	for _, c := range claims {
		v, ok := verdictByClaim[c.ID]
		if !ok {
			continue
		}
		w := weightFor(c, v)
		weightedSum += effectiveTruth(c, v) * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 50
	}
	return math.Round(weightedSum / totalWeight)
}

// overallConfidence is the weight-weighted mean of per-claim confidence,
// using the same weights as the truth-percentage average so a run's
// headline confidence tracks which claims actually moved the needle.
func overallConfidence(claims []*domain.AtomicClaim, verdictByClaim map[string]*domain.CBClaimVerdict) float64 {
	var weightedSum, totalWeight float64
	for _, c := range claims {
		v, ok := verdictByClaim[c.ID]
		if !ok {
			continue
		}
		w := weightFor(c, v)
		weightedSum += v.Confidence * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 50
	}
	return math.Round(weightedSum / totalWeight)
}

// Config tunes the pruning and contestation-monitoring thresholds.
type Config struct {
	MinEvidenceForTangential int
	RequireQualityEvidence   bool
	WarningThresholdPercent  float64
	MaxOpinionCount          int
}

func DefaultConfig() Config {
	return Config{MinEvidenceForTangential: 2, RequireQualityEvidence: false, WarningThresholdPercent: 70, MaxOpinionCount: 0}
}

// evidenceCountForClaim and hasQualityEvidence help pruneTangentialBaselessClaims
// decide whether a non-direct claim has earned its place in the assessment.
func evidenceCountForClaim(claimID string, evidence []*domain.EvidenceItem) int {
	count := 0
	for _, e := range evidence {
		for _, id := range e.RelevantClaimIDs {
			if id == claimID {
				count++
				break
			}
		}
	}
	return count
}

func hasQualityEvidence(claimID string, evidence []*domain.EvidenceItem) bool {
	for _, e := range evidence {
		for _, id := range e.RelevantClaimIDs {
			if id != claimID {
				continue
			}
			if e.ProbativeValue == domain.ProbativeHigh || e.ProbativeValue == domain.ProbativeMedium {
				return true
			}
		}
	}
	return false
}

// pruneTangentialBaselessClaims drops tangential/irrelevant claims that lack
// enough (or quality-enough) evidence to justify inclusion. Direct claims
// are never pruned regardless of evidence volume (spec.md §4.11).
func pruneTangentialBaselessClaims(claims []*domain.AtomicClaim, evidence []*domain.EvidenceItem, cfg Config) []*domain.AtomicClaim {
	out := make([]*domain.AtomicClaim, 0, len(claims))
	for _, c := range claims {
		if c.ThesisRelevance == domain.RelevanceDirect {
			out = append(out, c)
			continue
		}
		count := evidenceCountForClaim(c.ID, evidence)
		if count < cfg.MinEvidenceForTangential {
			continue
		}
		if cfg.RequireQualityEvidence && !hasQualityEvidence(c.ID, evidence) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// pruneOpinionOnlyFactors drops non-direct "key factors" (tangential claims
// surfaced as supporting context) whose factual basis is pure opinion or
// unknown, never touching direct claims.
func pruneOpinionOnlyFactors(claims []*domain.AtomicClaim, verdictByClaim map[string]*domain.CBClaimVerdict) []*domain.AtomicClaim {
	out := make([]*domain.AtomicClaim, 0, len(claims))
	for _, c := range claims {
		if c.ThesisRelevance == domain.RelevanceDirect {
			out = append(out, c)
			continue
		}
		v, ok := verdictByClaim[c.ID]
		if ok && (v.FactualBasis == domain.FactualOpinion || v.FactualBasis == domain.FactualUnknown) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// opinionRatio reports the fraction of non-direct "key factor" claims whose
// factual basis is opinion, over all non-direct claims.
func opinionRatio(claims []*domain.AtomicClaim, verdictByClaim map[string]*domain.CBClaimVerdict) (ratio float64, opinions, documented int) {
	for _, c := range claims {
		if c.ThesisRelevance == domain.RelevanceDirect {
			continue
		}
		v, ok := verdictByClaim[c.ID]
		if !ok {
			continue
		}
		if v.FactualBasis == domain.FactualOpinion {
			opinions++
		} else {
			documented++
		}
	}
	total := opinions + documented
	if total == 0 {
		return 0, 0, 0
	}
	return float64(opinions) / float64(total), opinions, documented
}

// dropSurplusOpinionFactors enforces maxOpinionCount by dropping the surplus
// opinion-only non-direct claims, preferring to keep those whose claim
// direction supports the thesis (spec.md §4.11 "preferring supports=yes").
func dropSurplusOpinionFactors(claims []*domain.AtomicClaim, verdictByClaim map[string]*domain.CBClaimVerdict, maxOpinionCount int) []*domain.AtomicClaim {
	if maxOpinionCount <= 0 {
		return claims
	}
	var opinionClaims, rest []*domain.AtomicClaim
	for _, c := range claims {
		v, ok := verdictByClaim[c.ID]
		if c.ThesisRelevance != domain.RelevanceDirect && ok && v.FactualBasis == domain.FactualOpinion {
			opinionClaims = append(opinionClaims, c)
			continue
		}
		rest = append(rest, c)
	}
	if len(opinionClaims) <= maxOpinionCount {
		return claims
	}
	// Stable-partition: supports_thesis claims first, so truncation keeps them.
	preferred := make([]*domain.AtomicClaim, 0, len(opinionClaims))
	other := make([]*domain.AtomicClaim, 0, len(opinionClaims))
	for _, c := range opinionClaims {
		if c.ClaimDirection == domain.DirectionSupportsThesis {
			preferred = append(preferred, c)
		} else {
			other = append(other, c)
		}
	}
	kept := append(preferred, other...)
	kept = kept[:maxOpinionCount]
	return append(rest, kept...)
}
