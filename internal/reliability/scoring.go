package reliability

import (
	"math"
)

// sourceTypeCaps bounds the maximum score a recognized source category can
// reach regardless of what an LLM evaluator returns (spec.md §4.5 step 3).
var sourceTypeCaps = map[string]float64{
	"propaganda_outlet":     0.14,
	"known_disinformation":  0.14,
	"state_controlled_media": 0.42,
	"platform_ugc":          0.42,
}

// legacyLabelAliases normalizes source-type labels an older prompt version
// may still emit (spec.md §9 Open Question resolution).
var legacyLabelAliases = map[string]string{
	"generally_reliable": "reliable",
}

// NormalizeSourceType resolves legacy aliases to the current label set.
func NormalizeSourceType(label string) string {
	if canonical, ok := legacyLabelAliases[label]; ok {
		return canonical
	}
	return label
}

// NormalizeScore accepts a raw score on either a 0-100 or 0-1 scale and
// returns it clamped to 0-1. NaN/Inf collapse to the neutral midpoint;
// negative values floor at 0 (spec.md §4.5 step 2).
func NormalizeScore(raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0.5
	}
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		raw = raw / 100
	}
	if raw > 1 {
		raw = 1
	}
	return raw
}

// ApplySourceTypeCap clamps a normalized score to its source type's ceiling,
// if one is defined. Unknown source types pass through unmodified.
func ApplySourceTypeCap(score float64, sourceType string) float64 {
	sourceType = NormalizeSourceType(sourceType)
	if cap, ok := sourceTypeCaps[sourceType]; ok && score > cap {
		return cap
	}
	return score
}

// MinEvidenceItemsForScore and MinConfidenceForScore gate whether an
// evaluator's output is trustworthy enough to cache at all (spec.md §4.5
// step 4): below either threshold the score is forced to unknown (nil).
const (
	MinEvidenceItemsForScore = 3
	MinConfidenceForScore    = 0.50
)

// InsufficientData reports whether an evaluator's inputs are too thin to
// assign a reliability score at all.
func InsufficientData(evidenceCount int, confidence float64) bool {
	return evidenceCount < MinEvidenceItemsForScore || confidence < MinConfidenceForScore
}

// WeightingResult is the evidence-weighted adjustment applied to a verdict
// by mean source reliability (spec.md §4.10, formula below).
type WeightingResult struct {
	MeanScore          float64
	UnknownSources     int
	AdjustedTruth      float64
	AdjustedConfidence float64
}

// clampPercent keeps a truth percentage within [0, 100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Weight applies the source-reliability adjustment:
//
//	adjustedTruth = clamp(50 + (originalTruth-50)*meanScore, 0, 100)
//	adjustedConfidence = originalConfidence * (0.5 + meanScore/2)
//
// scores with unknown reliability (nil) are excluded from the mean and
// counted in UnknownSources; a wholly-unknown set defaults meanScore to 0.5
// (neutral), which pulls truth halfway toward 50 and scales confidence by
// 0.75.
func Weight(originalTruth, originalConfidence float64, scores []*float64) WeightingResult {
	var sum float64
	known := 0
	unknown := 0
	for _, s := range scores {
		if s == nil {
			unknown++
			continue
		}
		sum += *s
		known++
	}
	mean := 0.5
	if known > 0 {
		mean = sum / float64(known)
	}
	return WeightingResult{
		MeanScore:          mean,
		UnknownSources:     unknown,
		AdjustedTruth:       clampPercent(50 + (originalTruth-50)*mean),
		AdjustedConfidence: originalConfidence * (0.5 + mean/2),
	}
}
