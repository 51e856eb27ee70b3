// Package aggregate implements Stage 5 (C11): per-claim weighting, pruning,
// the overall weighted truth percentage, and narrative synthesis.
package aggregate

import (
	"context"
	"fmt"
	"math"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

// NarrativePromptKey is the registered llmclient prompt for narrative synthesis.
const NarrativePromptKey = "VERDICT_NARRATIVE"

// NarrativeSchema is the schema a caller should register under NarrativePromptKey.
var NarrativeSchema = llmclient.Schema{RequiredFields: []string{"headline", "evidence_base_summary", "key_finding", "limitations"}}

// boundaryDisagreementThreshold is the percentage-point gap between two
// boundaries' support levels that forces the narrative to mention the split.
const boundaryDisagreementThreshold = 20.0

// Aggregate runs pruning, weighting, and narrative synthesis over a claim
// set already carrying verdicts from the debate stage (C10).
func Aggregate(ctx context.Context, client *llmclient.Client, claims []*domain.AtomicClaim, verdicts []*domain.CBClaimVerdict, evidence []*domain.EvidenceItem, boundaries []*domain.ClaimBoundary, cfg Config) (*domain.FinalAssessment, []domain.Warning, error) {
	verdictByClaim := make(map[string]*domain.CBClaimVerdict, len(verdicts))
	for _, v := range verdicts {
		verdictByClaim[v.ClaimID] = v
	}

	var warnings []domain.Warning

	surviving := pruneTangentialBaselessClaims(claims, evidence, cfg)

	// Contestation monitoring reads the opinion ratio before opinion-only
	// factors are actually dropped, since the ratio is what justifies the
	// warning in the first place (spec.md §4.11).
	ratio, opinions, documented := opinionRatio(surviving, verdictByClaim)
	threshold := cfg.WarningThresholdPercent
	if threshold == 0 {
		threshold = 70
	}
	if ratio*100 > threshold {
		warnings = append(warnings, domain.NewWarning(domain.WarnHighOpinionRatio,
			fmt.Sprintf("opinion-only claims make up %.0f%% of non-direct key factors (%d opinion / %d documented)", ratio*100, opinions, documented), nil))
	}

	surviving = pruneOpinionOnlyFactors(surviving, verdictByClaim)
	surviving = dropSurplusOpinionFactors(surviving, verdictByClaim, cfg.MaxOpinionCount)

	overallTruth := weightedAverage(surviving, verdictByClaim)
	overallConf := overallConfidence(surviving, verdictByClaim)
	overallVerdict := domain.VerdictLabelFor(overallTruth, domain.InputClaim)

	survivingVerdicts := make([]*domain.CBClaimVerdict, 0, len(surviving))
	for _, c := range surviving {
		if v, ok := verdictByClaim[c.ID]; ok {
			survivingVerdicts = append(survivingVerdicts, v)
		}
	}

	disagreementGap, mustMentionDisagreement := boundaryDisagreementGap(verdicts, boundaries)

	narrative, outcome := synthesizeNarrative(ctx, client, overallTruth, overallVerdict, survivingVerdicts, boundaries, disagreementGap, mustMentionDisagreement)
	if outcome.Degraded {
		warnings = append(warnings, domain.NewWarning(domain.WarnDebateProviderFallback, "narrative synthesis degraded: "+outcome.DegradedReason, nil))
	}
	if mustMentionDisagreement && narrative.BoundaryDisagreements == "" {
		narrative.BoundaryDisagreements = fmt.Sprintf("Independent evidence groupings disagree by %.0f percentage points; this assessment reflects the weighted average across them.", disagreementGap)
	}

	assessment := &domain.FinalAssessment{
		OverallTruthPercentage: overallTruth,
		OverallVerdict:         overallVerdict,
		Confidence:             overallConf,
		ClaimVerdicts:          verdicts,
		VerdictNarrative:       narrative,
		Warnings:               warnings,
	}
	return assessment, warnings, nil
}

// boundaryDisagreementGap computes the spread between the most- and
// least-supportive boundary, averaging each boundary's findings across all
// claims that cite it (spec.md §4.11: "must mention disagreement when two
// boundaries differ by >20 pp").
func boundaryDisagreementGap(verdicts []*domain.CBClaimVerdict, boundaries []*domain.ClaimBoundary) (float64, bool) {
	if len(boundaries) < 2 {
		return 0, false
	}
	sum := make(map[string]float64)
	count := make(map[string]int)
	for _, v := range verdicts {
		for _, bf := range v.BoundaryFindings {
			sum[bf.BoundaryID] += bf.Support
			count[bf.BoundaryID]++
		}
	}
	var lo, hi float64
	first := true
	for boundaryID, total := range sum {
		if count[boundaryID] == 0 {
			continue
		}
		pct := 50 + 50*(total/float64(count[boundaryID]))
		if first {
			lo, hi = pct, pct
			first = false
			continue
		}
		if pct < lo {
			lo = pct
		}
		if pct > hi {
			hi = pct
		}
	}
	gap := hi - lo
	return gap, gap > boundaryDisagreementThreshold
}

func synthesizeNarrative(ctx context.Context, client *llmclient.Client, overallTruth float64, overallVerdict string, verdicts []*domain.CBClaimVerdict, boundaries []*domain.ClaimBoundary, gap float64, mustMention bool) (*domain.VerdictNarrative, llmclient.Outcome) {
	payload := map[string]interface{}{
		"overall_truth_percentage": overallTruth,
		"overall_verdict":          overallVerdict,
		"claim_verdicts":           narrativeVerdictPayload(verdicts),
		"boundaries":               narrativeBoundaryPayload(boundaries),
		"boundary_disagreement_gap":   gap,
		"must_mention_disagreement": mustMention,
	}
	data, outcome, err := client.Call(ctx, NarrativePromptKey, payload, llmclient.CallOptions{Tier: llmclient.TierHaiku})
	if err != nil || outcome.Degraded {
		return fallbackNarrative(overallTruth, overallVerdict), outcome
	}
	return &domain.VerdictNarrative{
		Headline:              stringOr(data["headline"], fmt.Sprintf("Overall assessment: %s", overallVerdict)),
		EvidenceBaseSummary:   stringOr(data["evidence_base_summary"], ""),
		KeyFinding:            stringOr(data["key_finding"], ""),
		BoundaryDisagreements: stringOr(data["boundary_disagreements"], ""),
		Limitations:           stringOr(data["limitations"], ""),
	}, outcome
}

func fallbackNarrative(overallTruth float64, overallVerdict string) *domain.VerdictNarrative {
	return &domain.VerdictNarrative{
		Headline:    fmt.Sprintf("Overall assessment: %s (%.0f%%)", overallVerdict, overallTruth),
		Limitations: "Narrative synthesis was unavailable for this run; only the numeric assessment could be produced.",
	}
}

func narrativeVerdictPayload(verdicts []*domain.CBClaimVerdict) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, map[string]interface{}{
			"claim_id": v.ClaimID, "truth_percentage": math.Round(v.TruthPercentage), "verdict": v.Verdict,
			"confidence": math.Round(v.Confidence), "is_contested": v.IsContested,
		})
	}
	return out
}

func narrativeBoundaryPayload(boundaries []*domain.ClaimBoundary) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(boundaries))
	for _, b := range boundaries {
		out = append(out, map[string]interface{}{"id": b.ID, "name": b.Name, "evidence_count": b.EvidenceCount})
	}
	return out
}

func stringOr(v interface{}, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}
