package debate

import (
	"context"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

func callAdvocate(ctx context.Context, client *llmclient.Client, claims []*domain.AtomicClaim, evidence []*domain.EvidenceItem, boundaries []*domain.ClaimBoundary, opts llmclient.CallOptions) (interface{}, llmclient.Outcome, error) {
	data, outcome, err := client.Call(ctx, AdvocatePromptKey, map[string]interface{}{
		"claims":     claimsPayload(claims),
		"evidence":   evidencePayload(evidence),
		"boundaries": boundariesPayload(boundaries),
	}, opts)
	if err != nil {
		return nil, outcome, err
	}
	return data["verdicts"], outcome, nil
}

// runSelfConsistency runs up to two additional advocate-style calls at a
// sampling temperature and builds each claim's ConsistencyResult from those
// re-run percentages only: the first-pass truth percentage is not one of the
// samples, so Percentages holds at most two values and its third slot stays
// zero. When disabled it returns the "not assessed, treated as stable" shape.
func runSelfConsistency(ctx context.Context, client *llmclient.Client, claims []*domain.AtomicClaim, evidence []*domain.EvidenceItem, boundaries []*domain.ClaimBoundary, cfg Config) map[string]*domain.ConsistencyResult {
	out := make(map[string]*domain.ConsistencyResult, len(claims))
	if cfg.SelfConsistencyMode == SelfConsistencyDisabled {
		for _, c := range claims {
			out[c.ID] = &domain.ConsistencyResult{ClaimID: c.ID, Assessed: false, Stable: true, Spread: 0}
		}
		return out
	}

	temp := clamp(cfg.Temperature, 0.1, 0.7)
	if cfg.Deterministic {
		temp = 0
	}

	samples := make(map[string][]float64, len(claims))
	for i := 0; i < 2; i++ {
		data, outcome, err := callAdvocate(ctx, client, claims, evidence, boundaries, llmclient.CallOptions{Tier: llmclient.TierSonnet, Temperature: temp, Deterministic: cfg.Deterministic})
		if err != nil || outcome.Degraded {
			continue
		}
		for claimID, v := range indexVerdicts(data) {
			samples[claimID] = append(samples[claimID], v.TruthPercentage)
		}
	}

	for _, c := range claims {
		pcts := samples[c.ID]
		if len(pcts) == 0 {
			out[c.ID] = &domain.ConsistencyResult{ClaimID: c.ID, Assessed: false, Stable: true, Spread: 0}
			continue
		}
		var arr [3]float64
		sum, lo, hi := 0.0, pcts[0], pcts[0]
		for i, p := range pcts {
			if i < 3 {
				arr[i] = p
			}
			sum += p
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		avg := sum / float64(len(pcts))
		spread := hi - lo
		out[c.ID] = &domain.ConsistencyResult{
			ClaimID: c.ID, Percentages: arr, Average: avg, Spread: spread,
			Stable: spread <= stableThreshold, Assessed: true,
		}
	}
	return out
}

func callChallenger(ctx context.Context, client *llmclient.Client, claims []*domain.AtomicClaim, evidence []*domain.EvidenceItem, verdicts map[string]*domain.CBClaimVerdict, deterministic bool) (*domain.ChallengeDocument, llmclient.Outcome, error) {
	data, outcome, err := client.Call(ctx, ChallengerPromptKey, map[string]interface{}{
		"claims":   claimsPayload(claims),
		"evidence": evidencePayload(evidence),
		"verdicts": verdictsPayload(verdicts),
	}, llmclient.CallOptions{Tier: llmclient.TierSonnet, Deterministic: deterministic})
	if err != nil {
		return nil, outcome, err
	}
	if outcome.Degraded {
		return &domain.ChallengeDocument{}, outcome, nil
	}
	return &domain.ChallengeDocument{Challenges: parseChallenges(data["challenges"])}, outcome, nil
}

func callReconciliation(ctx context.Context, client *llmclient.Client, verdicts map[string]*domain.CBClaimVerdict, challenge *domain.ChallengeDocument, deterministic bool) (interface{}, llmclient.Outcome, error) {
	data, outcome, err := client.Call(ctx, ReconciliationPromptKey, map[string]interface{}{
		"verdicts":  verdictsPayload(verdicts),
		"challenge": challenge,
	}, llmclient.CallOptions{Tier: llmclient.TierSonnet, Deterministic: deterministic})
	if err != nil {
		return nil, outcome, err
	}
	return data["verdicts"], outcome, nil
}

// applyReconciliation overwrites the revisable fields on each existing
// verdict from the reconciliation response; a claim absent from the
// response keeps its advocate-stage verdict unchanged (spec.md §4.10 step 4).
func applyReconciliation(verdicts map[string]*domain.CBClaimVerdict, raw interface{}) {
	items, ok := raw.([]interface{})
	if !ok {
		return
	}
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		claimID := stringOr(m["claim_id"], "")
		existing, ok := verdicts[claimID]
		if !ok {
			continue
		}
		existing.TruthPercentage = clamp(floatOr(m["truth_percentage"], existing.TruthPercentage), 0, 100)
		existing.Confidence = clamp(floatOr(m["confidence"], existing.Confidence), 0, 100)
		if r := stringOr(m["reasoning"], ""); r != "" {
			existing.Reasoning = r
		}
		if v := stringOr(m["verdict"], ""); v != "" {
			existing.Verdict = v
		} else {
			existing.Verdict = domain.VerdictLabelFor(existing.TruthPercentage, domain.InputClaim)
		}
		existing.IsContested = boolOr(m["is_contested"], existing.IsContested)
		if fb := stringOr(m["factual_basis"], ""); fb != "" {
			existing.FactualBasis = domain.FactualBasis(fb)
		}
		existing.ChallengeResponses = parseChallengeResponses(m["challenge_responses"])
		// boundaryFindings/evidence-id lists are preserved from the advocate
		// stage unless reconciliation explicitly supplies a replacement.
		if bf := parseBoundaryFindings(m["boundary_findings"]); len(bf) > 0 {
			existing.BoundaryFindings = bf
		}
		if ids := stringSliceOr(m["supporting_evidence_ids"]); len(ids) > 0 {
			existing.SupportingEvidenceIDs = ids
		}
		if ids := stringSliceOr(m["contradicting_evidence_ids"]); len(ids) > 0 {
			existing.ContradictingEvidenceIDs = ids
		}
	}
}

func verdictsPayload(verdicts map[string]*domain.CBClaimVerdict) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(verdicts))
	for _, v := range verdicts {
		out = append(out, map[string]interface{}{
			"claim_id": v.ClaimID, "truth_percentage": v.TruthPercentage, "confidence": v.Confidence,
			"verdict": v.Verdict, "reasoning": v.Reasoning,
			"supporting_evidence_ids": v.SupportingEvidenceIDs, "contradicting_evidence_ids": v.ContradictingEvidenceIDs,
		})
	}
	return out
}

func parseChallenges(raw interface{}) []domain.ClaimChallenge {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]domain.ClaimChallenge, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, domain.ClaimChallenge{
			ClaimID: stringOr(m["claim_id"], ""),
			Points:  parseChallengePoints(m["points"]),
		})
	}
	return out
}

func parseChallengePoints(raw interface{}) []domain.ChallengePoint {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]domain.ChallengePoint, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, domain.ChallengePoint{
			Type: stringOr(m["type"], ""), Description: stringOr(m["description"], ""),
			EvidenceIDs: stringSliceOr(m["evidence_ids"]), Severity: stringOr(m["severity"], "low"),
		})
	}
	return out
}

func parseChallengeResponses(raw interface{}) []domain.ChallengeResponse {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]domain.ChallengeResponse, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, domain.ChallengeResponse{
			ChallengeType: stringOr(m["challenge_type"], ""), Response: stringOr(m["response"], ""),
			VerdictAdjusted: boolOr(m["verdict_adjusted"], false),
		})
	}
	return out
}
