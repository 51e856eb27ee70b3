package debate

import (
	"fmt"

	"github.com/claimboundary/factcheck/internal/domain"
)

func claimsPayload(claims []*domain.AtomicClaim) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(claims))
	for _, c := range claims {
		out = append(out, map[string]interface{}{
			"id": c.ID, "statement": c.Statement, "category": c.Category,
			"harm_potential": string(c.HarmPotential), "context_id": c.RelatedContextID,
		})
	}
	return out
}

func evidencePayload(evidence []*domain.EvidenceItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(evidence))
	for _, e := range evidence {
		out = append(out, map[string]interface{}{
			"id": e.ID, "statement": e.Statement, "source_url": e.SourceURL,
			"relevant_claim_ids": e.RelevantClaimIDs, "claim_boundary_id": e.ClaimBoundaryID,
		})
	}
	return out
}

func boundariesPayload(boundaries []*domain.ClaimBoundary) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(boundaries))
	for _, b := range boundaries {
		out = append(out, map[string]interface{}{"id": b.ID, "name": b.Name, "methodology": b.Methodology})
	}
	return out
}

func indexVerdicts(raw interface{}) map[string]*domain.CBClaimVerdict {
	items, ok := raw.([]interface{})
	out := make(map[string]*domain.CBClaimVerdict)
	if !ok {
		return out
	}
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		claimID := stringOr(m["claim_id"], "")
		if claimID == "" {
			continue
		}
		v := &domain.CBClaimVerdict{
			ID:                       stringOr(m["id"], fmt.Sprintf("CV_%d", i+1)),
			ClaimID:                  claimID,
			TruthPercentage:          floatOr(m["truth_percentage"], 50),
			Verdict:                  stringOr(m["verdict"], ""),
			Confidence:               floatOr(m["confidence"], 50),
			Reasoning:                stringOr(m["reasoning"], ""),
			HarmPotential:            domain.HarmPotential(stringOr(m["harm_potential"], "")),
			IsContested:              boolOr(m["is_contested"], false),
			FactualBasis:             domain.FactualBasis(stringOr(m["factual_basis"], "")),
			SupportingEvidenceIDs:    stringSliceOr(m["supporting_evidence_ids"]),
			ContradictingEvidenceIDs: stringSliceOr(m["contradicting_evidence_ids"]),
			BoundaryFindings:         parseBoundaryFindings(m["boundary_findings"]),
		}
		out[claimID] = v
	}
	return out
}

func parseBoundaryFindings(raw interface{}) []domain.BoundaryFinding {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]domain.BoundaryFinding, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, domain.BoundaryFinding{
			BoundaryID: stringOr(m["boundary_id"], ""),
			Finding:    stringOr(m["finding"], ""),
			Support:    floatOr(m["support"], 0),
		})
	}
	return out
}

func stringOr(v interface{}, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func floatOr(v interface{}, def float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return def
}

func boolOr(v interface{}, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func stringSliceOr(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
