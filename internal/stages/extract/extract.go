// Package extract implements Stage 1 claim extraction (C7): one LLM call
// that decomposes an input into atomic claims and a candidate context list,
// followed by a deterministic post-validation pass.
package extract

import (
	"context"
	"fmt"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
	"github.com/claimboundary/factcheck/internal/scope"
)

// PromptKey is the registered llmclient prompt for claim extraction.
const PromptKey = "EXTRACT_CLAIMS"

// Schema is the llmclient.Schema a caller should register under PromptKey.
var Schema = llmclient.Schema{RequiredFields: []string{"implied_claim", "atomic_claims", "analysis_contexts"}}

// autoDowngradeThreshold and lowConfidenceThreshold gate validateThesisRelevance
// (spec.md §4.7 post-validation pass).
const (
	autoDowngradeThreshold = 60.0
	lowConfidenceThreshold = 70.0
)

// Result is Stage 1's output: the implied single-sentence claim, the atomic
// claim set, candidate contexts (not yet canonicalized), and deterministic
// post-validation notes.
type Result struct {
	ImpliedClaim     string
	AtomicClaims     []*domain.AtomicClaim
	AnalysisContexts []*domain.AnalysisContext
	DowngradedClaims []string // claim ids auto-downgraded direct->tangential
	LoggedLowConfidence []string // claim ids kept but flagged (60-70 band)
	Outcome          llmclient.Outcome
}

// Extract runs the haiku-tier claim-decomposition call and applies the
// deterministic post-validation pass.
func Extract(ctx context.Context, client *llmclient.Client, inputText string, hints []scope.Hint) (Result, error) {
	payload := map[string]interface{}{
		"input_text": inputText,
		"scope_hints": hintPayload(hints),
	}
	data, outcome, err := client.Call(ctx, PromptKey, payload, llmclient.CallOptions{Tier: llmclient.TierHaiku})
	if err != nil {
		return Result{}, fmt.Errorf("extract: llm call: %w", err)
	}

	res := Result{Outcome: outcome}
	if outcome.Degraded {
		return res, nil
	}

	res.ImpliedClaim, _ = data["implied_claim"].(string)
	res.AtomicClaims = parseClaims(data["atomic_claims"])
	res.AnalysisContexts = parseContexts(data["analysis_contexts"])

	validateThesisRelevance(&res)
	return res, nil
}

func hintPayload(hints []scope.Hint) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(hints))
	for _, h := range hints {
		out = append(out, map[string]interface{}{"trigger": h.Trigger, "scopes": h.Scopes})
	}
	return out
}

// validateThesisRelevance applies spec.md §4.7's deterministic downgrade
// rule: below autoDowngradeThreshold, direct relevance is downgraded to
// tangential; between the two thresholds it is kept but logged. Claims are
// never deleted here.
func validateThesisRelevance(res *Result) {
	for _, c := range res.AtomicClaims {
		if c.ThesisRelevance != domain.RelevanceDirect {
			continue
		}
		switch {
		case c.ThesisRelevanceConfidence < autoDowngradeThreshold:
			c.ThesisRelevance = domain.RelevanceTangential
			res.DowngradedClaims = append(res.DowngradedClaims, c.ID)
		case c.ThesisRelevanceConfidence < lowConfidenceThreshold:
			res.LoggedLowConfidence = append(res.LoggedLowConfidence, c.ID)
		}
	}
}

func parseClaims(raw interface{}) []*domain.AtomicClaim {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	claims := make([]*domain.AtomicClaim, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		claim := &domain.AtomicClaim{
			ID:                        stringOr(m["id"], fmt.Sprintf("CLAIM_%d", i+1)),
			Statement:                 stringOr(m["statement"], ""),
			Category:                  stringOr(m["category"], ""),
			Centrality:                domain.Centrality(stringOr(m["centrality"], string(domain.CentralityMedium))),
			HarmPotential:             domain.HarmPotential(stringOr(m["harm_potential"], string(domain.HarmLow))),
			ClaimDirection:            domain.ClaimDirection(stringOr(m["claim_direction"], string(domain.DirectionContextual))),
			ThesisRelevance:           domain.ThesisRelevance(stringOr(m["thesis_relevance"], string(domain.RelevanceTangential))),
			ThesisRelevanceConfidence: floatOr(m["thesis_relevance_confidence"], 50),
			CheckWorthiness:           floatOr(m["check_worthiness"], 0),
			SpecificityScore:          floatOr(m["specificity_score"], 0),
			GroundingQuality:          domain.GroundingQuality(stringOr(m["grounding_quality"], string(domain.GroundingNone))),
			RelatedContextID:          stringOr(m["related_context_id"], ""),
			IsCounterClaim:            boolOr(m["is_counter_claim"]),
			KeyEntities:               stringSliceOr(m["key_entities"]),
		}
		claim.IsCentral = claim.Centrality == domain.CentralityHigh
		claims = append(claims, claim)
	}
	return claims
}

func parseContexts(raw interface{}) []*domain.AnalysisContext {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	contexts := make([]*domain.AnalysisContext, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		contexts = append(contexts, &domain.AnalysisContext{
			ID:      stringOr(m["id"], fmt.Sprintf("RAWCTX_%d", i+1)),
			Name:    stringOr(m["name"], ""),
			Type:    domain.ContextType(stringOr(m["type"], string(domain.ContextOther))),
			Subject: stringOr(m["subject"], ""),
			Date:    stringOr(m["date"], ""),
			Status:  stringOr(m["status"], ""),
		})
	}
	return contexts
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

func boolOr(v interface{}) bool {
	b, _ := v.(bool)
	return b
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
