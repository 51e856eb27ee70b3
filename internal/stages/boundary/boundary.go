// Package boundary implements Stage 3 boundary clustering (C9): an LLM call
// that groups evidence into ClaimBoundary clusters, narrowed by an embedding
// pre-cluster pass, followed by deterministic coverage-matrix construction.
package boundary

import (
	"context"
	"fmt"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

// PromptKey is the registered llmclient prompt for boundary clustering.
const PromptKey = "BOUNDARY_CLUSTER"

// Schema is the llmclient.Schema a caller should register under PromptKey.
var Schema = llmclient.Schema{RequiredFields: []string{"boundaries", "evidence_assignments"}}

// Result is Stage 3's output.
type Result struct {
	Boundaries     []*domain.ClaimBoundary
	CoverageMatrix *domain.CoverageMatrix
	Outcome        llmclient.Outcome
}

// Cluster runs the sonnet-tier boundary clustering call, narrowed by a
// pre-cluster embedding pass, then deterministically builds the coverage
// matrix by walking the claim->evidence->boundary traceability graph.
func Cluster(ctx context.Context, client *llmclient.Client, claims []*domain.AtomicClaim, evidence []*domain.EvidenceItem) (Result, error) {
	preclusters, err := PreCluster(ctx, evidence)
	if err != nil {
		preclusters = nil // pre-clustering is advisory; fall through to an unhinted LLM call
	}

	data, outcome, err := client.Call(ctx, PromptKey, map[string]interface{}{
		"claims":        claimPayload(claims),
		"evidence":      evidencePayload(evidence),
		"pre_clusters":  preclusters,
	}, llmclient.CallOptions{Tier: llmclient.TierSonnet})
	if err != nil {
		return Result{}, fmt.Errorf("boundary: llm call: %w", err)
	}
	if outcome.Degraded {
		return Result{Outcome: outcome}, nil
	}

	boundaries := parseBoundaries(data["boundaries"])
	assignments := parseAssignments(data["evidence_assignments"])

	evidenceByID := make(map[string]*domain.EvidenceItem, len(evidence))
	for _, e := range evidence {
		evidenceByID[e.ID] = e
	}
	for evidenceID, boundaryID := range assignments {
		if e, ok := evidenceByID[evidenceID]; ok {
			e.ClaimBoundaryID = boundaryID
		}
	}

	trace := newTraceability()
	for _, e := range evidence {
		for _, claimID := range e.RelevantClaimIDs {
			trace.addClaimEvidenceEdge(claimID, e.ID)
		}
		if e.ClaimBoundaryID != "" {
			trace.addEvidenceBoundaryEdge(e.ID, e.ClaimBoundaryID)
		}
	}

	claimIDs := make([]string, len(claims))
	for i, c := range claims {
		claimIDs[i] = c.ID
	}
	boundaryIDs := make([]string, len(boundaries))
	for i, b := range boundaries {
		boundaryIDs[i] = b.ID
	}
	matrix := domain.NewCoverageMatrix(claimIDs, boundaryIDs)

	evidenceCount := make(map[string]int, len(boundaries))
	for _, claimID := range claimIDs {
		// Evidence referring to an unknown boundary id is ignored (counted 0)
		// without erroring — matrix.Increment already silently no-ops on
		// unknown ids, so the graph walk can be unconditional here.
		for _, boundaryID := range trace.boundariesForClaim(claimID) {
			count := countEvidenceFor(evidence, claimID, boundaryID)
			for i := 0; i < count; i++ {
				matrix.Increment(claimID, boundaryID)
			}
			evidenceCount[boundaryID] += count
		}
	}
	for _, b := range boundaries {
		b.EvidenceCount = evidenceCount[b.ID]
	}

	return Result{Boundaries: boundaries, CoverageMatrix: matrix, Outcome: outcome}, nil
}

func countEvidenceFor(evidence []*domain.EvidenceItem, claimID, boundaryID string) int {
	count := 0
	for _, e := range evidence {
		if e.ClaimBoundaryID != boundaryID {
			continue
		}
		for _, c := range e.RelevantClaimIDs {
			if c == claimID {
				count++
				break
			}
		}
	}
	return count
}

func claimPayload(claims []*domain.AtomicClaim) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(claims))
	for _, c := range claims {
		out = append(out, map[string]interface{}{"id": c.ID, "statement": c.Statement, "category": c.Category})
	}
	return out
}

func evidencePayload(evidence []*domain.EvidenceItem) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(evidence))
	for _, e := range evidence {
		out = append(out, map[string]interface{}{
			"id": e.ID, "statement": e.Statement, "source_url": e.SourceURL, "relevant_claim_ids": e.RelevantClaimIDs,
		})
	}
	return out
}

func parseBoundaries(raw interface{}) []*domain.ClaimBoundary {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	boundaries := make([]*domain.ClaimBoundary, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		boundaries = append(boundaries, &domain.ClaimBoundary{
			ID:                stringOr(m["id"], fmt.Sprintf("CB_%d", i+1)),
			Name:              stringOr(m["name"], ""),
			ShortName:         stringOr(m["short_name"], ""),
			Methodology:       stringOr(m["methodology"], ""),
			Geographic:        stringOr(m["geographic"], ""),
			Temporal:          stringOr(m["temporal"], ""),
			InternalCoherence: floatOr(m["internal_coherence"], 0),
		})
	}
	return boundaries
}

func parseAssignments(raw interface{}) map[string]string {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for evidenceID, boundaryID := range m {
		if s, ok := boundaryID.(string); ok {
			out[evidenceID] = s
		}
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
