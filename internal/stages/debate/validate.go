package debate

import (
	"context"
	"sync"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

// runValidation runs the two haiku-tier checks of step 5 concurrently:
// grounding (every cited evidence id exists) and direction (claim polarity is
// consistent with its supporting/contradicting evidence lists). Both are
// advisory only — their output only ever contributes warnings, never
// mutates a verdict.
func runValidation(ctx context.Context, client *llmclient.Client, verdicts map[string]*domain.CBClaimVerdict, evidence []*domain.EvidenceItem, deterministic bool) []domain.Warning {
	evidenceIDs := make(map[string]bool, len(evidence))
	for _, e := range evidence {
		evidenceIDs[e.ID] = true
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var warnings []domain.Warning
	addWarning := func(w domain.Warning) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		issues := callValidationIssues(ctx, client, ValidationGroundingKey, verdicts, evidence, deterministic)
		for _, issue := range issues {
			addWarning(domain.NewWarning(domain.WarnStructuralInvariantViolation, "grounding check: "+issue, nil))
		}
	}()
	go func() {
		defer wg.Done()
		issues := callValidationIssues(ctx, client, ValidationDirectionKey, verdicts, evidence, deterministic)
		for _, issue := range issues {
			addWarning(domain.NewWarning(domain.WarnStructuralInvariantViolation, "direction check: "+issue, nil))
		}
	}()
	wg.Wait()
	return warnings
}

func callValidationIssues(ctx context.Context, client *llmclient.Client, promptKey string, verdicts map[string]*domain.CBClaimVerdict, evidence []*domain.EvidenceItem, deterministic bool) []string {
	data, outcome, err := client.Call(ctx, promptKey, map[string]interface{}{
		"verdicts": verdictsPayload(verdicts),
		"evidence": evidencePayload(evidence),
	}, llmclient.CallOptions{Tier: llmclient.TierHaiku, Deterministic: deterministic})
	if err != nil || outcome.Degraded {
		return nil
	}
	return stringSliceOr(data["issues"])
}
