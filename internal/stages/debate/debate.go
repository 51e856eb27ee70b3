// Package debate implements Stage 4 (C10), the verdict debate engine: a
// five-step LLM sequence per claim set, followed by a deterministic
// structural consistency check that runs after the last step and only
// reports warnings.
package debate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
)

// Prompt keys this stage registers with the shared llmclient.Client.
const (
	AdvocatePromptKey       = "VERDICT_ADVOCATE"
	ChallengerPromptKey     = "VERDICT_CHALLENGER"
	ReconciliationPromptKey = "VERDICT_RECONCILIATION"
	ValidationGroundingKey  = "VERDICT_VALIDATE_GROUNDING"
	ValidationDirectionKey  = "VERDICT_VALIDATE_DIRECTION"
)

var (
	AdvocateSchema       = llmclient.Schema{RequiredFields: []string{"verdicts"}}
	ChallengerSchema     = llmclient.Schema{RequiredFields: []string{"challenges"}}
	ReconciliationSchema = llmclient.Schema{RequiredFields: []string{"verdicts"}}
	ValidationSchema     = llmclient.Schema{RequiredFields: []string{"issues"}}
)

// SelfConsistencyMode is the closed option set for Step 2.
type SelfConsistencyMode string

const (
	SelfConsistencyEnabled  SelfConsistencyMode = "enabled"
	SelfConsistencyDisabled SelfConsistencyMode = "disabled"
)

// stableThreshold, highHarmMinConfidence are spec.md §4.10 defaults.
const (
	stableThreshold       = 5.0
	highHarmMinConfidence = 50.0
)

// Config configures one debate run.
type Config struct {
	SelfConsistencyMode SelfConsistencyMode
	Temperature         float64
	Deterministic       bool
}

func DefaultConfig() Config {
	return Config{SelfConsistencyMode: SelfConsistencyEnabled, Temperature: 0.4}
}

// Run executes the five-step sequence for claims against evidence/boundaries
// already built by earlier stages, returning verdicts plus advisory warnings.
// coverage is the boundary stage's claim x boundary coverage matrix, used to
// detect the zero-evidence invariant independently of the advocate's
// self-reported citation lists.
func Run(ctx context.Context, client *llmclient.Client, claims []*domain.AtomicClaim, evidence []*domain.EvidenceItem, boundaries []*domain.ClaimBoundary, coverage *domain.CoverageMatrix, cfg Config) ([]*domain.CBClaimVerdict, []domain.Warning, error) {
	// Step 1 — Advocate.
	advocateData, advocateOutcome, err := callAdvocate(ctx, client, claims, evidence, boundaries, llmclient.CallOptions{Tier: llmclient.TierSonnet, Deterministic: cfg.Deterministic})
	if err != nil {
		return nil, nil, fmt.Errorf("debate: advocate call: %w", err)
	}
	var warnings []domain.Warning
	if advocateOutcome.Degraded {
		warnings = append(warnings, domain.NewWarning(domain.WarnDebateProviderFallback, "advocate step degraded: "+advocateOutcome.DegradedReason, nil))
		return emptyVerdicts(claims), warnings, nil
	}
	verdicts := indexVerdicts(advocateData)
	sanitizeVerdicts(verdicts, claims)

	// Steps 2 and 3 run concurrently after Step 1, joined before reconciliation.
	var (
		consistency map[string]*domain.ConsistencyResult
		challenge   *domain.ChallengeDocument
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		consistency = runSelfConsistency(gctx, client, claims, evidence, boundaries, cfg)
		return nil
	})
	group.Go(func() error {
		doc, outcome, cErr := callChallenger(gctx, client, claims, evidence, verdicts, cfg.Deterministic)
		if cErr != nil {
			return cErr
		}
		if outcome.Degraded {
			warnings = append(warnings, domain.NewWarning(domain.WarnDebateProviderFallback, "challenger step degraded: "+outcome.DegradedReason, nil))
		}
		challenge = doc
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, nil, fmt.Errorf("debate: step 2/3 join: %w", err)
	}
	for claimID, cr := range consistency {
		if v, ok := verdicts[claimID]; ok {
			v.ConsistencyResult = cr
		}
	}

	// Step 4 — Reconciliation.
	reconciled, reconOutcome, err := callReconciliation(ctx, client, verdicts, challenge, cfg.Deterministic)
	if err != nil {
		return nil, nil, fmt.Errorf("debate: reconciliation call: %w", err)
	}
	if reconOutcome.Degraded {
		warnings = append(warnings, domain.NewWarning(domain.WarnDebateProviderFallback, "reconciliation step degraded: "+reconOutcome.DegradedReason, nil))
	} else {
		applyReconciliation(verdicts, reconciled)
	}

	// Step 5 — Validation (advisory only).
	validationWarnings := runValidation(ctx, client, verdicts, evidence, cfg.Deterministic)
	warnings = append(warnings, validationWarnings...)

	ordered := orderedVerdicts(claims, verdicts)

	for _, v := range ordered {
		spread := 0.0
		if v.ConsistencyResult != nil {
			spread = v.ConsistencyResult.Spread
		}
		applySpreadAdjustment(v, spread)
	}

	claimByID := make(map[string]*domain.AtomicClaim, len(claims))
	for _, c := range claims {
		claimByID[c.ID] = c
	}
	for _, v := range ordered {
		c := claimByID[v.ClaimID]
		if c == nil {
			continue
		}
		if enforceHarmConfidenceFloor(v, c.HarmPotential) {
			warnings = append(warnings, domain.NewWarning(domain.WarnHarmConfidenceFloorTriggered,
				fmt.Sprintf("claim %s downgraded to UNVERIFIED: harm potential %s with confidence %.1f below floor", v.ClaimID, c.HarmPotential, v.Confidence), nil))
		}
	}

	evidenceIDs := make(map[string]bool, len(evidence))
	for _, e := range evidence {
		evidenceIDs[e.ID] = true
	}
	boundaryIDs := make(map[string]bool, len(boundaries))
	for _, b := range boundaries {
		boundaryIDs[b.ID] = true
	}
	warnings = append(warnings, structuralConsistencyCheck(ordered, evidenceIDs, boundaryIDs, coverage)...)

	return ordered, warnings, nil
}

// applySpreadAdjustment scales confidence by the spread-based multiplier
// table (spec.md §4.10 deterministic post-processing).
func applySpreadAdjustment(v *domain.CBClaimVerdict, spread float64) {
	var multiplier float64
	switch {
	case spread <= 5:
		multiplier = 1.0
	case spread <= 12:
		multiplier = 0.9
	case spread <= 20:
		multiplier = 0.7
	default:
		multiplier = 0.4
	}
	v.Confidence = clamp(v.Confidence*multiplier, 0, 100)
}

// enforceHarmConfidenceFloor downgrades high-harm, low-confidence verdicts to
// UNVERIFIED while preserving the numeric fields for transparency. Reports
// whether it changed the verdict label.
func enforceHarmConfidenceFloor(v *domain.CBClaimVerdict, harm domain.HarmPotential) bool {
	if (harm == domain.HarmCritical || harm == domain.HarmHigh) && v.Confidence < highHarmMinConfidence && v.Verdict != "UNVERIFIED" {
		v.Verdict = "UNVERIFIED"
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// structuralConsistencyCheck enforces spec.md §4.10's five deterministic
// invariants; it only ever returns warnings, never mutates a verdict.
func structuralConsistencyCheck(verdicts []*domain.CBClaimVerdict, evidenceIDs, boundaryIDs map[string]bool, coverage *domain.CoverageMatrix) []domain.Warning {
	var warnings []domain.Warning
	var zeroEvidenceClaims map[string]bool
	if coverage != nil {
		zeroEvidenceClaims = make(map[string]bool)
		for _, claimID := range coverage.ZeroEvidenceClaims() {
			zeroEvidenceClaims[claimID] = true
		}
	}
	for _, v := range verdicts {
		for _, id := range append(append([]string{}, v.SupportingEvidenceIDs...), v.ContradictingEvidenceIDs...) {
			if !evidenceIDs[id] {
				warnings = append(warnings, domain.NewWarning(domain.WarnStructuralInvariantViolation,
					fmt.Sprintf("claim %s cites unknown evidence id %s", v.ClaimID, id), nil))
			}
		}
		for _, bf := range v.BoundaryFindings {
			if !boundaryIDs[bf.BoundaryID] {
				warnings = append(warnings, domain.NewWarning(domain.WarnStructuralInvariantViolation,
					fmt.Sprintf("claim %s cites unknown boundary id %s", v.ClaimID, bf.BoundaryID), nil))
			}
		}
		if v.TruthPercentage < 0 || v.TruthPercentage > 100 {
			warnings = append(warnings, domain.NewWarning(domain.WarnStructuralInvariantViolation,
				fmt.Sprintf("claim %s truth percentage out of range: %v", v.ClaimID, v.TruthPercentage), nil))
		}
		if !domain.LabelMatchesBand(v.Verdict, v.TruthPercentage) {
			warnings = append(warnings, domain.NewWarning(domain.WarnStructuralInvariantViolation,
				fmt.Sprintf("claim %s verdict label %q does not match its truth percentage band", v.ClaimID, v.Verdict), nil))
		}
		zeroEvidence := zeroEvidenceClaims != nil && zeroEvidenceClaims[v.ClaimID]
		if zeroEvidenceClaims == nil {
			zeroEvidence = len(v.SupportingEvidenceIDs) == 0 && len(v.ContradictingEvidenceIDs) == 0
		}
		if zeroEvidence {
			warnings = append(warnings, domain.NewWarning(domain.WarnStructuralInvariantViolation,
				fmt.Sprintf("claim %s has zero evidence items", v.ClaimID), nil))
		}
	}
	return warnings
}

func emptyVerdicts(claims []*domain.AtomicClaim) []*domain.CBClaimVerdict {
	out := make([]*domain.CBClaimVerdict, 0, len(claims))
	for _, c := range claims {
		out = append(out, &domain.CBClaimVerdict{ID: "CV_" + c.ID, ClaimID: c.ID, TruthPercentage: 50, Verdict: "UNVERIFIED", HarmPotential: c.HarmPotential})
	}
	return out
}

func orderedVerdicts(claims []*domain.AtomicClaim, byClaim map[string]*domain.CBClaimVerdict) []*domain.CBClaimVerdict {
	out := make([]*domain.CBClaimVerdict, 0, len(claims))
	for _, c := range claims {
		if v, ok := byClaim[c.ID]; ok {
			out = append(out, v)
			continue
		}
		out = append(out, &domain.CBClaimVerdict{ID: "CV_" + c.ID, ClaimID: c.ID, TruthPercentage: 50, Verdict: "UNVERIFIED", HarmPotential: c.HarmPotential})
	}
	return out
}

// sanitizeVerdicts clamps truthPercentage/confidence into [0,100] and
// defaults missing harm potential from the source claim (spec.md §4.10
// step 1 output sanitation).
func sanitizeVerdicts(verdicts map[string]*domain.CBClaimVerdict, claims []*domain.AtomicClaim) {
	claimByID := make(map[string]*domain.AtomicClaim, len(claims))
	for _, c := range claims {
		claimByID[c.ID] = c
	}
	for claimID, v := range verdicts {
		v.TruthPercentage = clamp(v.TruthPercentage, 0, 100)
		v.Confidence = clamp(v.Confidence, 0, 100)
		if v.HarmPotential == "" {
			if c := claimByID[claimID]; c != nil {
				v.HarmPotential = c.HarmPotential
			}
		}
		if v.Verdict == "" {
			v.Verdict = domain.VerdictLabelFor(v.TruthPercentage, domain.InputClaim)
		}
	}
}
