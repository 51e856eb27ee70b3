// Package domain defines the core data structures shared by every stage of
// the ClaimBoundary pipeline.
//
// Entities are stored in arenas keyed by string id (AtomicClaim.ID,
// EvidenceItem.ID, ClaimBoundary.ID, AnalysisContext.ID); cross-references
// between them are ids, never pointers, so the object graph stays acyclic
// and serializable regardless of how components link entities together.
package domain

import "time"

// Centrality ranks how load-bearing a claim is to the input's thesis.
type Centrality string

const (
	CentralityHigh   Centrality = "high"
	CentralityMedium Centrality = "medium"
	CentralityLow    Centrality = "low"
)

// HarmPotential ranks the real-world consequence of an incorrect verdict.
type HarmPotential string

const (
	HarmCritical HarmPotential = "critical"
	HarmHigh     HarmPotential = "high"
	HarmMedium   HarmPotential = "medium"
	HarmLow      HarmPotential = "low"
)

// ClaimDirection describes how a claim relates to the input's overall thesis.
type ClaimDirection string

const (
	DirectionSupportsThesis   ClaimDirection = "supports_thesis"
	DirectionContradictsThesis ClaimDirection = "contradicts_thesis"
	DirectionContextual       ClaimDirection = "contextual"
)

// ThesisRelevance describes how directly a claim bears on the thesis.
type ThesisRelevance string

const (
	RelevanceDirect     ThesisRelevance = "direct"
	RelevanceTangential ThesisRelevance = "tangential"
	RelevanceIrrelevant ThesisRelevance = "irrelevant"
)

// GroundingQuality describes how well a claim is anchored in checkable fact.
type GroundingQuality string

const (
	GroundingStrong   GroundingQuality = "strong"
	GroundingModerate GroundingQuality = "moderate"
	GroundingWeak     GroundingQuality = "weak"
	GroundingNone     GroundingQuality = "none"
)

// ExpectedEvidenceProfile describes the evidence shape a claim's category predicts.
type ExpectedEvidenceProfile struct {
	Methodologies     []string `json:"methodologies"`
	ExpectedMetrics   []string `json:"expected_metrics"`
	ExpectedSourceTypes []string `json:"expected_source_types"`
}

// AtomicClaim is a minimal verifiable assertion extracted from the input (C7).
type AtomicClaim struct {
	ID                          string                  `json:"id"`
	Statement                   string                  `json:"statement"`
	Category                    string                  `json:"category"`
	Centrality                  Centrality              `json:"centrality"`
	HarmPotential               HarmPotential           `json:"harm_potential"`
	IsCentral                   bool                    `json:"is_central"`
	ClaimDirection              ClaimDirection          `json:"claim_direction"`
	KeyEntities                 []string                `json:"key_entities"`
	CheckWorthiness             float64                 `json:"check_worthiness"`
	SpecificityScore            float64                 `json:"specificity_score"`
	GroundingQuality            GroundingQuality        `json:"grounding_quality"`
	ExpectedEvidenceProfile     ExpectedEvidenceProfile `json:"expected_evidence_profile"`
	ThesisRelevance             ThesisRelevance         `json:"thesis_relevance"`
	ThesisRelevanceConfidence   float64                 `json:"thesis_relevance_confidence"` // 0-100
	IsCounterClaim              bool                    `json:"is_counter_claim"`
	RelatedContextID            string                  `json:"related_context_id,omitempty"`
}

// ContextType categorizes an AnalysisContext.
type ContextType string

const (
	ContextLegal          ContextType = "legal"
	ContextMethodological ContextType = "methodological"
	ContextGeographic     ContextType = "geographic"
	ContextTemporal       ContextType = "temporal"
	ContextOther          ContextType = "other"
)

// UnscopedContextID is the sink context id for evidence that cannot be
// attributed to exactly one context.
const UnscopedContextID = "CTX_UNSCOPED"

// GeneralContextID is the fallback context id when extraction produced none.
const GeneralContextID = "CTX_1"

// AnalysisContext is a bounded frame (scope) within which claims are judged.
type AnalysisContext struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	ShortName string                 `json:"short_name"`
	Type      ContextType            `json:"type"`
	Subject   string                 `json:"subject"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Date      string                 `json:"date,omitempty"`
	Status    string                 `json:"status"`
}

// EvidenceScope records the scope metadata an evidence item was gathered under.
type EvidenceScope struct {
	Name        string `json:"name,omitempty"`
	Methodology string `json:"methodology,omitempty"`
	Temporal    string `json:"temporal,omitempty"`
	Geographic  string `json:"geographic,omitempty"`
}

// ProbativeValue is the evidential weight of an item.
type ProbativeValue string

const (
	ProbativeHigh   ProbativeValue = "high"
	ProbativeMedium ProbativeValue = "medium"
	ProbativeLow    ProbativeValue = "low"
)

// ClaimEvidenceDirection describes how an evidence item bears on a claim.
type ClaimEvidenceDirection string

const (
	EvidenceSupports    ClaimEvidenceDirection = "supports"
	EvidenceContradicts ClaimEvidenceDirection = "contradicts"
	EvidenceNeutral     ClaimEvidenceDirection = "neutral"
	EvidenceMixed       ClaimEvidenceDirection = "mixed"
)

// EvidenceItem is a single piece of evidence extracted from a fetched source (C8).
type EvidenceItem struct {
	ID                string                 `json:"id"`
	Statement         string                 `json:"statement"`
	Category          string                 `json:"category"`
	Specificity       float64                `json:"specificity"`
	SourceID          string                 `json:"source_id"`
	SourceURL         string                 `json:"source_url"`
	SourceTitle       string                 `json:"source_title"`
	SourceExcerpt     string                 `json:"source_excerpt"`
	ClaimDirection    ClaimEvidenceDirection `json:"claim_direction"`
	ProbativeValue    ProbativeValue         `json:"probative_value"`
	EvidenceScope     EvidenceScope          `json:"evidence_scope"`
	ClaimBoundaryID   string                 `json:"claim_boundary_id,omitempty"`
	RelevantClaimIDs  []string               `json:"relevant_claim_ids"`
	ContextID         string                 `json:"context_id,omitempty"`
}

// FetchedSource is a single fetched article/page.
type FetchedSource struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	FullText         string    `json:"full_text"`
	FetchedAt        time.Time `json:"fetched_at"`
	Category         string    `json:"category,omitempty"`
	FetchSuccess     bool      `json:"fetch_success"`
	TrackRecordScore *float64  `json:"track_record_score,omitempty"`
}

// ClaimBoundary clusters evidence sharing methodology/geography/temporality (C9).
type ClaimBoundary struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	ShortName           string   `json:"short_name"`
	Methodology         string   `json:"methodology,omitempty"`
	Geographic          string   `json:"geographic,omitempty"`
	Temporal            string   `json:"temporal,omitempty"`
	InternalCoherence   float64  `json:"internal_coherence"`
	ConstituentContexts []string `json:"constituent_contexts"`
	EvidenceCount       int      `json:"evidence_count"`
}

// CoverageMatrix is a dense |claims|x|boundaries| count table with inverse indexes.
type CoverageMatrix struct {
	Claims     []string         `json:"claims"`
	Boundaries []string         `json:"boundaries"`
	Counts     [][]int          `json:"counts"`
	claimIdx   map[string]int   `json:"-"`
	boundIdx   map[string]int   `json:"-"`
}

// ConsistencyResult is the outcome of the self-consistency debate step (C10 step 2).
type ConsistencyResult struct {
	ClaimID     string     `json:"claim_id"`
	Percentages [3]float64 `json:"percentages"`
	Average     float64    `json:"average"`
	Spread      float64    `json:"spread"`
	Stable      bool       `json:"stable"`
	Assessed    bool       `json:"assessed"`
}

// ChallengePoint is one critique raised by the adversarial challenger.
type ChallengePoint struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	EvidenceIDs []string `json:"evidence_ids"`
	Severity    string   `json:"severity"` // low|medium|high
}

// ClaimChallenge is the set of challenge points raised against one claim.
type ClaimChallenge struct {
	ClaimID string           `json:"claim_id"`
	Points  []ChallengePoint `json:"points"`
}

// ChallengeDocument is the full output of the adversarial challenge step.
type ChallengeDocument struct {
	Challenges []ClaimChallenge `json:"challenges"`
}

// ChallengeResponse records how reconciliation addressed one challenge point.
type ChallengeResponse struct {
	ChallengeType   string `json:"challenge_type"`
	Response        string `json:"response"`
	VerdictAdjusted bool   `json:"verdict_adjusted"`
}

// BoundaryFinding is a per-boundary judgment contributing to a claim's verdict.
type BoundaryFinding struct {
	BoundaryID string  `json:"boundary_id"`
	Finding    string  `json:"finding"`
	Support    float64 `json:"support"` // -1..1
}

// FactualBasis categorizes how a claim's verdict is grounded.
type FactualBasis string

const (
	FactualEstablished FactualBasis = "established"
	FactualDisputed    FactualBasis = "disputed"
	FactualOpinion     FactualBasis = "opinion"
	FactualAlleged     FactualBasis = "alleged"
	FactualUnknown     FactualBasis = "unknown"
)

// TriangulationLevel describes agreement across independent boundaries.
type TriangulationLevel string

const (
	TriangulationUnanimous TriangulationLevel = "unanimous"
	TriangulationMajority  TriangulationLevel = "majority"
	TriangulationSplit     TriangulationLevel = "split"
	TriangulationSingle    TriangulationLevel = "single"
	TriangulationNone      TriangulationLevel = "none"
)

// TriangulationScore summarizes cross-boundary agreement for a verdict.
type TriangulationScore struct {
	BoundaryCount int                 `json:"boundary_count"`
	Supporting    int                 `json:"supporting"`
	Contradicting int                 `json:"contradicting"`
	Level         TriangulationLevel  `json:"level"`
	Factor        float64             `json:"factor"`
}

// SourceReliabilityMeta records how source reliability adjusted a verdict (C5/C10).
type SourceReliabilityMeta struct {
	MeanScore       float64 `json:"mean_score"`
	UnknownSources  int     `json:"unknown_sources"`
	AdjustedTruth   float64 `json:"adjusted_truth"`
	AdjustedConfidence float64 `json:"adjusted_confidence"`
}

// CBClaimVerdict is the final per-claim verdict (C10/C11).
type CBClaimVerdict struct {
	ID                      string                  `json:"id"`
	ClaimID                 string                  `json:"claim_id"`
	TruthPercentage         float64                 `json:"truth_percentage"`
	Verdict                 string                  `json:"verdict"`
	Confidence              float64                 `json:"confidence"`
	Reasoning               string                  `json:"reasoning"`
	HarmPotential           HarmPotential           `json:"harm_potential"`
	IsContested             bool                    `json:"is_contested"`
	FactualBasis            FactualBasis            `json:"factual_basis"`
	SupportingEvidenceIDs   []string                `json:"supporting_evidence_ids"`
	ContradictingEvidenceIDs []string               `json:"contradicting_evidence_ids"`
	BoundaryFindings        []BoundaryFinding       `json:"boundary_findings"`
	ConsistencyResult       *ConsistencyResult      `json:"consistency_result,omitempty"`
	ChallengeResponses      []ChallengeResponse     `json:"challenge_responses,omitempty"`
	TriangulationScore      TriangulationScore      `json:"triangulation_score"`
	EvidenceWeight          *float64                `json:"evidence_weight,omitempty"`
	SourceReliabilityMeta   *SourceReliabilityMeta  `json:"source_reliability_meta,omitempty"`
}

// VerdictNarrative is the synthesized natural-language summary of an assessment (C11).
type VerdictNarrative struct {
	Headline              string   `json:"headline"`
	EvidenceBaseSummary   string   `json:"evidence_base_summary"`
	KeyFinding            string   `json:"key_finding"`
	BoundaryDisagreements string   `json:"boundary_disagreements,omitempty"`
	Limitations           string   `json:"limitations"`
}

// FinalAssessment is the top-level aggregated output of a run.
type FinalAssessment struct {
	OverallTruthPercentage float64            `json:"overall_truth_percentage"`
	OverallVerdict         string             `json:"overall_verdict"`
	Confidence             float64            `json:"confidence"`
	ClaimVerdicts          []*CBClaimVerdict  `json:"claim_verdicts"`
	VerdictNarrative       *VerdictNarrative  `json:"verdict_narrative,omitempty"`
	Warnings               []Warning          `json:"warnings"`
	Metrics                map[string]interface{} `json:"metrics,omitempty"`
}

// NewCoverageMatrix builds a dense claim x boundary matrix with inverse indexes.
func NewCoverageMatrix(claimIDs, boundaryIDs []string) *CoverageMatrix {
	cm := &CoverageMatrix{
		Claims:     append([]string{}, claimIDs...),
		Boundaries: append([]string{}, boundaryIDs...),
		claimIdx:   make(map[string]int, len(claimIDs)),
		boundIdx:   make(map[string]int, len(boundaryIDs)),
	}
	cm.Counts = make([][]int, len(claimIDs))
	for i := range cm.Counts {
		cm.Counts[i] = make([]int, len(boundaryIDs))
	}
	for i, id := range claimIDs {
		cm.claimIdx[id] = i
	}
	for i, id := range boundaryIDs {
		cm.boundIdx[id] = i
	}
	return cm
}

// Increment bumps the count for (claimID, boundaryID). Unknown ids are ignored
// without erroring, per spec.md §4.9.
func (cm *CoverageMatrix) Increment(claimID, boundaryID string) {
	ci, ok := cm.claimIdx[claimID]
	if !ok {
		return
	}
	bi, ok := cm.boundIdx[boundaryID]
	if !ok {
		return
	}
	cm.Counts[ci][bi]++
}

// Count returns the evidence count for (claimID, boundaryID), 0 if unknown.
func (cm *CoverageMatrix) Count(claimID, boundaryID string) int {
	ci, ok := cm.claimIdx[claimID]
	if !ok {
		return 0
	}
	bi, ok := cm.boundIdx[boundaryID]
	if !ok {
		return 0
	}
	return cm.Counts[ci][bi]
}

// BoundariesForClaim returns every boundary id with at least one evidence item
// linked to claimID.
func (cm *CoverageMatrix) BoundariesForClaim(claimID string) []string {
	ci, ok := cm.claimIdx[claimID]
	if !ok {
		return nil
	}
	var out []string
	for bi, boundaryID := range cm.Boundaries {
		if cm.Counts[ci][bi] > 0 {
			out = append(out, boundaryID)
		}
	}
	return out
}

// ClaimsForBoundary returns every claim id with at least one evidence item
// linked to boundaryID.
func (cm *CoverageMatrix) ClaimsForBoundary(boundaryID string) []string {
	bi, ok := cm.boundIdx[boundaryID]
	if !ok {
		return nil
	}
	var out []string
	for ci, claimID := range cm.Claims {
		if cm.Counts[ci][bi] > 0 {
			out = append(out, claimID)
		}
	}
	return out
}

// ZeroEvidenceClaims returns claims whose row is entirely zero.
func (cm *CoverageMatrix) ZeroEvidenceClaims() []string {
	var out []string
	for ci, claimID := range cm.Claims {
		total := 0
		for _, c := range cm.Counts[ci] {
			total += c
		}
		if total == 0 {
			out = append(out, claimID)
		}
	}
	return out
}
