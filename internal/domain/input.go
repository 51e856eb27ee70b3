package domain

// InputKind is advisory: "Was X true?" and "X is true" must produce
// equivalent verdicts (spec.md §8 neutrality property).
type InputKind string

const (
	InputClaim    InputKind = "claim"
	InputQuestion InputKind = "question"
)

// Input is the entry point payload for a ClaimBoundary run.
type Input struct {
	Text          string    `json:"text"`
	Kind          InputKind `json:"kind"`
	Deterministic bool      `json:"deterministic"`
}

// RunMeta describes provenance of a run's result, per spec.md §6.
type RunMeta struct {
	Pipeline       string   `json:"pipeline"`
	Model          string   `json:"model"`
	Provider       string   `json:"provider"`
	SchemaVersion  string   `json:"schema_version"`
	SearchProviders []string `json:"search_providers"`
	LLMCallCount   int      `json:"llm_call_count"`
}

// Understanding bundles the extraction-stage output for the result payload.
type Understanding struct {
	ImpliedClaim    string             `json:"implied_claim"`
	AnalysisContexts []*AnalysisContext `json:"analysis_contexts"`
	AtomicClaims    []*AtomicClaim     `json:"atomic_claims"`
	SubClaims       []*AtomicClaim     `json:"sub_claims,omitempty"`
}

// SearchQueryRecord records one executed search query for diagnostics.
type SearchQueryRecord struct {
	Query         string `json:"query"`
	Focus         string `json:"focus"`
	Iteration     int    `json:"iteration"`
	ResultsCount  int    `json:"results_count"`
	Provider      string `json:"provider"`
}

// QualityGateSummary is the first-class Gate 1 + Gate 4 output (C12).
type QualityGateSummary struct {
	Gate1      Gate1Result `json:"gate1"`
	Gate4      Gate4Result `json:"gate4"`
	AllPassed  bool        `json:"all_passed"`
}

// Gate1Result is claim-fidelity bookkeeping; it never blocks the run.
type Gate1Result struct {
	TotalClaims      int `json:"total_claims"`
	FidelityPassed   int `json:"fidelity_passed"`
	Filtered         int `json:"filtered"`
	CentralRetained  int `json:"central_retained"`
}

// ConfidenceBand classifies a verdict's publishability (C12 Gate 4).
type ConfidenceBand string

const (
	ConfidenceHigh        ConfidenceBand = "high"
	ConfidenceMedium      ConfidenceBand = "medium"
	ConfidenceInsufficient ConfidenceBand = "insufficient"
)

// Gate4Result buckets final verdicts by confidence publishability.
type Gate4Result struct {
	High         []string `json:"high"`
	Medium       []string `json:"medium"`
	Insufficient []string `json:"insufficient"`
}

// RunStatus reports whether a run completed fully or was cut short.
type RunStatus string

const (
	StatusComplete RunStatus = "complete"
	StatusPartial  RunStatus = "partial"
)

// Result is the top-level resultJson shape described in spec.md §6.
type Result struct {
	Meta            RunMeta               `json:"meta"`
	Understanding   Understanding         `json:"understanding"`
	Facts           []*EvidenceItem       `json:"facts"`
	Sources         []*FetchedSource      `json:"sources"`
	SearchQueries   []SearchQueryRecord   `json:"search_queries"`
	ClaimBoundaries []*ClaimBoundary      `json:"claim_boundaries"`
	CoverageMatrix  *CoverageMatrix       `json:"coverage_matrix"`
	ClaimVerdicts   []*CBClaimVerdict     `json:"claim_verdicts"`
	VerdictNarrative *VerdictNarrative    `json:"verdict_narrative,omitempty"`
	QualityGates    QualityGateSummary    `json:"quality_gates"`
	TruthPercentage float64               `json:"truth_percentage"`
	Confidence      float64               `json:"confidence"`
	OverallVerdict  string                `json:"overall_verdict"`
	Warnings        []Warning             `json:"warnings"`
	ResearchStats   map[string]interface{} `json:"research_stats"`
	Status          RunStatus             `json:"status"`
}
