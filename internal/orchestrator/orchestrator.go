// Package orchestrator wires the pipeline stages (C7-C12) into one run:
// extract, canonicalize scope, research each context, cluster boundaries,
// debate verdicts, apply source-reliability weighting, aggregate, and run
// the quality gates. It owns the per-run budget/health/metrics/event
// collaborators and assembles the resultJson shape described in spec.md §6.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claimboundary/factcheck/internal/auditgraph"
	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/config"
	"github.com/claimboundary/factcheck/internal/determinism"
	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/events"
	"github.com/claimboundary/factcheck/internal/gates"
	"github.com/claimboundary/factcheck/internal/health"
	"github.com/claimboundary/factcheck/internal/llmclient"
	"github.com/claimboundary/factcheck/internal/metrics"
	"github.com/claimboundary/factcheck/internal/reliability"
	"github.com/claimboundary/factcheck/internal/scope"
	"github.com/claimboundary/factcheck/internal/search"
	"github.com/claimboundary/factcheck/internal/stages/aggregate"
	"github.com/claimboundary/factcheck/internal/stages/boundary"
	"github.com/claimboundary/factcheck/internal/stages/debate"
	"github.com/claimboundary/factcheck/internal/stages/extract"
	"github.com/claimboundary/factcheck/internal/stages/research"
)

// SchemaVersion is stamped into every result's meta.schema_version.
const SchemaVersion = "1.0"

// StageError is the diagnostic shape returned when a stage fails in a way
// that aborts the run outright (spec.md §7), distinct from the Warning list
// carried by a completed-but-degraded result.
type StageError struct {
	Stage   string
	Cause   error
	Context string
}

func (e *StageError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, e.Context, e.Cause)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// crashSignature is a known panic message from a historical challenger-step
// bug (an undefined field read on an empty challenge document); a single
// silent retry of the enclosing stage call clears it without surfacing
// noise to the caller.
const crashSignature = "Cannot read properties of undefined (reading 'value')"

// Orchestrator holds the process-wide collaborators built once per process
// (health/reliability caches are safe to share across runs) and the
// run-scoped ones rebuilt per call to Run (budget, metrics).
type Orchestrator struct {
	cfg         *config.Config
	llmProvider llmclient.RawProvider
	searchProv  search.Provider
	translator  search.Translator
	fetcher     research.Fetcher
	health      *health.Tracker
	relCache    *reliability.Cache
	audit       *auditgraph.Client // nil unless cfg.Neo4j.URI is set
	sink        events.Sink
}

// New builds an Orchestrator. fetcher and searchProv are injected so tests
// can substitute fakes; translator may be search.NoopTranslator{}.
func New(cfg *config.Config, llmProvider llmclient.RawProvider, searchProv search.Provider, translator search.Translator, fetcher research.Fetcher, sink events.Sink) (*Orchestrator, error) {
	relCache, err := reliability.NewCache(cfg.Reliability.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open reliability cache: %w", err)
	}
	if sink == nil {
		sink = events.NoopSink{}
	}

	var audit *auditgraph.Client
	if cfg.Neo4j.URI != "" {
		audit, err = auditgraph.NewClient(auditgraph.Config{URI: cfg.Neo4j.URI, Username: cfg.Neo4j.Username, Password: cfg.Neo4j.Password})
		if err != nil {
			return nil, fmt.Errorf("connect audit graph: %w", err)
		}
	}

	return &Orchestrator{
		cfg:         cfg,
		llmProvider: llmProvider,
		searchProv:  searchProv,
		translator:  translator,
		fetcher:     fetcher,
		health:      health.NewTracker(cfg.Health.CircuitThreshold),
		relCache:    relCache,
		audit:       audit,
		sink:        sink,
	}, nil
}

// registerPrompts registers the eleven LLM prompts the pipeline stages call.
// System prompts are deliberately terse: the schema (enforced by Client)
// and the payload do the heavy lifting.
func registerPrompts(client *llmclient.Client) {
	client.Register(llmclient.Prompt{
		Key:          extract.PromptKey,
		SystemPrompt: "Decompose the input into an implied central claim, candidate analysis contexts, and atomic checkable claims. Respond with JSON only.",
		Schema:       extract.Schema,
		DefaultTier:  llmclient.TierHaiku,
	})
	client.Register(llmclient.Prompt{
		Key:          research.QueryGenPromptKey,
		SystemPrompt: "Generate 1-4 targeted search queries that would surface evidence for or against the given claim within the given context. Respond with JSON only.",
		Schema:       research.QueryGenSchema,
		DefaultTier:  llmclient.TierHaiku,
	})
	client.Register(llmclient.Prompt{
		Key:          research.EvidenceExtractPromptKey,
		SystemPrompt: "Extract discrete evidence items from the given articles, each citing its source and indicating whether it supports, contradicts, or is neutral toward the claims it's relevant to. Respond with JSON only.",
		Schema:       research.EvidenceExtractSchema,
		DefaultTier:  llmclient.TierSonnet,
	})
	client.Register(llmclient.Prompt{
		Key:          reliability.EvalPromptKey,
		SystemPrompt: "Assess the given domain's track record for factual reporting: a 0-1 score, a source type category, your confidence, and how much evidence you're basing this on. Respond with JSON only.",
		Schema:       reliability.ReliabilitySchema,
		DefaultTier:  llmclient.TierHaiku,
	})
	client.Register(llmclient.Prompt{
		Key:          boundary.PromptKey,
		SystemPrompt: "Group the given evidence into claim boundaries sharing methodology, geography, or timeframe, and assign each evidence item to a boundary. Respond with JSON only.",
		Schema:       boundary.Schema,
		DefaultTier:  llmclient.TierSonnet,
	})
	client.Register(llmclient.Prompt{
		Key:          debate.AdvocatePromptKey,
		SystemPrompt: "Argue the strongest case for each claim's truth percentage given the evidence and boundaries, citing supporting and contradicting evidence ids. Respond with JSON only.",
		Schema:       debate.AdvocateSchema,
		DefaultTier:  llmclient.TierSonnet,
	})
	client.Register(llmclient.Prompt{
		Key:          debate.ChallengerPromptKey,
		SystemPrompt: "Adversarially challenge each draft verdict: find weak evidence, unaddressed counter-evidence, and overconfidence. Respond with JSON only.",
		Schema:       debate.ChallengerSchema,
		DefaultTier:  llmclient.TierSonnet,
	})
	client.Register(llmclient.Prompt{
		Key:          debate.ReconciliationPromptKey,
		SystemPrompt: "Reconcile each verdict against the challenges raised, adjusting truth percentage or confidence only where a challenge point has merit. Respond with JSON only.",
		Schema:       debate.ReconciliationSchema,
		DefaultTier:  llmclient.TierSonnet,
	})
	client.Register(llmclient.Prompt{
		Key:          debate.ValidationGroundingKey,
		SystemPrompt: "List any verdict that cites an evidence id not present in the evidence set. Respond with JSON only.",
		Schema:       debate.ValidationSchema,
		DefaultTier:  llmclient.TierHaiku,
	})
	client.Register(llmclient.Prompt{
		Key:          debate.ValidationDirectionKey,
		SystemPrompt: "List any verdict whose truth percentage is inconsistent with the direction of its supporting/contradicting evidence. Respond with JSON only.",
		Schema:       debate.ValidationSchema,
		DefaultTier:  llmclient.TierHaiku,
	})
	client.Register(llmclient.Prompt{
		Key:          aggregate.NarrativePromptKey,
		SystemPrompt: "Write a short neutral narrative synthesizing the claim verdicts: a headline, the evidence base, the key finding, any boundary disagreements worth flagging, and limitations. Respond with JSON only.",
		Schema:       aggregate.NarrativeSchema,
		DefaultTier:  llmclient.TierHaiku,
	})
}

// Run executes the full pipeline for one Input and returns the resultJson
// shape from spec.md §6.
func (o *Orchestrator) Run(ctx context.Context, input domain.Input) (*domain.Result, error) {
	start := time.Now()
	bt := budget.NewTracker(o.cfg.Budget.ToBudgetConfig())
	client := llmclient.NewClient(o.llmProvider, bt, o.health)
	registerPrompts(client)

	collector := metrics.NewCollector()
	relTracker := reliability.NewTracker(o.relCache, client)

	if paused, reason := o.health.IsPaused(); paused {
		return o.partialResult(input, nil, nil, domain.NewWarning(domain.WarnSystemPaused, reason, nil)), nil
	}

	runID := uuid.NewString()
	if input.Deterministic {
		runID = determinism.EntityID("run", input.Text, string(input.Kind))
	}
	o.sink.Emit(events.Event{Name: "run.started", Payload: map[string]interface{}{"run_id": runID}})

	// Stage 1: extraction
	hints := scope.PreDetectHints(input.Text)
	extractRes, err := callWithCrashRetry(func() (extract.Result, error) {
		return extract.Extract(ctx, client, input.Text, hints)
	})
	if err != nil {
		return nil, &StageError{Stage: "extract", Cause: err}
	}
	collector.RecordLLMCall(metrics.StageExtract)
	o.sink.Emit(events.Event{Name: "stage.completed", Stage: "extract", Duration: time.Since(start)})

	contexts, remap := scope.Canonicalize(extractRes.AnalysisContexts, input.Text)
	scope.RewriteRelatedContextIDs(extractRes.AtomicClaims, remap)

	// Stage 2: per-context research
	searchOrch := search.NewOrchestrator(o.searchProv, o.translator, o.health)
	researcher := research.NewResearcher(client, bt, searchOrch, o.fetcher, relTracker)
	researchCfg := o.cfg.ToResearchConfig()

	var evidence []*domain.EvidenceItem
	var sources []*domain.FetchedSource
	var queries []domain.SearchQueryRecord
	var warnings []domain.Warning

	for _, ac := range contexts {
		claimsInCtx := claimsForContext(extractRes.AtomicClaims, ac.ID)
		if len(claimsInCtx) == 0 {
			continue
		}
		res := researcher.Run(ctx, ac.ID, ac.Subject, claimsInCtx, "en", researchCfg)
		evidence = append(evidence, res.Evidence...)
		sources = append(sources, res.Sources...)
		queries = append(queries, res.Queries...)
		warnings = append(warnings, res.Warnings...)
		collector.RecordLLMCall(metrics.StageResearch)
		for range res.Queries {
			collector.RecordSearch()
		}
		for _, s := range res.Sources {
			collector.RecordFetch(s.FetchSuccess)
		}
	}
	if len(evidence) == 0 {
		warnings = append(warnings, domain.NewWarning(domain.WarnNoSuccessfulSources, "no evidence gathered across any context", nil))
	}
	resolveEvidenceContexts(evidence)
	o.sink.Emit(events.Event{Name: "stage.completed", Stage: "research", Duration: time.Since(start)})

	// Stage 3: boundary clustering
	boundaryRes, err := boundary.Cluster(ctx, client, extractRes.AtomicClaims, evidence)
	if err != nil {
		return nil, &StageError{Stage: "boundary", Cause: err}
	}
	collector.RecordLLMCall(metrics.StageBoundary)
	o.sink.Emit(events.Event{Name: "stage.completed", Stage: "boundary", Duration: time.Since(start)})

	// Stage 4: verdict debate
	debateCfg := o.cfg.Debate.ToDebateConfig(input.Deterministic)
	verdicts, debateWarnings, err := debate.Run(ctx, client, extractRes.AtomicClaims, evidence, boundaryRes.Boundaries, boundaryRes.CoverageMatrix, debateCfg)
	if err != nil {
		return nil, &StageError{Stage: "debate", Cause: err}
	}
	warnings = append(warnings, debateWarnings...)
	collector.RecordLLMCall(metrics.StageDebate)
	o.sink.Emit(events.Event{Name: "stage.completed", Stage: "debate", Duration: time.Since(start)})

	// Source-reliability weighting (spec.md §4.10): applied between debate
	// and aggregation so the weighted average consumes adjusted figures.
	applyReliabilityWeighting(verdicts, evidence, sources)

	// Stage 5: aggregation
	assessment, aggWarnings, err := aggregate.Aggregate(ctx, client, extractRes.AtomicClaims, verdicts, evidence, boundaryRes.Boundaries, o.cfg.Aggregate.ToAggregateConfig())
	if err != nil {
		return nil, &StageError{Stage: "aggregate", Cause: err}
	}
	warnings = append(warnings, aggWarnings...)
	collector.RecordLLMCall(metrics.StageAggregate)
	o.sink.Emit(events.Event{Name: "stage.completed", Stage: "aggregate", Duration: time.Since(start)})

	// Stage 6: quality gates
	survivingClaims := survivingClaimsFor(extractRes.AtomicClaims, assessment.ClaimVerdicts)
	gate1 := gates.RunGate1(extractRes.AtomicClaims, survivingClaims)
	gate4 := gates.RunGate4(assessment.ClaimVerdicts)
	gateSummary := gates.Summarize(gate1, gate4)

	status := domain.StatusComplete
	if bt.Stats().Exceeded {
		status = domain.StatusPartial
		warnings = append(warnings, domain.NewWarning(domain.WarnBudgetExceeded, bt.Stats().ExceededReason, nil))
	}

	result := &domain.Result{
		Meta: domain.RunMeta{
			Pipeline:        "claimboundary",
			Model:           "claude-sonnet-4-5",
			Provider:        "anthropic",
			SchemaVersion:   SchemaVersion,
			SearchProviders: searchProviderNames(o.searchProv),
			LLMCallCount:    collector.LLMCallCount(),
		},
		Understanding: domain.Understanding{
			ImpliedClaim:     extractRes.ImpliedClaim,
			AnalysisContexts: contexts,
			AtomicClaims:     extractRes.AtomicClaims,
		},
		Facts:            evidence,
		Sources:          sources,
		SearchQueries:    queries,
		ClaimBoundaries:  boundaryRes.Boundaries,
		CoverageMatrix:   boundaryRes.CoverageMatrix,
		ClaimVerdicts:    assessment.ClaimVerdicts,
		VerdictNarrative: assessment.VerdictNarrative,
		QualityGates:     gateSummary,
		TruthPercentage:  assessment.OverallTruthPercentage,
		Confidence:       assessment.Confidence,
		OverallVerdict:   assessment.OverallVerdict,
		Warnings:         warnings,
		ResearchStats:    collector.ResearchStats(),
		Status:           status,
	}

	if o.audit != nil {
		if err := o.audit.RecordRun(ctx, runID, extractRes.AtomicClaims, boundaryRes.Boundaries, assessment.ClaimVerdicts); err != nil {
			o.sink.Emit(events.Event{Name: "audit_graph.write_failed", Payload: map[string]interface{}{"error": err.Error()}})
		}
	}

	o.sink.Emit(events.Event{Name: "run.completed", Duration: time.Since(start), Tokens: bt.Stats().TotalTokens})
	return result, nil
}

// partialResult builds a StatusPartial result for a run that never got
// past the system-paused check.
func (o *Orchestrator) partialResult(input domain.Input, claims []*domain.AtomicClaim, verdicts []*domain.CBClaimVerdict, w domain.Warning) *domain.Result {
	return &domain.Result{
		Meta:          domain.RunMeta{Pipeline: "claimboundary", SchemaVersion: SchemaVersion},
		Understanding: domain.Understanding{AtomicClaims: claims},
		ClaimVerdicts: verdicts,
		Warnings:      []domain.Warning{w},
		ResearchStats: map[string]interface{}{},
		Status:        domain.StatusPartial,
	}
}

// callWithCrashRetry retries fn exactly once if it panics with the known
// crashSignature, recovering all other panics as an error (a stage must
// never bring the whole process down).
func callWithCrashRetry(fn func() (extract.Result, error)) (res extract.Result, err error) {
	res, err = safeCall(fn)
	if err != nil && containsCrashSignature(err) {
		return safeCall(fn)
	}
	return res, err
}

func safeCall(fn func() (extract.Result, error)) (res extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func containsCrashSignature(err error) bool {
	return err != nil && strings.Contains(err.Error(), crashSignature)
}

// resolveEvidenceContexts rebinds every evidence item's provisional
// ContextID (the context whose research loop happened to fetch it) to the
// canonical context it actually belongs to. A source URL surfaced by more
// than one context's loop is ambiguous between those contexts (spec.md §4.6
// invariant; the adversarial case in §8 is two contexts sharing only an
// abbreviation and bleeding evidence between them) and binds to
// scope.UnscopedContextID instead of staying attributed to whichever
// context happened to fetch it first.
func resolveEvidenceContexts(evidence []*domain.EvidenceItem) {
	matchedByURL := make(map[string]map[string]bool)
	for _, e := range evidence {
		if e.SourceURL == "" {
			continue
		}
		set, ok := matchedByURL[e.SourceURL]
		if !ok {
			set = make(map[string]bool)
			matchedByURL[e.SourceURL] = set
		}
		set[e.ContextID] = true
	}
	for _, e := range evidence {
		if e.SourceURL == "" {
			continue
		}
		set := matchedByURL[e.SourceURL]
		matchedContextIDs := make([]string, 0, len(set))
		for id := range set {
			matchedContextIDs = append(matchedContextIDs, id)
		}
		e.ContextID = scope.ResolveEvidenceContext(matchedContextIDs)
	}
}

func claimsForContext(claims []*domain.AtomicClaim, ctxID string) []*domain.AtomicClaim {
	var out []*domain.AtomicClaim
	for _, c := range claims {
		if c.RelatedContextID == ctxID || (c.RelatedContextID == "" && ctxID == domain.GeneralContextID) {
			out = append(out, c)
		}
	}
	return out
}

func survivingClaimsFor(claims []*domain.AtomicClaim, verdicts []*domain.CBClaimVerdict) []*domain.AtomicClaim {
	has := make(map[string]bool, len(verdicts))
	for _, v := range verdicts {
		has[v.ClaimID] = true
	}
	var out []*domain.AtomicClaim
	for _, c := range claims {
		if has[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

func searchProviderNames(p search.Provider) []string {
	if p == nil {
		return nil
	}
	return []string{p.Name()}
}

// applyReliabilityWeighting populates EvidenceWeight/SourceReliabilityMeta
// on every verdict and overwrites its truth/confidence with the
// source-reliability-adjusted figures (spec.md §4.10).
func applyReliabilityWeighting(verdicts []*domain.CBClaimVerdict, evidence []*domain.EvidenceItem, sources []*domain.FetchedSource) {
	evidenceByID := make(map[string]*domain.EvidenceItem, len(evidence))
	for _, e := range evidence {
		evidenceByID[e.ID] = e
	}
	sourceByID := make(map[string]*domain.FetchedSource, len(sources))
	for _, s := range sources {
		sourceByID[s.ID] = s
	}

	for _, v := range verdicts {
		var scores []*float64
		ids := append(append([]string{}, v.SupportingEvidenceIDs...), v.ContradictingEvidenceIDs...)
		for _, id := range ids {
			ev, ok := evidenceByID[id]
			if !ok {
				continue
			}
			src, ok := sourceByID[ev.SourceID]
			if !ok {
				continue
			}
			scores = append(scores, src.TrackRecordScore)
		}
		if len(scores) == 0 {
			continue
		}
		w := reliability.Weight(v.TruthPercentage, v.Confidence, scores)
		v.EvidenceWeight = &w.MeanScore
		v.SourceReliabilityMeta = &domain.SourceReliabilityMeta{
			MeanScore:          w.MeanScore,
			UnknownSources:     w.UnknownSources,
			AdjustedTruth:      w.AdjustedTruth,
			AdjustedConfidence: w.AdjustedConfidence,
		}
		v.TruthPercentage = w.AdjustedTruth
		v.Confidence = w.AdjustedConfidence
		v.Verdict = domain.VerdictLabelFor(v.TruthPercentage, domain.InputClaim)
	}
}

