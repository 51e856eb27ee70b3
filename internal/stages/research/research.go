// Package research implements Stage 2 evidence research (C8): an iterative
// per-context loop of query generation, search, fetch, and evidence
// extraction, bounded by the shared budget tracker.
package research

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/llmclient"
	"github.com/claimboundary/factcheck/internal/reliability"
	"github.com/claimboundary/factcheck/internal/search"
)

// QueryGenPromptKey and EvidenceExtractPromptKey are the registered
// llmclient prompts this stage calls.
const (
	QueryGenPromptKey        = "RESEARCH_QUERY_GEN"
	EvidenceExtractPromptKey = "RESEARCH_EXTRACT_EVIDENCE"
)

// QueryGenSchema and EvidenceExtractSchema are the llmclient.Schemas a
// caller should register under the above keys.
var (
	QueryGenSchema        = llmclient.Schema{RequiredFields: []string{"queries"}}
	EvidenceExtractSchema = llmclient.Schema{RequiredFields: []string{"evidence_items"}}
)

// TargetEvidencePerClaim is the default stopping target (spec.md §4.8 step 5).
const TargetEvidencePerClaim = 3

// Config bounds one context's research loop.
type Config struct {
	TargetEvidencePerClaim int
	SearchConfig           search.Config
}

func DefaultConfig() Config {
	return Config{TargetEvidencePerClaim: TargetEvidencePerClaim, SearchConfig: search.DefaultConfig()}
}

// Result is one context's accumulated research output.
type Result struct {
	Evidence      []*domain.EvidenceItem
	Sources       []*domain.FetchedSource
	Queries       []domain.SearchQueryRecord
	Warnings      []domain.Warning
	IterationsRun int
}

// Researcher drives the per-context loop.
type Researcher struct {
	llm          *llmclient.Client
	budget       *budget.Tracker
	searchOrch   *search.Orchestrator
	fetcher      Fetcher
	reliability  *reliability.Tracker
}

// NewResearcher builds a Researcher sharing the run's LLM client, budget
// tracker, search orchestrator, fetcher, and reliability tracker.
func NewResearcher(llm *llmclient.Client, bt *budget.Tracker, searchOrch *search.Orchestrator, fetcher Fetcher, rel *reliability.Tracker) *Researcher {
	return &Researcher{llm: llm, budget: bt, searchOrch: searchOrch, fetcher: fetcher, reliability: rel}
}

// Run executes the iterative loop for one context until a stopping
// condition from spec.md §4.8 step 5 is hit. claims are the atomic claims
// bound to this context; they seed query generation and are the only ids
// the evidence-extraction call is allowed to cite into RelevantClaimIDs.
func (r *Researcher) Run(ctx context.Context, ctxID, contextSubject string, claims []*domain.AtomicClaim, sourceLanguage string, cfg Config) Result {
	if cfg.TargetEvidencePerClaim == 0 {
		cfg = DefaultConfig()
	}
	target := cfg.TargetEvidencePerClaim * maxInt(len(claims), 1)

	var claimText string
	for _, c := range claims {
		claimText += c.Statement + " "
	}

	result := Result{}
	seenURLs := map[string]bool{}
	sourceIDOffset := 0

	for {
		check := r.budget.CheckContextIterationBudget(ctxID)
		if !check.Allowed {
			result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnBudgetExceeded, check.Reason, map[string]interface{}{"context_id": ctxID}))
			break
		}
		if len(result.Evidence) >= target {
			break
		}

		queries, outcome := r.generateQueries(ctx, contextSubject, claimText)
		if outcome.Degraded {
			if isSystemPaused(outcome.DegradedReason) {
				result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnSystemPaused, outcome.DegradedReason, map[string]interface{}{"context_id": ctxID}))
				break
			}
			result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnStructuredOutputFailure,
				"query generation degraded: "+outcome.DegradedReason, map[string]interface{}{"context_id": ctxID}))
		}
		if len(queries) == 0 {
			queries = []string{claimText}
		}

		var newHits []search.Hit
		for _, q := range queries {
			sr := r.searchOrch.Run(ctx, q, sourceLanguage, cfg.SearchConfig)
			result.Queries = append(result.Queries, sr.Queries...)
			result.Warnings = append(result.Warnings, sr.Warnings...)
			for _, h := range sr.Hits {
				if seenURLs[h.URL] {
					continue
				}
				seenURLs[h.URL] = true
				newHits = append(newHits, h)
			}
		}

		urls := make([]string, 0, len(newHits))
		for _, h := range newHits {
			urls = append(urls, h.URL)
		}
		fetched := fetchSources(ctx, r.fetcher, urls, sourceIDOffset)
		sourceIDOffset += len(fetched)

		var successful []*domain.FetchedSource
		for _, s := range fetched {
			if s.FetchSuccess {
				successful = append(successful, s)
			}
		}
		result.Sources = append(result.Sources, fetched...)

		if len(successful) > 0 {
			items, outcome := r.extractEvidence(ctx, successful, ctxID, claims)
			if outcome.Degraded {
				result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnStructuredOutputFailure,
					"evidence extraction degraded: "+outcome.DegradedReason, map[string]interface{}{"context_id": ctxID}))
			}
			result.Evidence = append(result.Evidence, items...)
		}

		r.budget.RecordIteration(ctxID)
		result.IterationsRun++
	}

	r.prefetchReliability(ctx, result.Sources)
	return result
}

func isSystemPaused(degradedReason string) bool {
	return strings.HasPrefix(degradedReason, "system_paused")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// generateQueries runs the haiku-tier query-generation call (spec.md §4.8
// step 1): 1-4 queries for the given context/claim.
func (r *Researcher) generateQueries(ctx context.Context, contextSubject, claimText string) ([]string, llmclient.Outcome) {
	data, outcome, err := r.llm.Call(ctx, QueryGenPromptKey, map[string]interface{}{
		"context_subject": contextSubject,
		"claim_text":      claimText,
	}, llmclient.CallOptions{Tier: llmclient.TierHaiku})
	if err != nil || outcome.Degraded {
		return nil, outcome
	}
	raw, _ := data["queries"].([]interface{})
	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		if s, ok := q.(string); ok && s != "" {
			queries = append(queries, s)
		}
	}
	if len(queries) > 4 {
		queries = queries[:4]
	}
	return queries, outcome
}

// extractEvidence runs one evidence-extraction call per batch of fetched
// sources (spec.md §4.8 step 4), mapping each article to 0..K EvidenceItems
// citing the fetched source's synthetic id. claims is the exact set of
// atomic claims offered to the model in this call; relevant_claim_ids in
// the response is intersected against that set so RelevantClaimIDs can
// never cite a claim the model was never shown.
func (r *Researcher) extractEvidence(ctx context.Context, sources []*domain.FetchedSource, ctxID string, claims []*domain.AtomicClaim) ([]*domain.EvidenceItem, llmclient.Outcome) {
	articles := make([]map[string]interface{}, 0, len(sources))
	for _, s := range sources {
		articles = append(articles, map[string]interface{}{
			"id": s.ID, "url": s.URL, "title": s.Title, "full_text": s.FullText,
		})
	}
	claimPayload := make([]map[string]interface{}, 0, len(claims))
	offeredClaimIDs := make(map[string]bool, len(claims))
	for _, c := range claims {
		claimPayload = append(claimPayload, map[string]interface{}{"id": c.ID, "statement": c.Statement})
		offeredClaimIDs[c.ID] = true
	}
	data, outcome, err := r.llm.Call(ctx, EvidenceExtractPromptKey, map[string]interface{}{
		"articles": articles,
		"claims":   claimPayload,
	}, llmclient.CallOptions{Tier: llmclient.TierSonnet})
	if err != nil || outcome.Degraded {
		return nil, outcome
	}

	bySourceID := make(map[string]*domain.FetchedSource, len(sources))
	for _, s := range sources {
		bySourceID[s.ID] = s
	}

	raw, _ := data["evidence_items"].([]interface{})
	items := make([]*domain.EvidenceItem, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sourceID, _ := m["source_id"].(string)
		src := bySourceID[sourceID]
		ev := &domain.EvidenceItem{
			ID:               fmt.Sprintf("EV_%s_%d", ctxID, i+1),
			Statement:        stringField(m, "statement"),
			Category:         stringField(m, "category"),
			SourceID:         sourceID,
			ClaimDirection:   domain.ClaimEvidenceDirection(stringFieldDefault(m, "claim_direction", string(domain.EvidenceNeutral))),
			ProbativeValue:   domain.ProbativeValue(stringFieldDefault(m, "probative_value", string(domain.ProbativeLow))),
			RelevantClaimIDs: groundedClaimIDs(stringSliceField(m, "relevant_claim_ids"), offeredClaimIDs),
			ContextID:        ctxID,
		}
		if src != nil {
			ev.SourceURL = src.URL
			ev.SourceTitle = src.Title
		}
		ev.SourceExcerpt = stringField(m, "source_excerpt")
		items = append(items, ev)
	}
	return items, outcome
}

// groundedClaimIDs drops any id the model cited that wasn't in the set
// actually offered to it, so a hallucinated id can never reach the
// coverage matrix.
func groundedClaimIDs(cited []string, offered map[string]bool) []string {
	out := make([]string, 0, len(cited))
	for _, id := range cited {
		if offered[id] {
			out = append(out, id)
		}
	}
	return out
}

func (r *Researcher) prefetchReliability(ctx context.Context, sources []*domain.FetchedSource) {
	seen := map[string]bool{}
	var domains []string
	for _, s := range sources {
		d := hostOf(s.URL)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	r.reliability.Prefetch(ctx, domains)
	for _, s := range sources {
		score := r.reliability.TrackRecordScore(hostOf(s.URL))
		s.TrackRecordScore = score
	}
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func stringFieldDefault(m map[string]interface{}, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func stringSliceField(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
