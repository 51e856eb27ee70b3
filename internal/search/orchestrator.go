package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/health"
)

// Config controls the orchestrator's bounds (spec.md §4.4 closed option list).
type Config struct {
	MaxResultsPerQuery int
	MaxEvidenceItems   int
	DateRestrict       DateRestrict
	ProviderName       string // "auto", "serpapi", "google-cse"
}

// DefaultConfig applies the default search parameters (3 results/query, 8 evidence items).
func DefaultConfig() Config {
	return Config{MaxResultsPerQuery: 3, MaxEvidenceItems: 8, DateRestrict: DateNone, ProviderName: "auto"}
}

func (c Config) clamp() Config {
	if c.MaxResultsPerQuery <= 0 {
		c.MaxResultsPerQuery = 3
	}
	if c.MaxResultsPerQuery > 10 {
		c.MaxResultsPerQuery = 10
	}
	if c.MaxEvidenceItems <= 0 {
		c.MaxEvidenceItems = 8
	}
	if c.MaxEvidenceItems > 20 {
		c.MaxEvidenceItems = 20
	}
	return c
}

// globalFactCheckers is a static list of recognized global fact-checking sites.
var globalFactCheckers = []string{
	"snopes.com", "politifact.com", "factcheck.org", "apnews.com/hub/ap-fact-check",
	"reuters.com/fact-check", "fullfact.org", "afp.com/en/fact-check",
}

// regionalFactCheckers maps a language code to regional fact-checker sites.
var regionalFactCheckers = map[string][]string{
	"es": {"maldita.es", "newtral.es", "chequeado.com"},
	"fr": {"lemonde.fr/les-decodeurs", "checknews.fr"},
	"de": {"correctiv.org", "mimikama.at"},
	"ar": {"fatabyyano.net", "misbar.com"},
}

var assessmentTerms = []string{
	"reliable", "unreliable", "credible", "trustworthy", "bias", "misinformation",
	"fact-check", "factual accuracy", "reputation",
}

var negativeSignalTerms = []string{"propaganda", "debunked", "false claims"}

// Result is the orchestrator's output: kept, relevant, de-duplicated hits
// plus diagnostics and warnings.
type Result struct {
	Hits     []Hit
	Queries  []domain.SearchQueryRecord
	Warnings []domain.Warning
}

// Orchestrator runs the phased, adaptive search algorithm of spec.md §4.4.
type Orchestrator struct {
	provider   Provider
	translator Translator
	health     *health.Tracker
}

// NewOrchestrator builds an Orchestrator. A nil translator defaults to NoopTranslator.
func NewOrchestrator(provider Provider, translator Translator, ht *health.Tracker) *Orchestrator {
	if translator == nil {
		translator = NoopTranslator{}
	}
	return &Orchestrator{provider: provider, translator: translator, health: ht}
}

// Run executes phases (i)-(vii) in order until maxEvidenceItems is reached,
// de-duplicating by URL across all phases and excluding self-citations.
func (o *Orchestrator) Run(ctx context.Context, evaluatedDomain string, sourceLanguage string, cfg Config) Result {
	cfg = cfg.clamp()
	variants := BrandVariants(evaluatedDomain)

	var queries []plannedQuery
	queries = append(queries, reliabilityQueries(evaluatedDomain, variants)...)
	if sourceLanguage != "" && sourceLanguage != "en" {
		queries = append(queries, translatedReliabilityQueries(ctx, o.translator, evaluatedDomain, sourceLanguage)...)
	}
	queries = append(queries, siteTargetedQueries(evaluatedDomain, globalFactCheckers, "global_factcheck")...)
	if regional, ok := regionalFactCheckers[sourceLanguage]; ok {
		queries = append(queries, siteTargetedQueries(evaluatedDomain, regional, "regional_factcheck")...)
	}
	queries = append(queries, propagandaTrackingQueries(evaluatedDomain, variants)...)
	queries = append(queries, negativeSignalQueries(evaluatedDomain)...)
	queries = append(queries, entityFocusedQueries(evaluatedDomain, variants)...)

	result := Result{}
	seenURLs := map[string]bool{}
	totalSearches := 0

	for iteration, q := range queries {
		if len(result.Hits) >= cfg.MaxEvidenceItems {
			break
		}
		totalSearches++
		hits, err := o.searchWithRetry(ctx, q.query, cfg.MaxResultsPerQuery, cfg.DateRestrict)
		record := domain.SearchQueryRecord{Query: q.query, Focus: q.focus, Iteration: iteration, Provider: o.provider.Name()}
		if err != nil {
			classification := health.Classify(err)
			o.health.RecordOutcome(classification)
			if classification.ShouldCountAsFailure {
				result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnSearchProviderError,
					fmt.Sprintf("search provider error for query %q: %v", q.query, err), map[string]interface{}{"occurrences": 1}))
				record.ResultsCount = 0
				result.Queries = append(result.Queries, record)
				continue
			}
		}

		kept := 0
		for _, h := range hits {
			if seenURLs[h.URL] {
				continue
			}
			host := hostOf(h.URL)
			if IsSelfCitation(host, evaluatedDomain) {
				continue
			}
			if !isRelevant(h, evaluatedDomain, variants) {
				continue
			}
			seenURLs[h.URL] = true
			result.Hits = append(result.Hits, h)
			kept++
			if len(result.Hits) >= cfg.MaxEvidenceItems {
				break
			}
		}
		record.ResultsCount = kept
		result.Queries = append(result.Queries, record)
	}

	if len(result.Hits) == 0 {
		result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnNoSuccessfulSources,
			"no successful sources found after research", map[string]interface{}{"total_searches": totalSearches}))
		if totalSearches >= 10 {
			result.Warnings = append(result.Warnings, domain.NewWarning(domain.WarnSourceAcquisitionCollapse,
				"source acquisition collapsed across all phases", map[string]interface{}{"total_searches": totalSearches}))
		}
	}
	return result
}

func (o *Orchestrator) searchWithRetry(ctx context.Context, query string, maxResults int, dateRestrict DateRestrict) ([]Hit, error) {
	hits, err := o.provider.Search(ctx, query, maxResults, dateRestrict)
	if err == nil {
		return hits, nil
	}
	classification := health.Classify(err)
	if !classification.ShouldCountAsFailure {
		return nil, err
	}
	select {
	case <-time.After(250 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return o.provider.Search(ctx, query, maxResults, dateRestrict)
}

type plannedQuery struct {
	query string
	focus string
}

func reliabilityQueries(evaluatedDomain string, variants []string) []plannedQuery {
	qs := []plannedQuery{{query: fmt.Sprintf("%s reliability fact-check", evaluatedDomain), focus: "reliability_assessment"}}
	for _, v := range variants {
		qs = append(qs, plannedQuery{query: fmt.Sprintf("%s news reliable source", v), focus: "reliability_assessment"})
	}
	return qs
}

func translatedReliabilityQueries(ctx context.Context, translator Translator, evaluatedDomain, lang string) []plannedQuery {
	base := fmt.Sprintf("%s reliability", evaluatedDomain)
	translated, err := translator.Translate(ctx, base, lang)
	if err != nil || translated == "" {
		translated = base
	}
	return []plannedQuery{{query: translated, focus: "reliability_assessment_translated"}}
}

func siteTargetedQueries(evaluatedDomain string, sites []string, focus string) []plannedQuery {
	var qs []plannedQuery
	for i := 0; i < len(sites); i += 3 {
		end := i + 3
		if end > len(sites) {
			end = len(sites)
		}
		batch := sites[i:end]
		clauses := make([]string, len(batch))
		for j, s := range batch {
			clauses[j] = "site:" + s
		}
		qs = append(qs, plannedQuery{
			query: fmt.Sprintf("%s (%s)", evaluatedDomain, strings.Join(clauses, " OR ")),
			focus: focus,
		})
	}
	return qs
}

func propagandaTrackingQueries(evaluatedDomain string, variants []string) []plannedQuery {
	var qs []plannedQuery
	for _, v := range variants {
		qs = append(qs, plannedQuery{query: fmt.Sprintf("%s state media propaganda tracker", v), focus: "propaganda_tracking"})
	}
	return qs
}

func negativeSignalQueries(evaluatedDomain string) []plannedQuery {
	var qs []plannedQuery
	for _, term := range negativeSignalTerms {
		qs = append(qs, plannedQuery{query: fmt.Sprintf("%s %s", evaluatedDomain, term), focus: "negative_signal"})
	}
	return qs
}

func entityFocusedQueries(evaluatedDomain string, variants []string) []plannedQuery {
	var qs []plannedQuery
	for _, v := range variants {
		qs = append(qs, plannedQuery{query: fmt.Sprintf("\"%s\" ownership funding ties", v), focus: "entity_focused"})
	}
	return qs
}

func isRelevant(h Hit, evaluatedDomain string, variants []string) bool {
	host := hostOf(h.URL)
	text := strings.ToLower(h.Title + " " + h.Snippet)

	mentionsDomain := strings.Contains(text, strings.ToLower(evaluatedDomain))
	if !mentionsDomain {
		for _, v := range variants {
			if len(v) >= 4 && strings.Contains(text, v) {
				mentionsDomain = true
				break
			}
		}
	}
	if !mentionsDomain {
		return false
	}

	if isKnownFactChecker(host) {
		return true
	}
	for _, term := range assessmentTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func isKnownFactChecker(host string) bool {
	for _, fc := range globalFactCheckers {
		if strings.Contains(fc, host) || strings.Contains(host, strings.Split(fc, "/")[0]) {
			return true
		}
	}
	for _, list := range regionalFactCheckers {
		for _, fc := range list {
			if strings.Contains(fc, host) || strings.Contains(host, strings.Split(fc, "/")[0]) {
				return true
			}
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}
