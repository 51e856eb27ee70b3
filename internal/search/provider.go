// Package search implements the adaptive, multi-query search orchestrator
// (C4): provider selection, brand-variant generation, fact-checker
// site-targeting, relevance filtering, and de-duplication.
package search

import "context"

// Hit is one raw search result.
type Hit struct {
	URL      string
	Title    string
	Snippet  string
	Provider string
}

// DateRestrict is the closed set of recency filters a query can request.
type DateRestrict string

const (
	DateNone  DateRestrict = "none"
	DateYear  DateRestrict = "y"
	DateMonth DateRestrict = "m"
	DateWeek  DateRestrict = "w"
)

// Provider performs one search query against a single backend.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int, dateRestrict DateRestrict) ([]Hit, error)
	Name() string
}

// Translator turns an English query/term into the given language. Optional;
// a NoopTranslator is used when no multilingual provider is configured.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// NoopTranslator returns its input unchanged.
type NoopTranslator struct{}

func (NoopTranslator) Translate(_ context.Context, text, _ string) (string, error) { return text, nil }
