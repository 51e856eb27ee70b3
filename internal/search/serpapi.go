package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SerpAPIProvider queries SerpAPI's Google Search endpoint over plain
// net/http, the same transport pattern internal/fetch.HTTPFetcher and
// internal/llmclient's Anthropic client use: no dedicated search SDK is
// vendored into this corpus, so a thin REST client fills the Provider
// interface.
type SerpAPIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

const serpAPIBaseURL = "https://serpapi.com/search"

// NewSerpAPIProvider builds a SerpAPIProvider. apiKey is typically read from
// the SERPAPI_API_KEY environment variable by the caller.
func NewSerpAPIProvider(apiKey string) *SerpAPIProvider {
	return &SerpAPIProvider{apiKey: apiKey, baseURL: serpAPIBaseURL, client: &http.Client{Timeout: 30 * time.Second}}
}

func (p *SerpAPIProvider) Name() string { return "serpapi" }

type serpAPIResponse struct {
	OrganicResults []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search performs one query against SerpAPI, translating dateRestrict into
// its tbs recency parameter.
func (p *SerpAPIProvider) Search(ctx context.Context, query string, maxResults int, dateRestrict DateRestrict) ([]Hit, error) {
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("api_key", p.apiKey)
	q.Set("num", strconv.Itoa(maxResults))
	if tbs := tbsFor(dateRestrict); tbs != "" {
		q.Set("tbs", tbs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{status: resp.StatusCode}
	}

	var parsed serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("serpapi: decode response: %w", err)
	}

	hits := make([]Hit, 0, len(parsed.OrganicResults))
	for i, r := range parsed.OrganicResults {
		if i >= maxResults {
			break
		}
		hits = append(hits, Hit{URL: r.Link, Title: r.Title, Snippet: r.Snippet, Provider: p.Name()})
	}
	return hits, nil
}

func tbsFor(d DateRestrict) string {
	switch d {
	case DateYear:
		return "qdr:y"
	case DateMonth:
		return "qdr:m"
	case DateWeek:
		return "qdr:w"
	default:
		return ""
	}
}

// statusError exposes StatusCode() so internal/health.Classify can route a
// non-2xx SerpAPI response through its shape-based HTTP classification.
type statusError struct{ status int }

func (e *statusError) Error() string   { return fmt.Sprintf("serpapi: HTTP status %d", e.status) }
func (e *statusError) StatusCode() int { return e.status }
