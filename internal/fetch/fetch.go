// Package fetch implements the httpFetch(url, {timeoutMs, userAgent})
// collaborator named in spec.md §6: a thin HTTP GET that Stage 2 research
// (internal/stages/research) uses to retrieve article bodies for the
// research.Fetcher interface.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout and defaultUserAgent mirror spec.md §5's 60s per-call
// timeout default, reused here for the fetch leg of research.
const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "ClaimBoundary-FactCheck/1.0 (+https://github.com/claimboundary/factcheck)"
)

// HTTPFetcher implements research.Fetcher over net/http, the same plain
// http.Client pattern internal/llmclient/anthropic.go uses for its own
// requests, generalized to GET-and-read-body.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher builds an HTTPFetcher with the given timeout (0 uses the
// spec default) and user agent (empty uses the default).
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  2 << 20, // 2MB: plenty for an article body, bounds memory on huge pages
	}
}

// Fetch retrieves url and returns its title (best-effort, from <title>) and
// full body text. Non-2xx responses and non-text content types are reported
// as errors so research.fetchSources can mark the source unsuccessful
// without it polluting the evidence pool.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", &statusError{status: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/") && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "json") {
		return "", "", fmt.Errorf("fetch: unsupported content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", "", fmt.Errorf("fetch: read body: %w", err)
	}

	text := string(body)
	return extractTitle(text), stripTags(text), nil
}

type statusError struct{ status int }

func (e *statusError) Error() string   { return fmt.Sprintf("fetch: HTTP status %d", e.status) }
func (e *statusError) StatusCode() int { return e.status }

// extractTitle pulls the content of the first <title> tag, or "" if absent.
func extractTitle(html string) string {
	lower := strings.ToLower(html)
	start := strings.Index(lower, "<title>")
	if start == -1 {
		return ""
	}
	start += len("<title>")
	end := strings.Index(lower[start:], "</title>")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(html[start : start+end])
}

// stripTags is a minimal HTML-to-text reduction: good enough to give the
// evidence-extraction LLM call readable prose without pulling in a full
// HTML parsing dependency.
func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
