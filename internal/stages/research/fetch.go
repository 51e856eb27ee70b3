package research

import (
	"context"
	"strconv"
	"time"

	"github.com/claimboundary/factcheck/internal/domain"
)

// Fetcher retrieves the full text of a URL. Production code wires an HTTP
// fetcher; tests wire a map-backed fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (title, fullText string, err error)
}

// minImportanceLength and maxFullTextLength are the importance/length filters
// applied to fetched articles before they become evidence candidates
// (spec.md §4.8 step 3).
const (
	minImportanceLength = 200
	maxFullTextLength   = 50_000
)

// fetchSources fetches each hit's URL, applying the importance/length
// filters. Unsuccessful fetches are recorded (FetchSuccess=false) but
// excluded from evidence extraction.
func fetchSources(ctx context.Context, fetcher Fetcher, urls []string, idOffset int) []*domain.FetchedSource {
	sources := make([]*domain.FetchedSource, 0, len(urls))
	for i, u := range urls {
		id := syntheticSourceID(idOffset + i)
		title, text, err := fetcher.Fetch(ctx, u)
		src := &domain.FetchedSource{ID: id, URL: u, FetchedAt: time.Now()}
		if err != nil {
			sources = append(sources, src)
			continue
		}
		if len(text) > maxFullTextLength {
			text = text[:maxFullTextLength]
		}
		src.Title = title
		src.FullText = text
		src.FetchSuccess = len(text) >= minImportanceLength
		sources = append(sources, src)
	}
	return sources
}

func syntheticSourceID(n int) string {
	return "E" + strconv.Itoa(n+1)
}
