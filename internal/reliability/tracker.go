package reliability

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/claimboundary/factcheck/internal/llmclient"
	"github.com/claimboundary/factcheck/pkg/cache"
)

// hotCacheSize bounds the in-memory mirror so a long-running process
// researching many distinct domains doesn't grow it unbounded; domain counts
// per run are small (tens, not millions), so eviction is a belt-and-braces
// memory bound rather than an expected hot path.
const hotCacheSize = 8192

// EvalPromptKey is the registered llmclient prompt for a source-reliability
// assessment (haiku tier; see spec.md §4.5 step 1).
const EvalPromptKey = "SOURCE_RELIABILITY_EVAL"

// ReliabilitySchema is the llmclient.Schema a caller should register under
// EvalPromptKey.
var ReliabilitySchema = llmclient.Schema{RequiredFields: []string{"score", "source_type", "confidence", "evidence_count"}}

// Tracker is the process-wide, read-mostly reliability service (C5): an
// async Prefetch populates the cache ahead of time, and TrackRecordScore
// performs a synchronous, I/O-free lookup for the hot aggregation path.
type Tracker struct {
	cache *Cache
	llm   *llmclient.Client
	group singleflight.Group
	hot   *cache.LRU[string, *float64] // in-memory mirror for zero-I/O sync reads
}

// NewTracker builds a Tracker over a persistent Cache and the shared LLM
// call primitive.
func NewTracker(persistent *Cache, llm *llmclient.Client) *Tracker {
	return &Tracker{
		cache: persistent,
		llm:   llm,
		hot:   cache.New[string, *float64](&cache.Config{MaxEntries: hotCacheSize}),
	}
}

// Prefetch evaluates and caches reliability scores for every domain in
// domains that isn't already hot, coalescing concurrent requests for the
// same domain via singleflight so a burst of evidence items citing the same
// outlet triggers one LLM call, not N.
func (t *Tracker) Prefetch(ctx context.Context, domains []string) {
	var wg sync.WaitGroup
	for _, d := range domains {
		d := d
		if _, known := t.peekHot(d); known {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = t.group.Do(d, func() (interface{}, error) {
				t.resolve(ctx, d)
				return nil, nil
			})
		}()
	}
	wg.Wait()
}

func (t *Tracker) peekHot(domain string) (*float64, bool) {
	return t.hot.Get(domain)
}

func (t *Tracker) setHot(domain string, score *float64) {
	t.hot.Set(domain, score)
}

// resolve evaluates domain via cache-then-LLM and populates the hot map.
func (t *Tracker) resolve(ctx context.Context, domain string) {
	if entry, found, err := t.cache.Get(domain); err == nil && found {
		score := ApplySourceTypeCap(entry.Score, entry.SourceType)
		t.setHot(domain, &score)
		return
	}

	data, _, err := t.llm.Call(ctx, EvalPromptKey, map[string]interface{}{"domain": domain}, llmclient.CallOptions{})
	if err != nil {
		t.setHot(domain, nil)
		return
	}

	rawScore, _ := data["score"].(float64)
	sourceType, _ := data["source_type"].(string)
	confidence, _ := data["confidence"].(float64)
	evidenceCount := 0
	if ec, ok := data["evidence_count"].(float64); ok {
		evidenceCount = int(ec)
	}

	if InsufficientData(evidenceCount, confidence) {
		t.setHot(domain, nil)
		return
	}

	normalized := NormalizeScore(rawScore)
	capped := ApplySourceTypeCap(normalized, sourceType)

	_ = t.cache.Put(domain, Entry{Score: capped, SourceType: NormalizeSourceType(sourceType), EvidenceCount: evidenceCount})
	t.setHot(domain, &capped)
}

// TrackRecordScore is the synchronous, no-I/O lookup used on the hot
// aggregation path: it only ever consults the in-memory mirror populated by
// a prior Prefetch, returning nil (unknown) for anything not yet resolved.
func (t *Tracker) TrackRecordScore(domain string) *float64 {
	score, _ := t.peekHot(domain)
	return score
}
