// Package metrics accumulates run-scoped statistics for one ClaimBoundary
// analysis: per-stage LLM call counts and the aggregate researchStats the
// orchestrator attaches to its result (spec.md §6 resultJson.researchStats).
// A simple atomic-counter collector: no Prometheus/OTel dependency is
// introduced for run-scoped counts this small.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Stage identifies which pipeline stage a recorded call belongs to.
type Stage string

const (
	StageExtract     Stage = "extract"
	StageResearch    Stage = "research"
	StageBoundary    Stage = "boundary"
	StageDebate      Stage = "debate"
	StageAggregate   Stage = "aggregate"
	StageReliability Stage = "reliability"
)

// Collector is a run-scoped (never shared across runs, like budget.Tracker)
// counter set: one per analysis, discarded when the run completes.
type Collector struct {
	llmCallCount   int64
	searchCount    int64
	fetchCount     int64
	fetchSuccesses int64

	mu           sync.Mutex
	callsByStage map[Stage]int
}

// NewCollector creates an empty, ready-to-use Collector.
func NewCollector() *Collector {
	return &Collector{callsByStage: make(map[Stage]int)}
}

// RecordLLMCall records one LLM call attributed to stage.
func (c *Collector) RecordLLMCall(stage Stage) {
	atomic.AddInt64(&c.llmCallCount, 1)
	c.mu.Lock()
	c.callsByStage[stage]++
	c.mu.Unlock()
}

// RecordSearch records one executed search query.
func (c *Collector) RecordSearch() {
	atomic.AddInt64(&c.searchCount, 1)
}

// RecordFetch records one attempted source fetch, and whether it succeeded.
func (c *Collector) RecordFetch(success bool) {
	atomic.AddInt64(&c.fetchCount, 1)
	if success {
		atomic.AddInt64(&c.fetchSuccesses, 1)
	}
}

// LLMCallCount returns the total LLM call count across every stage.
func (c *Collector) LLMCallCount() int {
	return int(atomic.LoadInt64(&c.llmCallCount))
}

// ResearchStats builds the resultJson.researchStats map (spec.md §6).
func (c *Collector) ResearchStats() map[string]interface{} {
	c.mu.Lock()
	byStage := make(map[string]int, len(c.callsByStage))
	for stage, n := range c.callsByStage {
		byStage[string(stage)] = n
	}
	c.mu.Unlock()

	return map[string]interface{}{
		"llm_calls_by_stage": byStage,
		"search_queries_run": int(atomic.LoadInt64(&c.searchCount)),
		"sources_fetched":    int(atomic.LoadInt64(&c.fetchCount)),
		"sources_fetched_ok": int(atomic.LoadInt64(&c.fetchSuccesses)),
	}
}
