// Package budget enforces per-run resource caps: per-context and global
// iteration limits, and total/per-call token limits (spec.md §4.2).
package budget

import "sync"

// Config configures a Tracker. Zero values disable the corresponding cap.
type Config struct {
	MaxIterationsPerContext int
	MaxTotalIterations      int
	MaxTotalTokens          int
	MaxTokensPerCall        int
	EnforceHard             bool
}

// DefaultConfig matches spec.md §4.8's default of 3 iterations per context.
func DefaultConfig() Config {
	return Config{
		MaxIterationsPerContext: 3,
		MaxTotalIterations:      30,
		MaxTotalTokens:          2_000_000,
		MaxTokensPerCall:        64_000,
		EnforceHard:             true,
	}
}

// CheckResult is the outcome of a budget check.
type CheckResult struct {
	Allowed bool
	Reason  string
}

// Stats is a point-in-time snapshot of a Tracker's counters.
type Stats struct {
	TotalIterations       int
	IterationsByContext   map[string]int
	TotalTokens           int
	Exceeded              bool
	ExceededReason        string
}

// Tracker is a per-job budget tracker (never shared across jobs, per
// spec.md §5). Counters are monotone non-decreasing; per-context and
// global iteration caps are tracked independently — a per-context cap of K
// never implies a global cap of K, and vice versa.
type Tracker struct {
	mu                  sync.Mutex
	cfg                 Config
	totalIterations     int
	iterationsByContext map[string]int
	totalTokens         int
	exceeded            bool
	exceededReason      string
}

// NewTracker creates a Tracker under the given Config.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, iterationsByContext: make(map[string]int)}
}

// CheckContextIterationBudget reports whether another iteration is allowed
// for ctxID, checking both the per-context and the global iteration caps.
func (t *Tracker) CheckContextIterationBudget(ctxID string) CheckResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.MaxTotalIterations > 0 && t.totalIterations >= t.cfg.MaxTotalIterations {
		return CheckResult{Allowed: false, Reason: "global iteration cap reached"}
	}
	if t.cfg.MaxIterationsPerContext > 0 && t.iterationsByContext[ctxID] >= t.cfg.MaxIterationsPerContext {
		return CheckResult{Allowed: false, Reason: "per-context iteration cap reached"}
	}
	return CheckResult{Allowed: true}
}

// CheckTokenBudget reports whether a call requesting requestedTokens may
// proceed, checking the per-call cap and the cumulative total cap.
func (t *Tracker) CheckTokenBudget(requestedTokens int) CheckResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.MaxTokensPerCall > 0 && requestedTokens > t.cfg.MaxTokensPerCall {
		return CheckResult{Allowed: false, Reason: "requested tokens exceed per-call cap"}
	}
	if t.cfg.MaxTotalTokens > 0 && t.totalTokens+requestedTokens > t.cfg.MaxTotalTokens {
		return CheckResult{Allowed: false, Reason: "cumulative tokens would exceed total cap"}
	}
	return CheckResult{Allowed: true}
}

// RecordIteration increments both the per-context and global iteration counters.
func (t *Tracker) RecordIteration(ctxID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalIterations++
	t.iterationsByContext[ctxID]++
}

// RecordTokens increments the cumulative token counter.
func (t *Tracker) RecordTokens(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalTokens += n
}

// RecordLLMCall is a convenience combining a token record with no iteration
// bump (LLM calls within a research iteration do not each count as a new
// iteration; the iteration is recorded once per research loop pass).
func (t *Tracker) RecordLLMCall(tokens int) {
	t.RecordTokens(tokens)
}

// MarkExceeded flags the tracker as having exceeded budget, for surfacing a
// budget_exceeded warning upstream.
func (t *Tracker) MarkExceeded(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exceeded = true
	t.exceededReason = reason
}

// Stats returns a snapshot of the tracker's current counters.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	byCtx := make(map[string]int, len(t.iterationsByContext))
	for k, v := range t.iterationsByContext {
		byCtx[k] = v
	}
	return Stats{
		TotalIterations:     t.totalIterations,
		IterationsByContext: byCtx,
		TotalTokens:         t.totalTokens,
		Exceeded:            t.exceeded,
		ExceededReason:      t.exceededReason,
	}
}

// EnforceHard reports whether budget violations should hard-stop the run
// (vs. merely warn) — spec.md §6 enforceHard config option.
func (t *Tracker) EnforceHard() bool {
	return t.cfg.EnforceHard
}
