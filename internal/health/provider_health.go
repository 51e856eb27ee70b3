package health

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCircuitThreshold is the default consecutive-failure count (N) that
// opens a provider's circuit (spec.md §4.1).
const DefaultCircuitThreshold = 3

// providerState tracks one provider's consecutive-failure counter.
type providerState struct {
	consecutiveFailures int
	circuitOpen         bool
	openedAt            time.Time
}

// Tracker is the process-wide ProviderHealthState. Every run in the process
// shares one Tracker; a Tracker constructed fresh is the in-memory
// replacement used by tests (spec.md §9 "allow injection of an in-memory
// replacement").
type Tracker struct {
	mu        sync.Mutex
	threshold int
	providers map[Provider]*providerState
	paused    bool
	pauseReason string
}

// NewTracker creates a Tracker with the given circuit-open threshold. A
// threshold <= 0 uses DefaultCircuitThreshold.
func NewTracker(threshold int) *Tracker {
	if threshold <= 0 {
		threshold = DefaultCircuitThreshold
	}
	return &Tracker{threshold: threshold, providers: make(map[Provider]*providerState)}
}

func (t *Tracker) state(p Provider) *providerState {
	s, ok := t.providers[p]
	if !ok {
		s = &providerState{}
		t.providers[p] = s
	}
	return s
}

// RecordOutcome applies one classification result to provider health,
// opening the circuit and pausing the system on the N-th consecutive
// failure. Opening one provider's circuit never opens another's.
func (t *Tracker) RecordOutcome(c Classification) {
	if c.Provider == ProviderNone {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(c.Provider)
	if !c.ShouldCountAsFailure {
		s.consecutiveFailures = 0
		return
	}
	s.consecutiveFailures++
	if s.consecutiveFailures >= t.threshold && !s.circuitOpen {
		s.circuitOpen = true
		s.openedAt = time.Now()
		t.pauseLocked(fmt.Sprintf("%s circuit opened after %d consecutive failures", c.Provider, s.consecutiveFailures))
	}
}

func (t *Tracker) pauseLocked(reason string) {
	t.paused = true
	t.pauseReason = reason
}

// PauseSystem sets the process-wide paused flag. Safe to call directly (e.g.
// from an operator action) in addition to being invoked by RecordOutcome.
func (t *Tracker) PauseSystem(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pauseLocked(reason)
}

// ResumeSystem closes all circuits, zeroes every counter, and clears pause.
func (t *Tracker) ResumeSystem() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.providers {
		s.consecutiveFailures = 0
		s.circuitOpen = false
		s.openedAt = time.Time{}
	}
	t.paused = false
	t.pauseReason = ""
}

// IsPaused reports the current process-wide pause state.
func (t *Tracker) IsPaused() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused, t.pauseReason
}

// CircuitOpen reports whether a specific provider's circuit is open.
func (t *Tracker) CircuitOpen(p Provider) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.providers[p]
	return ok && s.circuitOpen
}

// ConsecutiveFailures returns the current streak for a provider (for tests/diagnostics).
func (t *Tracker) ConsecutiveFailures(p Provider) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.providers[p]
	if !ok {
		return 0
	}
	return s.consecutiveFailures
}
