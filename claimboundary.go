// Package claimboundary re-exports the fact-checking engine's orchestrator
// at module root for embedding convenience: callers that want to run the
// pipeline from within their own Go program import this package directly
// instead of reaching into internal/orchestrator, which Go's internal/
// visibility rules would otherwise forbid from outside this module.
package claimboundary

import (
	"context"

	"github.com/claimboundary/factcheck/internal/config"
	"github.com/claimboundary/factcheck/internal/domain"
	"github.com/claimboundary/factcheck/internal/events"
	"github.com/claimboundary/factcheck/internal/llmclient"
	"github.com/claimboundary/factcheck/internal/orchestrator"
	"github.com/claimboundary/factcheck/internal/search"
	"github.com/claimboundary/factcheck/internal/stages/research"
)

// Input is the engine's entry shape: a claim or question to assess.
type Input = domain.Input

// Result is the engine's resultJson shape (spec.md §6).
type Result = domain.Result

// Engine wraps an orchestrator.Orchestrator as the embeddable entry point.
type Engine struct {
	orch *orchestrator.Orchestrator
}

// New builds an Engine from a loaded Config and the collaborators a host
// program supplies: an LLM provider, a search provider (plus its
// translator), an HTTP fetcher, and an event sink.
func New(cfg *config.Config, llmProvider llmclient.RawProvider, searchProvider search.Provider, translator search.Translator, fetcher research.Fetcher, sink events.Sink) (*Engine, error) {
	orch, err := orchestrator.New(cfg, llmProvider, searchProvider, translator, fetcher, sink)
	if err != nil {
		return nil, err
	}
	return &Engine{orch: orch}, nil
}

// Run executes runClaimBoundaryAnalysis (spec.md §6) for one Input and
// returns the resultJson shape.
func (e *Engine) Run(ctx context.Context, input Input) (*Result, error) {
	return e.orch.Run(ctx, input)
}
