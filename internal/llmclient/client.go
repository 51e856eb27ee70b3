package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/determinism"
	"github.com/claimboundary/factcheck/internal/health"
)

// RawProvider is the minimal transport a Client needs: send a system+user
// prompt at a given model/temperature/max-tokens and get back text + usage.
// Production code plugs in AnthropicProvider; tests plug in a MockProvider.
type RawProvider interface {
	RawCall(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int) (string, Usage, error)
}

// Schema is a minimal structural validator for a prompt's declared output
// shape: the set of top-level fields that must be present.
type Schema struct {
	RequiredFields []string
}

// Validate reports the first missing required field, or "" if valid.
func (s Schema) Validate(data map[string]interface{}) string {
	for _, f := range s.RequiredFields {
		if _, ok := data[f]; !ok {
			return f
		}
	}
	return ""
}

// Prompt declares a single named prompt's system text and output schema.
type Prompt struct {
	Key          string
	SystemPrompt string
	Schema       Schema
	DefaultTier  Tier
}

// CallOptions configures a single Call.
type CallOptions struct {
	Tier            Tier
	Temperature     float64
	Deterministic   bool
	MaxOutputTokens int
}

// Outcome reports how a Call's output was produced, to model the
// well-formed/degraded tagged variant from spec.md §9.
type Outcome struct {
	Degraded          bool
	DegradedReason    string
	SoftRefusalRetried bool
	SchemaRetried     bool
}

// Client is the C3 LLM call primitive.
type Client struct {
	provider   RawProvider
	registry   map[string]Prompt
	budget     *budget.Tracker
	health     *health.Tracker
	modelForTier map[Tier]string
	clock      func() time.Time
	jitter     func(time.Duration) time.Duration
}

// NewClient builds a Client over a RawProvider, sharing the run's budget and
// health trackers.
func NewClient(provider RawProvider, bt *budget.Tracker, ht *health.Tracker) *Client {
	return &Client{
		provider:     provider,
		registry:     make(map[string]Prompt),
		budget:       bt,
		health:       ht,
		modelForTier: defaultModelForTier,
		clock:        time.Now,
		jitter: func(base time.Duration) time.Duration {
			return base + time.Duration(rand.Int63n(int64(base)))
		},
	}
}

// Register adds a Prompt to the client's registry.
func (c *Client) Register(p Prompt) {
	c.registry[p.Key] = p
}

// neutralFallback returns the neutral fallback shape for a failed call,
// per spec.md §4.3: a degraded, schema-valid-enough map so downstream stages
// never crash on a missing field.
func neutralFallback(schema Schema) map[string]interface{} {
	out := make(map[string]interface{}, len(schema.RequiredFields))
	for _, f := range schema.RequiredFields {
		out[f] = nil
	}
	return out
}

// Call invokes promptKey with payload, returning parsed JSON plus an Outcome
// describing how the call degraded, if at all. It never returns an error for
// recoverable conditions (schema failure, soft refusal, timeout, pause) —
// those all land in the Outcome's degraded branch with a warning-worthy
// reason, per spec.md §9 "never let a missing field silently zero the
// verdict".
func (c *Client) Call(ctx context.Context, promptKey string, payload map[string]interface{}, opts CallOptions) (map[string]interface{}, Outcome, error) {
	prompt, ok := c.registry[promptKey]
	if !ok {
		return nil, Outcome{}, fmt.Errorf("llmclient: unknown prompt key %q", promptKey)
	}

	if paused, reason := c.health.IsPaused(); paused {
		return neutralFallback(prompt.Schema), Outcome{Degraded: true, DegradedReason: "system_paused: " + reason}, nil
	}

	tier := opts.Tier
	if tier == "" {
		tier = prompt.DefaultTier
	}
	model := c.modelForTier[tier]
	temperature := determinism.Temperature(opts.Temperature, opts.Deterministic)
	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	if check := c.budget.CheckTokenBudget(maxTokens); !check.Allowed {
		c.budget.MarkExceeded(check.Reason)
		return neutralFallback(prompt.Schema), Outcome{Degraded: true, DegradedReason: "budget_exceeded: " + check.Reason}, nil
	}

	userPrompt := encodePayload(payload)

	text, usage, err := c.invokeWithRetry(ctx, prompt.SystemPrompt, userPrompt, model, temperature, maxTokens)
	c.budget.RecordLLMCall(usage.Total())
	if err != nil {
		classification := health.Classify(err)
		c.health.RecordOutcome(classification)
		if classification.Category == health.CategoryTimeout {
			return neutralFallback(prompt.Schema), Outcome{Degraded: true, DegradedReason: "timeout"}, nil
		}
		return nil, Outcome{}, err
	}

	outcome := Outcome{}
	if health.IsSoftRefusal(text) {
		outcome.SoftRefusalRetried = true
		retryPrompt := userPrompt + "\n\nPlease rephrase and answer directly; do not refuse."
		text, usage, err = c.invokeWithRetry(ctx, prompt.SystemPrompt, retryPrompt, model, temperature, maxTokens)
		c.budget.RecordLLMCall(usage.Total())
		if err != nil {
			return neutralFallback(prompt.Schema), Outcome{Degraded: true, DegradedReason: "content_policy_soft_refusal", SoftRefusalRetried: true}, nil
		}
	}

	data, parseErr := parseJSONObject(text)
	if parseErr == nil {
		if missing := prompt.Schema.Validate(data); missing == "" {
			return data, outcome, nil
		}
	}

	// Single schema-failure retry with an "emit JSON only" reminder.
	outcome.SchemaRetried = true
	retryPrompt := userPrompt + "\n\nRespond with a single JSON object only. No prose, no markdown code fences."
	text, usage, err = c.invokeWithRetry(ctx, prompt.SystemPrompt, retryPrompt, model, temperature, maxTokens)
	c.budget.RecordLLMCall(usage.Total())
	if err == nil {
		data, parseErr = parseJSONObject(text)
		if parseErr == nil {
			if missing := prompt.Schema.Validate(data); missing == "" {
				return data, outcome, nil
			}
		}
	}

	outcome.Degraded = true
	outcome.DegradedReason = "structured_output_failure"
	return neutralFallback(prompt.Schema), outcome, nil
}

// invokeWithRetry retries a transient provider error once with 250ms jitter
// (spec.md §4.4 applies the same policy to search; §4.3 implies it for LLM
// calls classified as retryable).
func (c *Client) invokeWithRetry(ctx context.Context, system, user, model string, temperature float64, maxTokens int) (string, Usage, error) {
	text, usage, err := c.provider.RawCall(ctx, system, user, model, temperature, maxTokens)
	if err == nil {
		return text, usage, nil
	}
	classification := health.Classify(err)
	if !classification.ShouldCountAsFailure {
		return "", Usage{}, err
	}
	select {
	case <-time.After(c.jitter(250 * time.Millisecond)):
	case <-ctx.Done():
		return "", Usage{}, ctx.Err()
	}
	return c.provider.RawCall(ctx, system, user, model, temperature, maxTokens)
}

func encodePayload(payload map[string]interface{}) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(b)
}

// parseJSONObject strips code fences and extracts the outermost JSON object
// from a model's text output (spec.md §4.3).
func parseJSONObject(text string) (map[string]interface{}, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("llmclient: no JSON object found in output")
	}
	candidate := cleaned[start : end+1]

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil, fmt.Errorf("llmclient: invalid JSON: %w", err)
	}
	return data, nil
}
