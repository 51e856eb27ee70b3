// Package llmclient provides the LLM call primitive (C3): a typed
// (promptKey, payload, tier/temperature/deterministic) -> parsed-JSON call
// with retries, token accounting, and error classification, built around
// plain net/http request/response plumbing (see anthropic.go).
package llmclient

// Tier selects a model class for a call.
type Tier string

const (
	TierHaiku  Tier = "haiku"
	TierSonnet Tier = "sonnet"
	TierOpus   Tier = "opus"
)

// apiRequest mirrors the Anthropic Messages API request shape.
type apiRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []apiMessage  `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content    []apiContentBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
	Usage      Usage             `json:"usage"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage tracks token usage for a single call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined input+output token count.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// defaultModelForTier maps a Tier to a concrete Anthropic model id. NewClient
// uses it for every Client; no constructor option overrides it.
var defaultModelForTier = map[Tier]string{
	TierHaiku:  "claude-haiku-4-5",
	TierSonnet: "claude-sonnet-4-5",
	TierOpus:   "claude-opus-4-1",
}
