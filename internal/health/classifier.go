// Package health classifies upstream errors (C1) and tracks per-provider
// circuit-breaker state so a run can pause and resume without data loss.
//
// Classification is shape-based rather than type-based: callers are never
// required to produce a particular Go error type. Errors are routed by
// declared capability interfaces (ShapedError, httpStatusError) into the
// fact-checker's own closed category set.
package health

import (
	"errors"
	"net/http"
	"strings"
)

// Category is the closed set of error categories this system reasons about.
type Category string

const (
	CategoryRateLimit         Category = "rate_limit"
	CategoryProviderOutage    Category = "provider_outage"
	CategoryTimeout           Category = "timeout"
	CategorySoftRefusal       Category = "content_policy_soft_refusal"
	CategoryUnknown           Category = "unknown"
)

// Provider identifies which upstream collaborator produced an error.
type Provider string

const (
	ProviderSearch Provider = "search"
	ProviderLLM    Provider = "llm"
	ProviderNone   Provider = ""
)

// Classification is the result of classifying an error.
type Classification struct {
	Category          Category
	Provider          Provider
	ShouldCountAsFailure bool
	Message           string
}

// ShapedError lets a caller hand the classifier an explicit shape instead of
// relying on message sniffing. Any error that implements this interface is
// classified directly from its fields.
type ShapedError interface {
	error
	ErrorShape() (name string, provider Provider, status int, fatal bool)
}

var softRefusalSubstrings = []string{
	"i can't help with",
	"i cannot help with",
	"i'm not able to help with",
	"i won't help with",
	"cannot assist with that request",
}

var outageSubstrings = []string{
	"service unavailable",
	"upstream connect error",
	"connection refused",
	"no healthy upstream",
	"bad gateway",
}

var timeoutSubstrings = []string{
	"context deadline exceeded",
	"timeout",
	"timed out",
	"i/o timeout",
}

// Classify maps an error to a Classification per spec.md §4.1. Classification
// never depends on a language-specific error type: it prefers an explicit
// ShapedError, then HTTP status codes, then a small set of stable message
// substrings.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Category: CategoryUnknown, Provider: ProviderNone, Message: ""}
	}

	var shaped ShapedError
	if errors.As(err, &shaped) {
		name, provider, status, fatal := shaped.ErrorShape()
		return classifyShape(name, provider, status, fatal, err.Error())
	}

	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode(), ProviderNone, err.Error())
	}

	msg := strings.ToLower(err.Error())
	for _, s := range softRefusalSubstrings {
		if strings.Contains(msg, s) {
			return Classification{Category: CategorySoftRefusal, Provider: ProviderLLM, ShouldCountAsFailure: false, Message: err.Error()}
		}
	}
	for _, s := range timeoutSubstrings {
		if strings.Contains(msg, s) {
			return Classification{Category: CategoryTimeout, Provider: ProviderNone, ShouldCountAsFailure: false, Message: err.Error()}
		}
	}
	for _, s := range outageSubstrings {
		if strings.Contains(msg, s) {
			return Classification{Category: CategoryProviderOutage, Provider: ProviderNone, ShouldCountAsFailure: true, Message: err.Error()}
		}
	}
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return Classification{Category: CategoryRateLimit, Provider: ProviderNone, ShouldCountAsFailure: true, Message: err.Error()}
	}

	return Classification{Category: CategoryUnknown, Provider: ProviderNone, ShouldCountAsFailure: false, Message: err.Error()}
}

func classifyShape(name string, provider Provider, status int, fatal bool, msg string) Classification {
	if status != 0 {
		c := classifyStatus(status, provider, msg)
		if fatal && c.Category == CategoryUnknown {
			c.Category = CategoryProviderOutage
			c.ShouldCountAsFailure = true
		}
		return c
	}
	lname := strings.ToLower(name)
	switch {
	case strings.Contains(lname, "ratelimit"), strings.Contains(lname, "rate_limit"):
		return Classification{Category: CategoryRateLimit, Provider: provider, ShouldCountAsFailure: true, Message: msg}
	case strings.Contains(lname, "timeout"):
		return Classification{Category: CategoryTimeout, Provider: provider, ShouldCountAsFailure: false, Message: msg}
	case strings.Contains(lname, "refusal"), strings.Contains(lname, "policy"):
		return Classification{Category: CategorySoftRefusal, Provider: provider, ShouldCountAsFailure: false, Message: msg}
	case fatal:
		return Classification{Category: CategoryProviderOutage, Provider: provider, ShouldCountAsFailure: true, Message: msg}
	default:
		return Classification{Category: CategoryUnknown, Provider: provider, ShouldCountAsFailure: false, Message: msg}
	}
}

func classifyStatus(status int, provider Provider, msg string) Classification {
	switch {
	case status == http.StatusTooManyRequests:
		return Classification{Category: CategoryRateLimit, Provider: provider, ShouldCountAsFailure: true, Message: msg}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return Classification{Category: CategoryProviderOutage, Provider: provider, ShouldCountAsFailure: true, Message: msg}
	case status >= 500:
		return Classification{Category: CategoryProviderOutage, Provider: provider, ShouldCountAsFailure: true, Message: msg}
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return Classification{Category: CategoryTimeout, Provider: provider, ShouldCountAsFailure: false, Message: msg}
	default:
		return Classification{Category: CategoryUnknown, Provider: provider, ShouldCountAsFailure: false, Message: msg}
	}
}

// httpStatusError is implemented by errors that merely expose an HTTP status
// code (a weaker contract than ShapedError).
type httpStatusError interface {
	error
	StatusCode() int
}

// IsSoftRefusal applies the prompt-independent regex-equivalent substring
// check described in spec.md §4.3 directly to response text (not an error).
func IsSoftRefusal(responseText string) bool {
	msg := strings.ToLower(responseText)
	for _, s := range softRefusalSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
