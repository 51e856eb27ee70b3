// Package config provides configuration management for the ClaimBoundary
// fact-checking engine.
//
// Configuration can be loaded from multiple sources (in order of precedence):
// 1. Environment variables (highest priority)
// 2. Configuration file (JSON)
// 3. Default values (lowest priority)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/claimboundary/factcheck/internal/budget"
	"github.com/claimboundary/factcheck/internal/search"
	"github.com/claimboundary/factcheck/internal/stages/aggregate"
	"github.com/claimboundary/factcheck/internal/stages/debate"
	"github.com/claimboundary/factcheck/internal/stages/research"
)

// Config is the complete engine configuration tree.
type Config struct {
	Server       ServerConfig       `json:"server"`
	LLM          LLMConfig          `json:"llm"`
	Budget       BudgetConfig       `json:"budget"`
	Health       HealthConfig       `json:"health"`
	Search       SearchConfig       `json:"search"`
	Research     ResearchConfig     `json:"research"`
	Reliability  ReliabilityConfig  `json:"reliability"`
	Debate       DebateConfig       `json:"debate"`
	Aggregate    AggregateConfig    `json:"aggregate"`
	Determinism  DeterminismConfig  `json:"determinism"`
	Neo4j        Neo4jConfig        `json:"neo4j"`
	Logging      LoggingConfig      `json:"logging"`
}

// ServerConfig identifies this deployment for logging and the MCP tool registration.
type ServerConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// LLMConfig controls the shared LLM call primitive (C3).
type LLMConfig struct {
	Provider           string  `json:"provider"` // "anthropic" (only supported provider)
	DefaultTemperature float64 `json:"default_temperature"`
}

// BudgetConfig mirrors budget.Config (C2).
type BudgetConfig struct {
	MaxIterationsPerContext int  `json:"max_iterations_per_context"`
	MaxTotalIterations      int  `json:"max_total_iterations"`
	MaxTotalTokens          int  `json:"max_total_tokens"`
	MaxTokensPerCall        int  `json:"max_tokens_per_call"`
	EnforceHard             bool `json:"enforce_hard"`
}

// ToBudgetConfig converts to the budget package's Config.
func (c BudgetConfig) ToBudgetConfig() budget.Config {
	return budget.Config{
		MaxIterationsPerContext: c.MaxIterationsPerContext,
		MaxTotalIterations:      c.MaxTotalIterations,
		MaxTotalTokens:          c.MaxTotalTokens,
		MaxTokensPerCall:        c.MaxTokensPerCall,
		EnforceHard:             c.EnforceHard,
	}
}

// HealthConfig controls the provider circuit breaker (C1).
type HealthConfig struct {
	CircuitThreshold int `json:"circuit_threshold"`
}

// SearchConfig controls the search orchestrator (C4).
type SearchConfig struct {
	MaxResultsPerQuery int    `json:"max_results_per_query"`
	MaxEvidenceItems   int    `json:"max_evidence_items"`
	ProviderName       string `json:"provider_name"`
}

// ToSearchConfig converts to the search package's Config.
func (c SearchConfig) ToSearchConfig() search.Config {
	out := search.DefaultConfig()
	if c.MaxResultsPerQuery != 0 {
		out.MaxResultsPerQuery = c.MaxResultsPerQuery
	}
	if c.MaxEvidenceItems != 0 {
		out.MaxEvidenceItems = c.MaxEvidenceItems
	}
	if c.ProviderName != "" {
		out.ProviderName = c.ProviderName
	}
	return out
}

// ResearchConfig controls the per-context research loop (C8).
type ResearchConfig struct {
	TargetEvidencePerClaim int `json:"target_evidence_per_claim"`
}

// ToResearchConfig converts to the research package's Config, folding in the
// search settings it embeds.
func (c Config) ToResearchConfig() research.Config {
	target := c.Research.TargetEvidencePerClaim
	if target == 0 {
		target = research.TargetEvidencePerClaim
	}
	return research.Config{
		TargetEvidencePerClaim: target,
		SearchConfig:           c.Search.ToSearchConfig(),
	}
}

// ReliabilityConfig controls the source-reliability service (C5).
type ReliabilityConfig struct {
	CachePath string `json:"cache_path"`
}

// DebateConfig controls the verdict debate engine (C10).
type DebateConfig struct {
	SelfConsistencyMode string  `json:"self_consistency_mode"` // "enabled" | "disabled"
	Temperature         float64 `json:"temperature"`
}

// ToDebateConfig converts to the debate package's Config.
func (c DebateConfig) ToDebateConfig(deterministic bool) debate.Config {
	mode := debate.SelfConsistencyEnabled
	if c.SelfConsistencyMode == string(debate.SelfConsistencyDisabled) {
		mode = debate.SelfConsistencyDisabled
	}
	temp := c.Temperature
	if temp == 0 {
		temp = debate.DefaultConfig().Temperature
	}
	return debate.Config{SelfConsistencyMode: mode, Temperature: temp, Deterministic: deterministic}
}

// AggregateConfig controls pruning/weighting thresholds (C11).
type AggregateConfig struct {
	MinEvidenceForTangential int     `json:"min_evidence_for_tangential"`
	RequireQualityEvidence   bool    `json:"require_quality_evidence"`
	WarningThresholdPercent  float64 `json:"warning_threshold_percent"`
	MaxOpinionCount          int     `json:"max_opinion_count"`
}

// ToAggregateConfig converts to the aggregate package's Config.
func (c AggregateConfig) ToAggregateConfig() aggregate.Config {
	def := aggregate.DefaultConfig()
	out := def
	if c.MinEvidenceForTangential != 0 {
		out.MinEvidenceForTangential = c.MinEvidenceForTangential
	}
	out.RequireQualityEvidence = c.RequireQualityEvidence
	if c.WarningThresholdPercent != 0 {
		out.WarningThresholdPercent = c.WarningThresholdPercent
	}
	if c.MaxOpinionCount != 0 {
		out.MaxOpinionCount = c.MaxOpinionCount
	}
	return out
}

// DeterminismConfig controls the deterministic-mode harness (C14).
type DeterminismConfig struct {
	Enabled bool `json:"enabled"`
}

// Neo4jConfig controls the optional audit-graph mirror. Disabled unless URI is set.
type Neo4jConfig struct {
	URI      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoggingConfig controls the standard-library logger.
type LoggingConfig struct {
	Level            string `json:"level"`
	Format           string `json:"format"`
	EnableTimestamps bool   `json:"enable_timestamps"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "claimboundary-factcheck",
			Version:     "1.0.0",
			Environment: "development",
		},
		LLM: LLMConfig{
			Provider:           "anthropic",
			DefaultTemperature: 0.4,
		},
		Budget: BudgetConfig{
			MaxIterationsPerContext: 3,
			MaxTotalIterations:      30,
			MaxTotalTokens:          2_000_000,
			MaxTokensPerCall:        64_000,
			EnforceHard:             true,
		},
		Health: HealthConfig{CircuitThreshold: 3},
		Search: SearchConfig{
			MaxResultsPerQuery: 3,
			MaxEvidenceItems:   8,
			ProviderName:       "auto",
		},
		Research: ResearchConfig{TargetEvidencePerClaim: 3},
		Reliability: ReliabilityConfig{CachePath: "claimboundary-reliability.db"},
		Debate: DebateConfig{
			SelfConsistencyMode: "enabled",
			Temperature:         0.4,
		},
		Aggregate: AggregateConfig{
			MinEvidenceForTangential: 2,
			RequireQualityEvidence:   false,
			WarningThresholdPercent:  70,
			MaxOpinionCount:          0,
		},
		Determinism: DeterminismConfig{Enabled: false},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			EnableTimestamps: true,
		},
	}
}

// Load loads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file, then applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables.
// Environment variables follow the pattern: FCB_<SECTION>_<KEY>
// Example: FCB_SERVER_NAME, FCB_BUDGET_MAX_TOTAL_TOKENS, FCB_DETERMINISM_ENABLED.
func (c *Config) loadFromEnv() error {
	if v := os.Getenv("FCB_SERVER_NAME"); v != "" {
		c.Server.Name = v
	}
	if v := os.Getenv("FCB_SERVER_VERSION"); v != "" {
		c.Server.Version = v
	}
	if v := os.Getenv("FCB_SERVER_ENVIRONMENT"); v != "" {
		c.Server.Environment = v
	}

	if v := os.Getenv("FCB_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("FCB_LLM_DEFAULT_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LLM.DefaultTemperature = f
		}
	}

	if v := os.Getenv("FCB_BUDGET_MAX_ITERATIONS_PER_CONTEXT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Budget.MaxIterationsPerContext = n
		}
	}
	if v := os.Getenv("FCB_BUDGET_MAX_TOTAL_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Budget.MaxTotalIterations = n
		}
	}
	if v := os.Getenv("FCB_BUDGET_MAX_TOTAL_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Budget.MaxTotalTokens = n
		}
	}
	if v := os.Getenv("FCB_BUDGET_MAX_TOKENS_PER_CALL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Budget.MaxTokensPerCall = n
		}
	}
	if v := os.Getenv("FCB_BUDGET_ENFORCE_HARD"); v != "" {
		c.Budget.EnforceHard = parseBool(v)
	}

	if v := os.Getenv("FCB_HEALTH_CIRCUIT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Health.CircuitThreshold = n
		}
	}

	if v := os.Getenv("FCB_SEARCH_MAX_RESULTS_PER_QUERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResultsPerQuery = n
		}
	}
	if v := os.Getenv("FCB_SEARCH_MAX_EVIDENCE_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxEvidenceItems = n
		}
	}
	if v := os.Getenv("FCB_SEARCH_PROVIDER_NAME"); v != "" {
		c.Search.ProviderName = v
	}

	if v := os.Getenv("FCB_RESEARCH_TARGET_EVIDENCE_PER_CLAIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Research.TargetEvidencePerClaim = n
		}
	}

	if v := os.Getenv("FCB_RELIABILITY_CACHE_PATH"); v != "" {
		c.Reliability.CachePath = v
	}

	if v := os.Getenv("FCB_DEBATE_SELF_CONSISTENCY_MODE"); v != "" {
		c.Debate.SelfConsistencyMode = strings.ToLower(v)
	}
	if v := os.Getenv("FCB_DEBATE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Debate.Temperature = f
		}
	}

	if v := os.Getenv("FCB_AGGREGATE_MIN_EVIDENCE_FOR_TANGENTIAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Aggregate.MinEvidenceForTangential = n
		}
	}
	if v := os.Getenv("FCB_AGGREGATE_REQUIRE_QUALITY_EVIDENCE"); v != "" {
		c.Aggregate.RequireQualityEvidence = parseBool(v)
	}
	if v := os.Getenv("FCB_AGGREGATE_WARNING_THRESHOLD_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Aggregate.WarningThresholdPercent = f
		}
	}
	if v := os.Getenv("FCB_AGGREGATE_MAX_OPINION_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Aggregate.MaxOpinionCount = n
		}
	}

	if v := os.Getenv("FCB_DETERMINISM_ENABLED"); v != "" {
		c.Determinism.Enabled = parseBool(v)
	}

	if v := os.Getenv("FCB_NEO4J_URI"); v != "" {
		c.Neo4j.URI = v
	}
	if v := os.Getenv("FCB_NEO4J_USERNAME"); v != "" {
		c.Neo4j.Username = v
	}
	if v := os.Getenv("FCB_NEO4J_PASSWORD"); v != "" {
		c.Neo4j.Password = v
	}

	if v := os.Getenv("FCB_LOGGING_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FCB_LOGGING_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("FCB_LOGGING_ENABLE_TIMESTAMPS"); v != "" {
		c.Logging.EnableTimestamps = parseBool(v)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server.name cannot be empty")
	}
	if c.Server.Environment != "development" && c.Server.Environment != "staging" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be one of: development, staging, production")
	}
	if c.LLM.Provider != "anthropic" {
		return fmt.Errorf("llm.provider must be 'anthropic' (only supported provider)")
	}
	if c.Budget.MaxTotalTokens < 0 || c.Budget.MaxTokensPerCall < 0 {
		return fmt.Errorf("budget token caps cannot be negative")
	}
	if c.Health.CircuitThreshold < 0 {
		return fmt.Errorf("health.circuit_threshold cannot be negative")
	}
	if c.Search.MaxResultsPerQuery < 0 || c.Search.MaxEvidenceItems < 0 {
		return fmt.Errorf("search limits cannot be negative")
	}
	if c.Debate.SelfConsistencyMode != "enabled" && c.Debate.SelfConsistencyMode != "disabled" {
		return fmt.Errorf("debate.self_consistency_mode must be 'enabled' or 'disabled'")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}
	return nil
}

// parseBool parses a boolean from string (handles various formats).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on" || s == "enabled"
}

// ToJSON serializes the configuration to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

