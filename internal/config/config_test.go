package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "claimboundary-factcheck", cfg.Server.Name)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.True(t, cfg.Budget.EnforceHard)
	assert.Equal(t, 3, cfg.Health.CircuitThreshold)
	assert.Equal(t, "auto", cfg.Search.ProviderName)
	assert.Equal(t, "enabled", cfg.Debate.SelfConsistencyMode)
	assert.False(t, cfg.Determinism.Enabled)
	assert.Empty(t, cfg.Neo4j.URI)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FCB_SERVER_NAME", "test-server")
	t.Setenv("FCB_BUDGET_MAX_TOTAL_TOKENS", "500000")
	t.Setenv("FCB_BUDGET_ENFORCE_HARD", "false")
	t.Setenv("FCB_HEALTH_CIRCUIT_THRESHOLD", "5")
	t.Setenv("FCB_DEBATE_SELF_CONSISTENCY_MODE", "disabled")
	t.Setenv("FCB_DEBATE_TEMPERATURE", "0.6")
	t.Setenv("FCB_DETERMINISM_ENABLED", "true")
	t.Setenv("FCB_NEO4J_URI", "bolt://localhost:7687")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-server", cfg.Server.Name)
	assert.Equal(t, 500000, cfg.Budget.MaxTotalTokens)
	assert.False(t, cfg.Budget.EnforceHard)
	assert.Equal(t, 5, cfg.Health.CircuitThreshold)
	assert.Equal(t, "disabled", cfg.Debate.SelfConsistencyMode)
	assert.InDelta(t, 0.6, cfg.Debate.Temperature, 0.0001)
	assert.True(t, cfg.Determinism.Enabled)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
}

func TestLoadFromEnvInvalidNumbersAreIgnored(t *testing.T) {
	t.Setenv("FCB_BUDGET_MAX_TOTAL_TOKENS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Budget.MaxTotalTokens, cfg.Budget.MaxTotalTokens)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"empty server name", func(c *Config) { c.Server.Name = "" }, true},
		{"bad environment", func(c *Config) { c.Server.Environment = "prod-ish" }, true},
		{"bad provider", func(c *Config) { c.LLM.Provider = "openai" }, true},
		{"negative tokens", func(c *Config) { c.Budget.MaxTotalTokens = -1 }, true},
		{"negative circuit threshold", func(c *Config) { c.Health.CircuitThreshold = -1 }, true},
		{"negative search limit", func(c *Config) { c.Search.MaxEvidenceItems = -1 }, true},
		{"bad self consistency mode", func(c *Config) { c.Debate.SelfConsistencyMode = "maybe" }, true},
		{"bad logging level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad logging format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Server.Name = "file-configured"
	cfg.Budget.MaxTotalIterations = 42
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-configured", loaded.Server.Name)
	assert.Equal(t, 42, loaded.Budget.MaxTotalIterations)
}

func TestLoadFromFileEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Server.Name = "from-file"
	require.NoError(t, cfg.SaveToFile(path))

	t.Setenv("FCB_SERVER_NAME", "from-env")
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.Server.Name)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.json")
	assert.Error(t, err)
}

func TestToJSONRoundTrip(t *testing.T) {
	cfg := Default()
	data, err := cfg.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, cfg.SaveToFile(path))
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestConversionHelpers(t *testing.T) {
	cfg := Default()

	bc := cfg.Budget.ToBudgetConfig()
	assert.Equal(t, cfg.Budget.MaxTotalTokens, bc.MaxTotalTokens)

	sc := cfg.Search.ToSearchConfig()
	assert.Equal(t, cfg.Search.MaxResultsPerQuery, sc.MaxResultsPerQuery)

	rc := cfg.ToResearchConfig()
	assert.Equal(t, cfg.Research.TargetEvidencePerClaim, rc.TargetEvidencePerClaim)
	assert.Equal(t, cfg.Search.MaxEvidenceItems, rc.SearchConfig.MaxEvidenceItems)

	dc := cfg.Debate.ToDebateConfig(true)
	assert.True(t, dc.Deterministic)

	ac := cfg.Aggregate.ToAggregateConfig()
	assert.Equal(t, cfg.Aggregate.WarningThresholdPercent, ac.WarningThresholdPercent)
}

func TestParseBool(t *testing.T) {
	tests := map[string]bool{
		"true": true, "TRUE": true, "1": true, "yes": true, "on": true, "enabled": true,
		"false": false, "0": false, "no": false, "off": false, "garbage": false,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseBool(in), "parseBool(%q)", in)
	}
}
