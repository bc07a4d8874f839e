package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultStepBudgetValue, cfg.StepBudget)
	assert.Equal(t, DefaultTargetChunkSizeValue, cfg.TargetChunkSize)
	assert.Equal(t, DefaultMaxCandidatesValue, cfg.MaxCandidates)
	assert.Equal(t, 8, cfg.DecodeWorkers)
	assert.Equal(t, 1_000_000, cfg.MaxBodyBytes)
	assert.True(t, cfg.IndexBodyTokens)
	assert.Equal(t, 6, cfg.MinTokenLen)
	assert.Equal(t, "gemini-2.5-flash", cfg.OracleModel)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STEP_BUDGET", "12")
	t.Setenv("INDEX_BODY_TOKENS", "false")
	t.Setenv("ORACLE_TIMEOUT_MS", "1500")
	t.Setenv("NOISE_DOMAINS", "tracker.example")

	cfg := Load()
	assert.Equal(t, 12, cfg.StepBudget)
	assert.False(t, cfg.IndexBodyTokens)
	assert.Equal(t, 1500*time.Millisecond, cfg.OracleTimeout)
	assert.Equal(t, "tracker.example", cfg.NoiseDomainsCSV)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STEP_BUDGET", "not-a-number")
	t.Setenv("INDEX_BODY_TOKENS", "maybe")

	cfg := Load()
	assert.Equal(t, DefaultStepBudgetValue, cfg.StepBudget)
	assert.True(t, cfg.IndexBodyTokens)
}
