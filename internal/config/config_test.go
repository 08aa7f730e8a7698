package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, name := range []string{
		"SERVER_PORT", "PERCEPT_PREFIX", "TICK_INTERVAL", "ACTION_TIMEOUT",
		"MAX_PROMOTIONS_PER_TICK", "BELIEF_MIN_CERTAINTY", "RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST", "LOG_LEVEL", "PLANNER_MAX_DEPTH",
	} {
		t.Setenv(name, "")
	}

	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, "bdi:percepts", PerceptPrefix())
	assert.Equal(t, time.Second, TickInterval())
	assert.Equal(t, 5*time.Second, ActionTimeout())
	assert.Equal(t, 1, MaxPromotionsPerTick())
	assert.Zero(t, BeliefMinCertainty())
	assert.Zero(t, PlannerMaxDepth())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TICK_INTERVAL", "250ms")
	t.Setenv("PLANNER_MAX_NODES", "5000")
	t.Setenv("BELIEF_MIN_CERTAINTY", "0.3")
	t.Setenv("MAX_PROMOTIONS_PER_TICK", "-2")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, 250*time.Millisecond, TickInterval())
	assert.Equal(t, 5000, PlannerMaxNodes())
	assert.Equal(t, 0.3, BeliefMinCertainty())
	assert.Equal(t, 1, MaxPromotionsPerTick(), "invalid values fall back to the default")
}

func TestLoad_EnvFileAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DOMAIN_FILE=courier.yaml\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("API_KEY=s3cret\n"), 0o600))

	t.Setenv("BDI_ENV", envFile)
	// godotenv never overrides variables that are already set, so register them for
	// cleanup and clear them first.
	t.Setenv("DOMAIN_FILE", "")
	t.Setenv("API_KEY", "")
	require.NoError(t, os.Unsetenv("DOMAIN_FILE"))
	require.NoError(t, os.Unsetenv("API_KEY"))

	require.NoError(t, Load())
	assert.Equal(t, "courier.yaml", DomainFile())
	assert.Equal(t, "s3cret", APIKey())
}

func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger, err := NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	t.Setenv("LOG_LEVEL", "chatty")
	_, err = NewLogger()
	assert.Error(t, err)
}
