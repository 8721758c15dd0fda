package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAMLWithDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
scoring:
  weights:
    skill_match: 0.4
    efficiency: 0.3
    workload_balance: 0.2
    availability: 0.1
optimizer:
  time_budget_ms: 1500
resilience:
  timeout_ms: 500
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 1500, cfg.Optimizer.TimeBudgetMS)
	require.Equal(t, 500, cfg.Resilience.TimeoutMS)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Unset sections fall back to defaults.
	require.Equal(t, 40, cfg.Optimizer.PopulationSize)
	require.Equal(t, 5, cfg.Resilience.Breaker.FailureThreshold)
	require.Equal(t, 0.5, cfg.Scoring.PartialSkillCredit)
	require.NotEmpty(t, cfg.Geo.Zones)
	require.Equal(t, 35.0, cfg.Geo.AvgSpeedKmh)
	require.NotNil(t, cfg.ZoneMap())
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "optimizer": {"greedy_threshold": 10},
  "notify": {"broker": "tcp://localhost:1883"}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Optimizer.GreedyThreshold)
	require.Equal(t, "tcp://localhost:1883", cfg.Notify.Broker)
	require.Equal(t, "dispatch-notifier", cfg.Notify.ClientID)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "x = 1")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsBadWeights(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
scoring:
  weights:
    skill_match: 0.9
    efficiency: 0.9
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "scoring")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
optimizer:
  time_budget_ms: 1500
`)
	t.Setenv("FD_OPTIMIZER__TIME_BUDGET_MS", "250")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250, cfg.Optimizer.TimeBudgetMS)
}

func TestLoggingConfig_Validate(t *testing.T) {
	good := LoggingConfig{Level: "info", Format: "json"}
	require.NoError(t, good.Validate())

	bad := LoggingConfig{Level: "verbose", Format: "json"}
	require.Error(t, bad.Validate())

	badFmt := LoggingConfig{Level: "info", Format: "xml"}
	require.Error(t, badFmt.Validate())
}
