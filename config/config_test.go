package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
plant:
  capacity_kwh: 4000
  max_charge_kw: 670
  max_discharge_kw: 2400
  grid_import_limit_kw: 670
  grid_export_limit_kw: 3880
  incentive_rate_mwh: -10
  allow_charge_below_floor: true
engine:
  mode: lookahead
  rules:
    lookahead_periods: 24
logging:
  level: debug
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	require.Equal(t, 4000.0, cfg.Plant.CapacityKWh)
	require.Equal(t, "lookahead", cfg.Engine.Mode)
	require.Equal(t, 24, cfg.Engine.Rules.LookaheadPeriods)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Defaults fill the untouched fields.
	require.Equal(t, 0.95, cfg.Plant.ChargeEfficiency)
	require.Equal(t, 0.17, cfg.Plant.ConversionRatio)
	require.Equal(t, 600.0, cfg.Engine.Solver.TimeLimitSeconds)
	require.Equal(t, 0.5, cfg.Engine.Rules.ChargeAlpha)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PVBESS_ENGINE__MODE", "daily")
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "daily", cfg.Engine.Mode)
}

func TestLoadRejectsUnknownEngineMode(t *testing.T) {
	body := sampleYAML + "\n"
	cfg := writeConfig(t, "config.yaml", body)
	t.Setenv("PVBESS_ENGINE__MODE", "tabu-search")
	_, err := Load(cfg)
	require.Error(t, err)
}

func TestLoadRejectsInvalidPlant(t *testing.T) {
	body := `
plant:
  capacity_kwh: -1
engine:
  mode: exact
`
	_, err := Load(writeConfig(t, "config.yaml", body))
	require.Error(t, err)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "config.toml", "x = 1"))
	require.Error(t, err)
}

func TestEngineConfigBuild(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)
	eng, err := cfg.Engine.Build()
	require.NoError(t, err)
	require.Equal(t, "lookahead", eng.Name())
}
