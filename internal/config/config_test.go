package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "techindex.db", cfg.Store.SQLitePath)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "https://places.googleapis.com/v1", cfg.Places.BaseURL)
	assert.InDelta(t, 5.0, cfg.Places.QPS, 0.001)
	assert.Equal(t, 4, cfg.Places.Workers)
	assert.Equal(t, 2, cfg.Density.RangeMin)
	assert.Equal(t, 7, cfg.Density.RangeMax)
	assert.Equal(t, 2, cfg.Density.MinActive)
	assert.InDelta(t, 0.0, cfg.Density.SoftMinRatio, 0.001)
	assert.Equal(t, 800, cfg.Density.MaxOut)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/techindex
log:
  level: debug
  format: console
density:
  max_out: 200
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 200, cfg.Density.MaxOut)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Density.MinActive)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TECHINDEX_STORE_DRIVER", "postgres")
	t.Setenv("TECHINDEX_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("TECHINDEX_SERVER_PORT", "3000")
	t.Setenv("TECHINDEX_PLACES_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Places.Workers)
}

func TestDensityKnobsBridge(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	k := cfg.Density.Knobs()
	assert.Equal(t, 2, k.RangeMin)
	assert.Equal(t, 7, k.RangeMax)
	assert.Equal(t, 2, k.MinActive)
	assert.Equal(t, 800, k.MaxOut)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults(t *testing.T) *Config {
	t.Helper()
	chTempDir(t)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestValidatePipeline(t *testing.T) {
	cfg := validDefaults(t)
	assert.NoError(t, cfg.Validate("pipeline"))

	cfg.Density.SoftMinRatio = 1.5
	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "soft_min_ratio")
}

func TestValidatePlaces(t *testing.T) {
	cfg := validDefaults(t)

	err := cfg.Validate("places")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "places.key is required")

	cfg.Places.Key = "test-key"
	assert.NoError(t, cfg.Validate("places"))

	cfg.Places.Workers = 0
	err = cfg.Validate("places")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "places.workers")
}

func TestValidateSink(t *testing.T) {
	cfg := validDefaults(t)
	assert.NoError(t, cfg.Validate("sink"))

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("sink")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/techindex"
	assert.NoError(t, cfg.Validate("sink"))

	cfg.Store.Driver = "oracle"
	err = cfg.Validate("sink")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults(t)
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults(t)
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
