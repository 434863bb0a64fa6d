package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.DefaultTempo)
	assert.Equal(t, 80*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "127.0.0.1:8787", cfg.ServeAddr)
	assert.Empty(t, cfg.DBPath)
	assert.Empty(t, cfg.CatalogPath)
	assert.False(t, cfg.LogJSON)
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/practice.db
catalog_path: /tmp/evening.yaml
tempo:
  default: 72
timer:
  tick_interval: 50ms
serve:
  addr: 127.0.0.1:9000
log:
  json: true
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/practice.db", cfg.DBPath)
	assert.Equal(t, "/tmp/evening.yaml", cfg.CatalogPath)
	assert.Equal(t, 72, cfg.DefaultTempo)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "127.0.0.1:9000", cfg.ServeAddr)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "tempo:\n  default: 72\n")
	t.Setenv("ETUDE_TEMPO_DEFAULT", "90")
	t.Setenv("ETUDE_DB_PATH", "/tmp/env.db")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.DefaultTempo)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
}

func TestLoad_ClampsAndFallsBack(t *testing.T) {
	path := writeConfig(t, `
tempo:
  default: -5
timer:
  tick_interval: 2s
serve:
  addr: ""
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.DefaultTempo)
	assert.Equal(t, MaxTickInterval, cfg.TickInterval)
	assert.Equal(t, "127.0.0.1:8787", cfg.ServeAddr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "tempo: [unclosed\n")

	_, err := Load(viper.New(), path)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	require.NotEmpty(t, keys)
	assert.Equal(t, "ETUDE_DB_PATH", keys[0].EnvVar)
	assert.Equal(t, "ETUDE_TIMER_TICK_INTERVAL", EnvVar(KeyTickInterval))
}
