package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DBPath(), cfg.DBPath)
	assert.Equal(t, "", cfg.Dataset)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultHistory, cfg.History)
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 7, cfg.Coverage.HorizonDays)
	assert.Empty(t, cfg.Cache.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Output.Color)
	assert.Equal(t, 80, cfg.Output.Width)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
dataset: /tmp/squads.json
log:
  level: debug
  json: true
history:
  optimal_limit: 10
engine:
  timeout: 250ms
  workers: 2
cache:
  redis_addr: localhost:6379
  ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/squads.json", cfg.Dataset)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 10, cfg.History.OptimalLimit)
	assert.Equal(t, 20, cfg.History.CohesionLimit, "unset keys keep defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.Timeout)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SQUADPULSE_LOG_LEVEL", "error")
	t.Setenv("SQUADPULSE_ENGINE_WORKERS", "9")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 9, cfg.Engine.Workers)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y.db"), expandPath("~/x/y.db"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "", expandPath(""))
}
