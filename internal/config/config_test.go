package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOCALFIRST_CONFIG_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, CacheFile, cfg.Cache.Backend)
	require.Equal(t, 10*time.Second, cfg.Client.Timeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
client:
  base_url: http://api.example.test
  timeout: 3s
cache:
  backend: sqlite
  path: cache.db
sync:
  probe_interval: 1m
limits:
  max_records: 50
auth:
  enabled: true
`), 0o600))

	t.Setenv("LOCALFIRST_CONFIG_PATH", path)
	t.Setenv("LOCALFIRST_SERVER_PORT", "7070")
	t.Setenv("LOCALFIRST_CLIENT_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "http://api.example.test", cfg.Client.BaseURL)
	require.Equal(t, "secret", cfg.Client.Token)
	require.Equal(t, 3*time.Second, cfg.Client.Timeout)
	require.Equal(t, CacheSQLite, cfg.Cache.Backend)
	require.Equal(t, "cache.db", cfg.Cache.Path)
	require.Equal(t, time.Minute, cfg.Sync.ProbeInterval)
	require.Equal(t, 50, cfg.Limits.MaxRecords)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("LOCALFIRST_CONFIG_PATH", "")

	t.Setenv("LOCALFIRST_SERVER_PORT", "abc")
	_, err := Load()
	require.ErrorContains(t, err, "LOCALFIRST_SERVER_PORT")

	t.Setenv("LOCALFIRST_SERVER_PORT", "")
	t.Setenv("LOCALFIRST_CLIENT_TIMEOUT", "soon")
	_, err = Load()
	require.ErrorContains(t, err, "LOCALFIRST_CLIENT_TIMEOUT")

	t.Setenv("LOCALFIRST_CLIENT_TIMEOUT", "")
	t.Setenv("LOCALFIRST_CACHE_BACKEND", "floppy")
	_, err = Load()
	require.ErrorContains(t, err, "unknown cache backend")

	t.Setenv("LOCALFIRST_CACHE_BACKEND", "redis")
	_, err = Load()
	require.ErrorContains(t, err, "redis_url")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("LOCALFIRST_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
