package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "govform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
autosave: false
store:
  driver: redis
  url: redis://localhost:6379/0
  ttl: 72h
  fallback_keys: a,b
server:
  addr: ":9000"
  request_timeout: 5s
submission:
  delay: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Autosave)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, 72*time.Hour, cfg.Store.TTL)
	assert.Equal(t, []string{"a", "b"}, cfg.Store.FallbackKeys)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Submission.Delay)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: file\n  path: /tmp/a\n")
	t.Setenv("GOVFORM_STORE_PATH", "/tmp/b")
	t.Setenv("GOVFORM_SUBMISSION_DELAY", "1s")
	t.Setenv("GOVFORM_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/b", cfg.Store.Path)
	assert.Equal(t, time.Second, cfg.Submission.Delay)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_OverridesWinOverEnv(t *testing.T) {
	t.Setenv("GOVFORM_STORE_DRIVER", "redis")
	cfg, err := Load("", func(c *Config) {
		c.Store.Driver = DriverMemory
	})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "stor:\n  driver: file\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"redis without url", func(c *Config) { c.Store.Driver = DriverRedis }, true},
		{"postgres with dsn", func(c *Config) {
			c.Store.Driver = DriverPostgres
			c.Store.URL = "postgres://localhost/govform"
		}, false},
		{"lock without redis", func(c *Config) { c.Store.DistributedLock = true }, true},
		{"negative delay", func(c *Config) { c.Submission.Delay = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
