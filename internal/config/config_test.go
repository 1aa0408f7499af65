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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, 5, cfg.DataSource.RateLimit)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Retry.Factor)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, *cfg.Cache.NegativeTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Lookback())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Database.SQLitePath)

	w, err := cfg.TargetWeight()
	require.NoError(t, err)
	assert.Equal(t, "1", w.String())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: REST
  base_url: https://feed.example.com
  api_key: k
  target_path: $.data.target
  timeout: 3s
retry:
  max_attempts: 5
  base_delay: 100ms
cache:
  ttl: 30s
  negative_ttl: 0s
target:
  weight: "0.5"
warm:
  symbols: [AAPL, MSFT]
database:
  sqlite_path: /tmp/portal.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, "$.data.target", cfg.DataSource.TargetPath)
	assert.Equal(t, 3*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Retry.AttemptTimeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Zero(t, *cfg.Cache.NegativeTTL, "explicit 0 disables negative caching")
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Warm.Symbols)

	w, err := cfg.TargetWeight()
	require.NoError(t, err)
	assert.Equal(t, "0.5", w.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "data_source:\n  provider: yahoo\n")
	t.Setenv("FEED_PROVIDER", "rest")
	t.Setenv("FEED_BASE_URL", "http://localhost:9000")
	t.Setenv("FEED_API_KEY", "secret")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("CACHE_NEGATIVE_TTL", "0s")
	t.Setenv("WARM_SYMBOLS", " aapl, msft ,,")
	t.Setenv("SQLITE_PATH", "/var/lib/portal.db")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, "http://localhost:9000", cfg.DataSource.BaseURL)
	assert.Equal(t, "secret", cfg.DataSource.APIKey)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Zero(t, *cfg.Cache.NegativeTTL)
	assert.Equal(t, []string{"aapl", "msft"}, cfg.Warm.Symbols)
	assert.Equal(t, "/var/lib/portal.db", cfg.Database.SQLitePath)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
}

func TestLoad_BadEnvDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "CACHE_TTL")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "data_source: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown provider", "data_source:\n  provider: bloomberg\n", "data_source.provider"},
		{"rest without url", "data_source:\n  provider: rest\n", "base_url"},
		{"bad jsonpath", "data_source:\n  target_path: \"$.[\"\n", "target_path"},
		{"weight too large", "target:\n  weight: \"1.5\"\n", "target.weight"},
		{"weight not a number", "target:\n  weight: lots\n", "target.weight"},
		{"bad sweep cron", "cache:\n  sweep_cron: \"every now and then\"\n", "cache.sweep_cron"},
		{"bad warm cron", "warm:\n  symbols: [AAPL]\n  cron: \"* *\"\n", "warm.cron"},
		{"factor below one", "retry:\n  factor: 0.5\n", "retry.factor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("CONFIG_PATH", "/etc/portal.yaml")
	assert.Equal(t, "/etc/portal.yaml", Path())
}
