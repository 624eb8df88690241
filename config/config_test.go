package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "EUR", cfg.Checkout.Currency)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIURL, "")
	t.Setenv("TOOLRENT_REDIS", "localhost:6379")

	path := writeConfig(t, `
api:
  base_url: https://rent.example.com
  timeout: 5s
  rate_limit:
    rps: 2
cache:
  redis_addr: ${TOOLRENT_REDIS}
  ttl: 30s
logging:
  level: debug
  format: json
checkout:
  currency: USD
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rent.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.0, cfg.API.RateLimit.RPS)
	assert.Equal(t, 5, cfg.API.RateLimit.Burst)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "USD", cfg.Checkout.Currency)
}

func TestLoadEnvOverridesBaseURL(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIURL, "http://staging:9000")

	cfg, err := Load(writeConfig(t, "api:\n  base_url: https://rent.example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://staging:9000", cfg.API.BaseURL)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvAPIURL, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TOOLRENT_TEST_URL=https://from-dotenv.example.com\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("TOOLRENT_TEST_URL") })

	cfg, err := Load(writeConfig(t, "api:\n  base_url: ${TOOLRENT_TEST_URL}\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://from-dotenv.example.com", cfg.API.BaseURL)
}

func TestLoadValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvAPIURL, "")

	_, err := Load(writeConfig(t, "api:\n  base_url: not a url\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "checkout:\n  currency: EURO\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  output: file\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "api: [broken"))
	assert.Error(t, err)
}
