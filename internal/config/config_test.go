package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NEWISH_JWT_SECRET", validSecret)
	t.Setenv("NEWISH_TMDB_API_KEY", "tmdb-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.RateWindow())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.False(t, cfg.IsProduction())
	assert.NotEmpty(t, cfg.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NEWISH_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("NEWISH_RATE_LIMIT", "5")
	t.Setenv("NEWISH_RATE_WINDOW_SECONDS", "30")
	t.Setenv("NEWISH_CORS_ORIGINS", "https://app.example.com,https://other.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateWindow())
	assert.Equal(t, time.Hour, cfg.CacheTTL(), "production default TTL")
	assert.Equal(t, []string{"https://app.example.com", "https://other.example.com"}, cfg.CORSOrigins)
}

func TestTrustProxyOverride(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy, "forwarded headers must be opt-in")

	t.Setenv("NEWISH_TRUST_PROXY", "true")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)
}

func TestCacheTTLOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NEWISH_CACHE_TTL_SECONDS", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, cfg.CacheTTL())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("NEWISH_JWT_SECRET", "")
	t.Setenv("NEWISH_TMDB_API_KEY", "tmdb-key")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")

	t.Setenv("NEWISH_JWT_SECRET", "too-short")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")

	t.Setenv("NEWISH_JWT_SECRET", validSecret)
	t.Setenv("NEWISH_TMDB_API_KEY", "")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tmdb_api_key")
}

func TestLoadYAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"env: production\nport: \"9000\"\nrate_limit: 7\ncors_origins:\n  - https://yaml.example.com\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 7, cfg.RateLimit)
	assert.Equal(t, []string{"https://yaml.example.com"}, cfg.CORSOrigins)
}

func TestEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8081")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": "9000"}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port, "environment wins over the file")
}

func TestLoadMissingFile(t *testing.T) {
	setRequiredEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
