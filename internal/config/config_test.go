package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SYNC_CONFIG_FILE", "DUOLINGO_USERNAME", "DUOLINGO_JWT", "DUOLINGO_PASSWORD",
	"DUOLINGO_BASE_URL", "FETCH_DAYS", "HTTP_TIMEOUT", "DUOLINGO_TIMEZONE",
	"DATA_DIR", "PROGRESS_DOCUMENT", "STATISTICS_DOCUMENT", "STORE_BACKEND",
	"STORE_KEY_PREFIX", "STORE_CACHE_TTL", "REDIS_HOST", "REDIS_PORT",
	"REDIS_PASSWORD", "REDIS_DB", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT",
	"DB_NAME", "DB_TABLE", "PORT", "RATE_LIMIT", "SYNC_API_TOKEN_HASH", "SYNC_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	// godotenv only fills variables that are unset, so they must be removed
	// rather than emptied.
	for _, k := range envKeys {
		prev, ok := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if ok {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func noEnvFile(t *testing.T) Options {
	return Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultProgressKey, cfg.ProgressKey)
	assert.Equal(t, DefaultStatisticsKey, cfg.StatisticsKey)
	assert.Equal(t, DefaultFetchDays, cfg.FetchDays)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Nil(t, cfg.Credential)

	assert.ErrorIs(t, cfg.RequireAccount(), ErrMissingUsername)
}

func TestLoad_Credential(t *testing.T) {
	t.Run("Bearer token takes precedence", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DUOLINGO_USERNAME", "learner")
		t.Setenv("DUOLINGO_JWT", "jwt-token")
		t.Setenv("DUOLINGO_PASSWORD", "hunter2")

		cfg, err := Load(noEnvFile(t))
		require.NoError(t, err)

		assert.Equal(t, Bearer{Token: "jwt-token"}, cfg.Credential)
		assert.NoError(t, cfg.RequireAccount())
	})

	t.Run("Password fallback", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DUOLINGO_USERNAME", "learner")
		t.Setenv("DUOLINGO_PASSWORD", "hunter2")

		cfg, err := Load(noEnvFile(t))
		require.NoError(t, err)

		assert.Equal(t, Password{Secret: "hunter2"}, cfg.Credential)
	})

	t.Run("Missing credential", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DUOLINGO_USERNAME", "learner")

		cfg, err := Load(noEnvFile(t))
		require.NoError(t, err)

		assert.ErrorIs(t, cfg.RequireAccount(), ErrMissingCredential)
	})
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
username: from-yaml
fetch_days: 30
timezone: Asia/Tokyo
data:
  dir: /var/lib/duosync
store:
  backend: redis
  cache_ttl: 5m
  redis:
    host: redis.internal
server:
  port: "9090"
  sync_interval: 1h
`), 0600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DUOLINGO_USERNAME=from-dotenv\nREDIS_PORT=6380\n"), 0600))

	t.Setenv("REDIS_PORT", "7000")

	cfg, err := Load(Options{ConfigFile: yamlPath, EnvFile: envPath})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Username, ".env overrides YAML")
	assert.Equal(t, "7000", cfg.Store.Redis.Port, "Process env overrides .env")
	assert.Equal(t, "redis.internal", cfg.Store.Redis.Host)
	assert.Equal(t, 30, cfg.FetchDays)
	assert.Equal(t, "Asia/Tokyo", cfg.Location.String())
	assert.Equal(t, "/var/lib/duosync", cfg.DataDir)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Store.CacheTTL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Server.SyncInterval)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STORE_BACKEND", "sqlite"},
		{"FETCH_DAYS", "many"},
		{"HTTP_TIMEOUT", "soon"},
		{"DUOLINGO_TIMEZONE", "Mars/Olympus_Mons"},
		{"REDIS_DB", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	p := PostgresConfig{User: "u", Password: "p", Host: "h", Port: "5432", Name: "db"}
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", p.DSN())
}
