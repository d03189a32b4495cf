package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.True(t, cfg.Search.DropStopwords)
	assert.False(t, cfg.Search.Stemming)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, "search_results.json", cfg.History.FilePath)
	assert.Equal(t, "training", cfg.Corpus.TrainingPrefix)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 8088
search:
  defaultLimit: 10
  maxResults: 50
  fitTimeout: 2m
corpus:
  root: /data/reuters
redis:
  enabled: true
  cacheTTL: 30s
`)
	t.Setenv("SP_SERVER_PORT", "9000")
	t.Setenv("SP_SEARCH_STEMMING", "true")
	t.Setenv("SP_CORS_ALLOW_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 2*time.Minute, cfg.Search.FitTimeout)
	assert.Equal(t, "/data/reuters", cfg.Corpus.Root)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.True(t, cfg.Search.Stemming)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowOrigins)
	assert.True(t, cfg.Search.DropStopwords, "unset yaml keys keep their defaults")
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "SP_CORPUS_ROOT=/from/dotenv\nSP_LOGGING_LEVEL=debug\n")
	t.Setenv("SP_LOGGING_LEVEL", "warn")
	// godotenv does not override variables already present; register the
	// key so t.Setenv restores it after the test.
	t.Setenv("SP_CORPUS_ROOT", "")
	os.Unsetenv("SP_CORPUS_ROOT")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Corpus.Root)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "server: [not, a, map]"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default limit", func(c *Config) { c.Search.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Search.MaxResults = 2 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"no corpus", func(c *Config) { c.Corpus.Root = "" }},
		{"unknown sink", func(c *Config) { c.History.Sink = "s3" }},
		{"postgres sink without postgres", func(c *Config) { c.History.Sink = "postgres" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, defaultConfig().Validate())
}

func TestPostgresDSN(t *testing.T) {
	dsn := defaultConfig().Postgres.DSN()
	assert.Contains(t, dsn, "dbname=reuters")
	assert.Contains(t, dsn, "sslmode=disable")
}
