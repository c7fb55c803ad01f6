package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/career-compass/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "LLM_PROVIDER", "GEMINI_API_KEY",
		"GOOGLE_API_KEY", "VERTEX_PROJECT", "VERTEX_LOCATION", "LLM_MODEL_LITE", "LLM_MODEL_STANDARD",
		"LLM_MODEL_ADVANCED", "S3_BUCKET", "S3_PATH_STYLE", "STORAGE_DIR", "AMQP_URL", "CORS_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "RATE_LIMIT_RPM", "RATE_LIMIT_FLOW_RPM", "RATE_LIMIT_BURST",
		"FETCH_USE_BROWSER", "FETCH_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, filepath.Join("data", "career.db"), cfg.SQLitePath)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Models)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 20, cfg.RateLimit.FlowRequestsPerMinute)
	assert.Equal(t, 24*time.Hour, cfg.FetchCacheTTL)
	assert.Nil(t, cfg.CORSOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/career")
	t.Setenv("GOOGLE_API_KEY", "key-from-google-var")
	t.Setenv("LLM_MODEL_ADVANCED", "gemini-exp")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com ,")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("FETCH_CACHE_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "key-from-google-var", cfg.LLM.APIKey)
	assert.Equal(t, map[string]string{"advanced": "gemini-exp"}, cfg.LLM.Models)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.S3.PathStyle)
	assert.Equal(t, 2*time.Hour, cfg.FetchCacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad port", "PORT", "http", "invalid PORT"},
		{"port range", "PORT", "70000", "port out of range"},
		{"postgres without url", "STORE_DRIVER", "postgres", "DATABASE_URL is required"},
		{"unknown driver", "STORE_DRIVER", "mongo", "unknown STORE_DRIVER"},
		{"unknown provider", "LLM_PROVIDER", "openai", "unknown LLM provider"},
		{"bad bool", "FETCH_USE_BROWSER", "maybe", "invalid FETCH_USE_BROWSER"},
		{"bad duration", "FETCH_CACHE_TTL", "soon", "invalid FETCH_CACHE_TTL"},
		{"negative limit", "RATE_LIMIT_RPM", "-1", "non-negative"},
		{"log format", "LOG_FORMAT", "xml", "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestModelConfig(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "vertex", Project: "proj", Models: map[string]string{"lite": "custom-lite"}}}

	mc, err := cfg.ModelConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderVertex, mc.Provider)
	assert.Equal(t, "us-central1", mc.Location)
	assert.Equal(t, "custom-lite", mc.GetModel(llm.TierLite))
	assert.Equal(t, "gemini-2.5-pro", mc.GetModel(llm.TierAdvanced))
	assert.Equal(t, llm.DefaultTemperature, mc.Temperature)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "career.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7070
log_format: json
models:
  standard: gemini-2.0-flash
temperature: 0.5
rate_limit:
  flow_requests_per_minute: 5
`), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)

	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Apply(f))

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5, cfg.RateLimit.FlowRequestsPerMinute)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)

	mc, err := cfg.ModelConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", mc.GetModel(llm.TierStandard))
	assert.InDelta(t, 0.5, mc.Temperature, 1e-6)
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "career.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"models": {"lite": "tiny"}, "cors_origins": ["https://a.example"]}`), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", f.Models["lite"])
	assert.Equal(t, []string{"https://a.example"}, f.CORSOrigins)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadFile("/nonexistent/career.yaml")
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknown_key: 1\n"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApply_RejectsUnknownTier(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Apply(&File{Models: map[string]string{"huge": "x"}})
	assert.ErrorContains(t, err, "unknown model tier")
}
