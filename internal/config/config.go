// Package config loads server and CLI configuration from the environment and an
// optional YAML or JSON file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/career-compass/internal/llm"
	"gopkg.in/yaml.v2"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the runtime configuration.
type Config struct {
	Port int

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	LLM LLMConfig

	// Blob storage: S3 when Bucket is set, otherwise files under StorageDir.
	S3         S3Config
	StorageDir string

	AMQPURL     string
	CORSOrigins []string

	LogLevel  string
	LogFormat string

	RateLimit RateLimitConfig

	FetchUseBrowser bool
	FetchCacheTTL   time.Duration
}

// LLMConfig selects the model provider and per-tier models.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Project     string
	Location    string
	Models      map[string]string
	Temperature *float32
}

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// RateLimitConfig bounds requests per client. Flow endpoints call the model and get
// a tighter limit.
type RateLimitConfig struct {
	RequestsPerMinute     int
	FlowRequestsPerMinute int
	Burst                 int
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: envString("DATABASE_URL", ""),
		SQLitePath:  envString("SQLITE_PATH", filepath.Join("data", "career.db")),
		LLM: LLMConfig{
			Provider: envString("LLM_PROVIDER", string(llm.ProviderGemini)),
			APIKey:   envString("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
			Project:  envString("VERTEX_PROJECT", ""),
			Location: envString("VERTEX_LOCATION", ""),
			Models:   map[string]string{},
		},
		S3: S3Config{
			Bucket:    envString("S3_BUCKET", ""),
			Region:    envString("S3_REGION", ""),
			Endpoint:  envString("S3_ENDPOINT", ""),
			AccessKey: envString("S3_ACCESS_KEY", ""),
			SecretKey: envString("S3_SECRET_KEY", ""),
		},
		StorageDir:  envString("STORAGE_DIR", filepath.Join("data", "uploads")),
		AMQPURL:     envString("AMQP_URL", ""),
		CORSOrigins: envList("CORS_ORIGINS"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogFormat:   envString("LOG_FORMAT", "text"),
	}

	defaultDriver := DriverSQLite
	if cfg.DatabaseURL != "" {
		defaultDriver = DriverPostgres
	}
	cfg.StoreDriver = strings.ToLower(envString("STORE_DRIVER", defaultDriver))

	for _, tier := range []llm.ModelTier{llm.TierLite, llm.TierStandard, llm.TierAdvanced} {
		if model := envString("LLM_MODEL_"+strings.ToUpper(string(tier)), ""); model != "" {
			cfg.LLM.Models[string(tier)] = model
		}
	}

	var err error
	if cfg.Port, err = envInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.S3.PathStyle, err = envBool("S3_PATH_STYLE", false); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RequestsPerMinute, err = envInt("RATE_LIMIT_RPM", 120); err != nil {
		return nil, err
	}
	if cfg.RateLimit.FlowRequestsPerMinute, err = envInt("RATE_LIMIT_FLOW_RPM", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = envInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.FetchUseBrowser, err = envBool("FETCH_USE_BROWSER", false); err != nil {
		return nil, err
	}
	if cfg.FetchCacheTTL, err = envDuration("FETCH_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: DATABASE_URL is required for the postgres store")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config error: SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("config error: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if _, err := llm.ParseProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for name := range c.LLM.Models {
		if _, ok := llm.ParseTier(name); !ok {
			return fmt.Errorf("config error: unknown model tier %q", name)
		}
	}
	rl := c.RateLimit
	if rl.RequestsPerMinute < 0 || rl.FlowRequestsPerMinute < 0 || rl.Burst < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config error: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ModelConfig builds the llm configuration for the selected provider.
func (c *Config) ModelConfig() (*llm.Config, error) {
	provider, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		return nil, err
	}
	var mc *llm.Config
	if provider == llm.ProviderVertex {
		mc = llm.DefaultVertexConfig(c.LLM.Project, c.LLM.Location)
	} else {
		mc = llm.DefaultGeminiConfig()
	}
	if c.LLM.Temperature != nil {
		mc.Temperature = *c.LLM.Temperature
	}
	return mc.WithOverrides(c.LLM.Models)
}

// File is the optional configuration file. Every field is optional and, when
// set, overrides the environment.
type File struct {
	Port        int               `yaml:"port,omitempty"`
	LogLevel    string            `yaml:"log_level,omitempty"`
	LogFormat   string            `yaml:"log_format,omitempty"`
	CORSOrigins []string          `yaml:"cors_origins,omitempty"`
	Models      map[string]string `yaml:"models,omitempty"`
	Temperature *float32          `yaml:"temperature,omitempty"`
	RateLimit   struct {
		RequestsPerMinute     int `yaml:"requests_per_minute,omitempty"`
		FlowRequestsPerMinute int `yaml:"flow_requests_per_minute,omitempty"`
		Burst                 int `yaml:"burst,omitempty"`
	} `yaml:"rate_limit,omitempty"`
}

// LoadFile reads a YAML (or JSON) configuration file.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the set fields of f onto c and revalidates.
func (c *Config) Apply(f *File) error {
	if f.Port != 0 {
		c.Port = f.Port
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}
	if len(f.CORSOrigins) > 0 {
		c.CORSOrigins = f.CORSOrigins
	}
	if c.LLM.Models == nil {
		c.LLM.Models = map[string]string{}
	}
	for tier, model := range f.Models {
		c.LLM.Models[tier] = model
	}
	if f.Temperature != nil {
		c.LLM.Temperature = f.Temperature
	}
	if f.RateLimit.RequestsPerMinute != 0 {
		c.RateLimit.RequestsPerMinute = f.RateLimit.RequestsPerMinute
	}
	if f.RateLimit.FlowRequestsPerMinute != 0 {
		c.RateLimit.FlowRequestsPerMinute = f.RateLimit.FlowRequestsPerMinute
	}
	if f.RateLimit.Burst != 0 {
		c.RateLimit.Burst = f.RateLimit.Burst
	}
	return c.Validate()
}
