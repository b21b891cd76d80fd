// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. JOB_AGENT_LLM_PROVIDER.
const EnvPrefix = "JOB_AGENT"

// Config is the full service configuration. Values come from defaults, an
// optional YAML/JSON file and environment overrides, in that order.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	JobSource JobSourceConfig `mapstructure:"job_source"`
	Log       LogConfig       `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LLMConfig configures the model provider and the invocation policy.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=gemini anthropic"`
	APIKey        string        `mapstructure:"api_key"`
	LiteModel     string        `mapstructure:"lite_model"`
	StandardModel string        `mapstructure:"standard_model"`
	AdvancedModel string        `mapstructure:"advanced_model"`
	MaxConcurrent int64         `mapstructure:"max_concurrent" validate:"min=1"`
	CallTimeout   time.Duration `mapstructure:"call_timeout" validate:"min=1s"`
	MaxAttempts   int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	SchemaRetries int           `mapstructure:"schema_retries" validate:"min=0,max=5"`
}

// PipelineConfig tunes stage behavior.
type PipelineConfig struct {
	MaxFeedbackItems int `mapstructure:"max_feedback_items" validate:"min=1,max=20"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
}

// DatabaseConfig configures the Postgres profile store. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// SessionConfig configures the session cache. An empty RedisURL selects the
// bounded in-memory cache.
type SessionConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	TTL        time.Duration `mapstructure:"ttl" validate:"min=1m"`
	MaxEntries int           `mapstructure:"max_entries" validate:"min=1"`
}

// JobSourceConfig configures job posting retrieval.
type JobSourceConfig struct {
	UseBrowser bool          `mapstructure:"use_browser"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig configures per-client token buckets. Endpoint-specific
// limits are built in; these settings cover every other route.
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DefaultLimit  int           `mapstructure:"default_limit" validate:"min=0"`
	DefaultWindow time.Duration `mapstructure:"default_window"`
	Allowlist     []string      `mapstructure:"allowlist"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLM: LLMConfig{
			Provider:      "gemini",
			MaxConcurrent: 4,
			CallTimeout:   60 * time.Second,
			MaxAttempts:   3,
			BaseDelay:     time.Second,
			MaxDelay:      30 * time.Second,
			SchemaRetries: 2,
		},
		Pipeline: PipelineConfig{MaxFeedbackItems: 6},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigin:   "*",
		},
		Session: SessionConfig{
			TTL:        24 * time.Hour,
			MaxEntries: 1000,
		},
		JobSource: JobSourceConfig{Timeout: 30 * time.Second},
		Log:       LogConfig{Level: "info", Format: "console"},
		JWT:       JWTConfig{ExpirationHours: 24},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
		},
	}
}

// Load reads configuration. path may be empty, in which case config.yaml or
// config.json is searched for in the working directory and ./configs.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyWellKnownEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LLM.MaxDelay > 0 && c.LLM.BaseDelay > c.LLM.MaxDelay {
		return fmt.Errorf("config error: 'llm.base_delay' must not exceed 'llm.max_delay'")
	}
	if err := c.JWT.normalize(); err != nil && c.JWT.Secret != "" {
		return err
	}
	return nil
}

// MergeWithDefaults returns a copy with zero-valued fields filled from defaults.
// CLI flags are applied on top of the result.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.APIKey == "" {
		result.LLM.APIKey = defaults.LLM.APIKey
	}
	if result.LLM.MaxConcurrent == 0 {
		result.LLM.MaxConcurrent = defaults.LLM.MaxConcurrent
	}
	if result.LLM.CallTimeout == 0 {
		result.LLM.CallTimeout = defaults.LLM.CallTimeout
	}
	if result.LLM.MaxAttempts == 0 {
		result.LLM.MaxAttempts = defaults.LLM.MaxAttempts
	}
	if result.LLM.BaseDelay == 0 {
		result.LLM.BaseDelay = defaults.LLM.BaseDelay
	}
	if result.LLM.MaxDelay == 0 {
		result.LLM.MaxDelay = defaults.LLM.MaxDelay
	}
	if result.Pipeline.MaxFeedbackItems == 0 {
		result.Pipeline.MaxFeedbackItems = defaults.Pipeline.MaxFeedbackItems
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Database.URL == "" {
		result.Database.URL = defaults.Database.URL
	}
	if result.Session.TTL == 0 {
		result.Session.TTL = defaults.Session.TTL
	}
	if result.Session.MaxEntries == 0 {
		result.Session.MaxEntries = defaults.Session.MaxEntries
	}
	if result.RateLimit.DefaultLimit == 0 {
		result.RateLimit.DefaultLimit = defaults.RateLimit.DefaultLimit
	}
	if result.RateLimit.DefaultWindow == 0 {
		result.RateLimit.DefaultWindow = defaults.RateLimit.DefaultWindow
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	// Bool fields cannot distinguish unset from false; flags always win for those.

	return result
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.lite_model", "")
	v.SetDefault("llm.standard_model", "")
	v.SetDefault("llm.advanced_model", "")
	v.SetDefault("llm.max_concurrent", d.LLM.MaxConcurrent)
	v.SetDefault("llm.call_timeout", d.LLM.CallTimeout)
	v.SetDefault("llm.max_attempts", d.LLM.MaxAttempts)
	v.SetDefault("llm.base_delay", d.LLM.BaseDelay)
	v.SetDefault("llm.max_delay", d.LLM.MaxDelay)
	v.SetDefault("llm.schema_retries", d.LLM.SchemaRetries)
	v.SetDefault("pipeline.max_feedback_items", d.Pipeline.MaxFeedbackItems)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.allowed_origin", d.Server.AllowedOrigin)
	v.SetDefault("database.url", "")
	v.SetDefault("session.redis_url", "")
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.max_entries", d.Session.MaxEntries)
	v.SetDefault("job_source.use_browser", false)
	v.SetDefault("job_source.timeout", d.JobSource.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", d.JWT.ExpirationHours)
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.default_limit", d.RateLimit.DefaultLimit)
	v.SetDefault("rate_limit.default_window", d.RateLimit.DefaultWindow)
	v.SetDefault("rate_limit.allowlist", []string{})
}

// applyWellKnownEnv fills empty fields from the conventional unprefixed
// variables (GEMINI_API_KEY, DATABASE_URL, ...).
func applyWellKnownEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Session.RedisURL == "" {
		cfg.Session.RedisURL = os.Getenv("REDIS_URL")
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	}
}

// loadEnvFile loads the first .env found walking up to the module root.
// A missing file is not an error.
func loadEnvFile() {
	candidates := []string{".env", filepath.Join("..", ".env"), filepath.Join("..", "..", ".env")}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
