// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: RFP_PRICING__TEST_POLICY sets pricing.test_policy.
const EnvPrefix = "RFP_"

// ConfigPathEnv names the YAML file loaded when Load gets no path.
const ConfigPathEnv = "RFP_CONFIG"

// Config is the process configuration.
type Config struct {
	Server      ServerConfig     `koanf:"server"`
	DatabaseURL string           `koanf:"database_url"`
	Redis       RedisConfig      `koanf:"redis"`
	LLM         LLMConfig        `koanf:"llm"`
	Pricing     PricingConfig    `koanf:"pricing"`
	Extraction  ExtractionConfig `koanf:"extraction"`
	Escalation  EscalationConfig `koanf:"escalation"`
	Notify      NotifyConfig     `koanf:"notify"`
	Log         LogConfig        `koanf:"log"`
	CatalogPath string           `koanf:"catalog_path"`
	HistorySeed bool             `koanf:"history_seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port      int     `koanf:"port" validate:"gt=0,lte=65535"`
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"` // requests per second per client
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`
}

// RedisConfig configures the optional Redis stores. An empty Addr disables them.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// LLMConfig configures the optional Gemini entity extractor.
type LLMConfig struct {
	Enabled  bool          `koanf:"enabled"`
	APIKey   string        `koanf:"api_key" validate:"required_if=Enabled true"`
	Timeout  time.Duration `koanf:"timeout"`
	Semantic bool          `koanf:"semantic"` // use embeddings for the similarity bonus
}

// PricingConfig configures the pricing engine.
type PricingConfig struct {
	TestPolicy  string `koanf:"test_policy" validate:"oneof=required_only all"`
	Concurrency int    `koanf:"concurrency" validate:"gte=1,lte=64"`
}

// ExtractionConfig configures requirement extraction.
type ExtractionConfig struct {
	FallbackDeadline string `koanf:"fallback_deadline" validate:"datetime=2006-01-02"`
}

// EscalationConfig holds review thresholds as fractions.
type EscalationConfig struct {
	MatchScore     float64 `koanf:"match_score" validate:"gte=0,lte=1"`
	WinProbability float64 `koanf:"win_probability" validate:"gte=0,lte=1"`
	PriceVariance  float64 `koanf:"price_variance" validate:"gte=0"`
	Reliability    float64 `koanf:"reliability" validate:"gte=0,lte=1"`
}

// NotifyConfig configures review notifications. An empty topic logs instead.
type NotifyConfig struct {
	SNSTopicARN string `koanf:"sns_topic_arn"`
	Region      string `koanf:"region" validate:"required_with=SNSTopicARN"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080, RateLimit: 5, RateBurst: 10},
		LLM:        LLMConfig{Timeout: 20 * time.Second},
		Pricing:    PricingConfig{TestPolicy: "required_only", Concurrency: 4},
		Extraction: ExtractionConfig{FallbackDeadline: "2024-12-15"},
		Escalation: EscalationConfig{MatchScore: 0.85, WinProbability: 0.70, PriceVariance: 0.20, Reliability: 0.90},
		Notify:     NotifyConfig{Region: "us-east-1"},
		Log:        LogConfig{Level: "info", Format: "console"},
	}
}

// Load layers, from low to high precedence: defaults, the YAML file at path
// (or $RFP_CONFIG when path is empty), and RFP_* environment variables.
func Load(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// CLI flags are parsed into c and the loaded file/env Config is passed as
// defaults, so flags win.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.CatalogPath == "" {
		result.CatalogPath = defaults.CatalogPath
	}
	if result.Redis.Addr == "" {
		result.Redis = defaults.Redis
	}
	if result.Notify.SNSTopicARN == "" {
		result.Notify = defaults.Notify
	}

	// Int fields: use default if zero
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.RateLimit == 0 && result.Server.RateBurst == 0 {
		result.Server.RateLimit = defaults.Server.RateLimit
		result.Server.RateBurst = defaults.Server.RateBurst
	}

	// Sections with no flags are taken whole.
	if result.LLM == (LLMConfig{}) {
		result.LLM = defaults.LLM
	}
	if result.Pricing.TestPolicy == "" {
		result.Pricing.TestPolicy = defaults.Pricing.TestPolicy
	}
	if result.Pricing.Concurrency == 0 {
		result.Pricing.Concurrency = defaults.Pricing.Concurrency
	}
	if result.Extraction == (ExtractionConfig{}) {
		result.Extraction = defaults.Extraction
	}
	if result.Escalation == (EscalationConfig{}) {
		result.Escalation = defaults.Escalation
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	// Bools cannot distinguish unset from false, so either side enables.
	result.HistorySeed = result.HistorySeed || defaults.HistorySeed

	return result
}
