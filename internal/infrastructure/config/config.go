package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	History   HistoryConfig
}

// APIConfig holds remote store connection settings
type APIConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	PerPage        int
}

// CatalogConfig holds local catalog file settings
type CatalogConfig struct {
	File       string // catalog CSV path
	ReportFile string // JSON report output path
	ImagesDir  string // base directory for local image references
}

// RateLimitConfig holds the global mutating-call throttle settings
type RateLimitConfig struct {
	MaxCalls  int
	Window    time.Duration
	Algorithm string // sliding_window, token_bucket
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HistoryConfig holds the local run-history store settings
type HistoryConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CATSYNC_ prefix (e.g. CATSYNC_API_CONSUMER_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CATSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The run-history store is on unless explicitly disabled
	v.SetDefault("history.enabled", true)

	cfg := &Config{
		API: APIConfig{
			BaseURL:        v.GetString("api.base_url"),
			ConsumerKey:    v.GetString("api.consumer_key"),
			ConsumerSecret: v.GetString("api.consumer_secret"),
			Timeout:        v.GetDuration("api.timeout"),
			PerPage:        v.GetInt("api.per_page"),
		},
		Catalog: CatalogConfig{
			File:       v.GetString("catalog.file"),
			ReportFile: v.GetString("catalog.report_file"),
			ImagesDir:  v.GetString("catalog.images_dir"),
		},
		RateLimit: RateLimitConfig{
			MaxCalls:  v.GetInt("rate_limit.max_calls"),
			Window:    v.GetDuration("rate_limit.window"),
			Algorithm: v.GetString("rate_limit.algorithm"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Path:    v.GetString("history.path"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 5 * time.Second
	}
	if cfg.API.PerPage == 0 {
		cfg.API.PerPage = 100
	}
	if cfg.Catalog.File == "" {
		cfg.Catalog.File = "products.csv"
	}
	if cfg.Catalog.ReportFile == "" {
		cfg.Catalog.ReportFile = "updated_products.json"
	}
	if cfg.Catalog.ImagesDir == "" {
		cfg.Catalog.ImagesDir = "images"
	}
	if cfg.RateLimit.MaxCalls == 0 {
		cfg.RateLimit.MaxCalls = 5
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 15 * time.Second
	}
	if cfg.RateLimit.Algorithm == "" {
		cfg.RateLimit.Algorithm = "sliding_window"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "catalogsync.db"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url is not a valid URL: %q", c.API.BaseURL)
	}
	if c.RateLimit.MaxCalls <= 0 {
		return fmt.Errorf("rate_limit.max_calls must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	switch c.RateLimit.Algorithm {
	case "sliding_window", "token_bucket":
	default:
		return fmt.Errorf("rate_limit.algorithm must be sliding_window or token_bucket, got %q", c.RateLimit.Algorithm)
	}
	return nil
}
