// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr                string        `mapstructure:"HTTP_ADDR"`
	GithubToken             string        `mapstructure:"GITHUB_TOKEN"`
	GithubAPIURL            string        `mapstructure:"GITHUB_API_URL"`
	GeminiAPIKey            string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel             string        `mapstructure:"GEMINI_MODEL"`
	GeminiAPIURL            string        `mapstructure:"GEMINI_API_URL"`
	DashboardTimeout        time.Duration `mapstructure:"DASHBOARD_TIMEOUT"`
	RequestTimeout          time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CommitDetailConcurrency int           `mapstructure:"COMMIT_DETAIL_CONCURRENCY"`
	ContributorLimit        int           `mapstructure:"CONTRIBUTOR_LIMIT"`
	CommitLimit             int           `mapstructure:"COMMIT_LIMIT"`
	PullLimit               int           `mapstructure:"PULL_LIMIT"`
}

// AssistantEnabled reports whether a Gemini key is configured.
func (c *Config) AssistantEnabled() bool {
	return c.GeminiAPIKey != ""
}

// LoadConfig reads configuration from an optional .env file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_API_URL", "")
	v.SetDefault("DASHBOARD_TIMEOUT", "60s")
	v.SetDefault("REQUEST_TIMEOUT", "90s")
	v.SetDefault("COMMIT_DETAIL_CONCURRENCY", 8)
	v.SetDefault("CONTRIBUTOR_LIMIT", 100)
	v.SetDefault("COMMIT_LIMIT", 250)
	v.SetDefault("PULL_LIMIT", 100)

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown log levels and non-positive limits or timeouts.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is a required configuration field")
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{"DASHBOARD_TIMEOUT", c.DashboardTimeout},
		{"REQUEST_TIMEOUT", c.RequestTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be a positive duration", d.key)
		}
	}

	limits := []struct {
		key   string
		value int
	}{
		{"COMMIT_DETAIL_CONCURRENCY", c.CommitDetailConcurrency},
		{"CONTRIBUTOR_LIMIT", c.ContributorLimit},
		{"COMMIT_LIMIT", c.CommitLimit},
		{"PULL_LIMIT", c.PullLimit},
	}
	for _, l := range limits {
		if l.value <= 0 {
			return fmt.Errorf("%s must be a positive integer", l.key)
		}
	}
	return nil
}
