// Package config provides configuration loading for taskflow.
//
// Configuration is assembled from hardcoded defaults, an optional YAML file and
// TASKFLOW_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete taskflow client configuration.
type Config struct {
	API       APIConfig       `koanf:"api"`
	Session   SessionConfig   `koanf:"session"`
	Query     QueryConfig     `koanf:"query"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// APIConfig holds remote workspace API settings.
type APIConfig struct {
	BaseURL string   `koanf:"base_url"`
	Timeout Duration `koanf:"timeout"`

	// RateLimit is the sustained outbound request rate per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`

	// SummaryParallelism bounds concurrent progress lookups during a refresh.
	SummaryParallelism int `koanf:"summary_parallelism"`
}

// SessionConfig holds credential persistence settings.
type SessionConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// QueryConfig holds client-side listing defaults.
type QueryConfig struct {
	PageSize int `koanf:"page_size"`
}

// LoggingConfig holds the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled       bool    `koanf:"enabled"`
	Endpoint      string  `koanf:"endpoint"`
	Protocol      string  `koanf:"protocol"`
	Insecure      bool    `koanf:"insecure"`
	TLSSkipVerify bool    `koanf:"tls_skip_verify"`
	SampleRate    float64 `koanf:"sample_rate"`
}

// Default values.
const (
	DefaultBaseURL            = "http://localhost:8082/api"
	DefaultTimeout            = 15 * time.Second
	DefaultRateLimit          = 20.0
	DefaultBurst              = 10
	DefaultSummaryParallelism = 4
	DefaultPageSize           = 8
	DefaultLogLevel           = "warn"
	DefaultLogFormat          = "console"
	DefaultTelemetryEndpoint  = "localhost:4318"
	DefaultTelemetryProtocol  = "http/protobuf"
)

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}

	if c.API.Timeout.Duration() <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative, got %v", c.API.RateLimit)
	}
	if c.API.RateLimit > 0 && c.API.Burst < 1 {
		return fmt.Errorf("api.burst must be >= 1 when rate limiting is enabled, got %d", c.API.Burst)
	}
	if c.API.SummaryParallelism < 1 {
		return fmt.Errorf("api.summary_parallelism must be >= 1, got %d", c.API.SummaryParallelism)
	}

	if c.Query.PageSize < 1 {
		return fmt.Errorf("query.page_size must be >= 1, got %d", c.Query.PageSize)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate)
		}
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = Duration(DefaultTimeout)
	}
	if cfg.API.RateLimit == 0 {
		cfg.API.RateLimit = DefaultRateLimit
	}
	if cfg.API.Burst == 0 {
		cfg.API.Burst = DefaultBurst
	}
	if cfg.API.SummaryParallelism == 0 {
		cfg.API.SummaryParallelism = DefaultSummaryParallelism
	}

	if cfg.Session.Path == "" {
		cfg.Session.Path = DefaultSessionPath()
	}

	if cfg.Query.PageSize == 0 {
		cfg.Query.PageSize = DefaultPageSize
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = DefaultTelemetryEndpoint
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = DefaultTelemetryProtocol
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}
}
