package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Gateway        GatewayConfig        `yaml:"gateway"`
	ProofToken     ProofTokenConfig     `yaml:"proof_token"`
	Mail           MailConfig           `yaml:"mail"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	RequestTimeout     Duration `yaml:"request_timeout"` // Upper bound for a single approve/complete/contact request
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RoutePrefix        string   `yaml:"route_prefix"`          // Prefix for the payment endpoints (default "/api")
	AdminMetricsAPIKey string   `yaml:"admin_metrics_api_key"` // Optional API key to protect /metrics endpoint
}

// GatewayConfig holds the Pi Network payment gateway settings.
type GatewayConfig struct {
	BaseURL string   `yaml:"base_url"` // default https://api.minepi.com/v2
	APIKey  string   `yaml:"api_key"`  // App Server API Key, sent as "Authorization: Key <key>"
	Timeout Duration `yaml:"timeout"`
}

// Configured reports whether gateway calls can be authenticated.
func (g GatewayConfig) Configured() bool {
	return g.APIKey != ""
}

// ProofTokenConfig holds the payment proof token signing settings.
type ProofTokenConfig struct {
	Secret   string   `yaml:"secret"`
	Lifetime Duration `yaml:"lifetime"` // default 10m
}

// Configured reports whether tokens can be issued and verified.
func (p ProofTokenConfig) Configured() bool {
	return p.Secret != ""
}

// MailConfig holds the transactional mail provider settings (Resend-compatible API).
type MailConfig struct {
	BaseURL string   `yaml:"base_url"` // default https://api.resend.com
	APIKey  string   `yaml:"api_key"`
	From    string   `yaml:"from"`
	To      string   `yaml:"to"`
	Brand   string   `yaml:"brand"` // Subject prefix inside the square brackets
	Timeout Duration `yaml:"timeout"`
}

// Configured reports whether an application email can be dispatched.
func (m MailConfig) Configured() bool {
	return len(m.MissingSettings()) == 0
}

// MissingSettings names the unset mail settings by environment variable.
func (m MailConfig) MissingSettings() []string {
	var missing []string
	if m.APIKey == "" {
		missing = append(missing, "RESEND_API_KEY")
	}
	if m.From == "" {
		missing = append(missing, "MAIL_FROM")
	}
	if m.To == "" {
		missing = append(missing, "MAIL_TO")
	}
	return missing
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error (default: info)
	Format      string `yaml:"format"`      // json, console (default: json)
	Environment string `yaml:"environment"` // production, staging, development
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	GlobalEnabled bool     `yaml:"global_enabled"`
	GlobalLimit   int      `yaml:"global_limit"`
	GlobalWindow  Duration `yaml:"global_window"`

	PerIPEnabled bool     `yaml:"per_ip_enabled"`
	PerIPLimit   int      `yaml:"per_ip_limit"`
	PerIPWindow  Duration `yaml:"per_ip_window"`
}

// CircuitBreakerConfig holds circuit breaker configuration for external services.
type CircuitBreakerConfig struct {
	Enabled bool                 `yaml:"enabled"`
	Gateway BreakerServiceConfig `yaml:"gateway"`
	Mail    BreakerServiceConfig `yaml:"mail"`
}

// BreakerServiceConfig configures a circuit breaker for a specific external service.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`         // Max requests in half-open state (default: 3)
	Interval            Duration `yaml:"interval"`             // Stats reset interval in closed state (default: 60s)
	Timeout             Duration `yaml:"timeout"`              // Open state timeout before half-open (default: 30s)
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"` // Consecutive failures to trip (default: 5)
	FailureRatio        float64  `yaml:"failure_ratio"`        // Failure ratio to trip 0.0-1.0 (default: 0.5)
	MinRequests         uint32   `yaml:"min_requests"`         // Minimum requests before checking ratio (default: 10)
}
