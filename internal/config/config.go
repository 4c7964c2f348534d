package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGatewayBaseURL = "https://api.minepi.com/v2"
	DefaultMailBaseURL    = "https://api.resend.com"
	DefaultTokenLifetime  = 10 * time.Minute
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			ReadTimeout:    Duration{Duration: 15 * time.Second},
			WriteTimeout:   Duration{Duration: 30 * time.Second},
			IdleTimeout:    Duration{Duration: 60 * time.Second},
			RequestTimeout: Duration{Duration: 25 * time.Second},
			RoutePrefix:    "/api",
		},
		Gateway: GatewayConfig{
			BaseURL: DefaultGatewayBaseURL,
			Timeout: Duration{Duration: 10 * time.Second},
		},
		ProofToken: ProofTokenConfig{
			Lifetime: Duration{Duration: DefaultTokenLifetime},
		},
		Mail: MailConfig{
			BaseURL: DefaultMailBaseURL,
			Brand:   "Code Arche",
			Timeout: Duration{Duration: 10 * time.Second},
		},
		RateLimit: RateLimitConfig{
			GlobalEnabled: true,
			GlobalLimit:   600,
			GlobalWindow:  Duration{Duration: 1 * time.Minute},
			PerIPEnabled:  true,
			PerIPLimit:    30,
			PerIPWindow:   Duration{Duration: 1 * time.Minute},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled: true,
			Gateway: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 30 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
			Mail: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 60 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// MissingSecrets lists the secrets that are not configured. Each one disables
// the operations that need it; the process itself still starts.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Gateway.APIKey == "" {
		missing = append(missing, "PI_API_KEY")
	}
	if c.ProofToken.Secret == "" {
		missing = append(missing, "PROOF_TOKEN_SECRET")
	}
	return append(missing, c.Mail.MissingSettings()...)
}
