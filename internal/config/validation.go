package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	minTokenLifetime = 1 * time.Minute
	maxTokenLifetime = 60 * time.Minute
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	c.Server.RoutePrefix = normalizeRoutePrefix(c.Server.RoutePrefix)

	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = DefaultGatewayBaseURL
	}
	c.Gateway.BaseURL = strings.TrimSuffix(c.Gateway.BaseURL, "/")
	if c.Gateway.Timeout.Duration <= 0 {
		c.Gateway.Timeout = Duration{Duration: 10 * time.Second}
	}

	if c.ProofToken.Lifetime.Duration == 0 {
		c.ProofToken.Lifetime = Duration{Duration: DefaultTokenLifetime}
	}

	if c.Mail.BaseURL == "" {
		c.Mail.BaseURL = DefaultMailBaseURL
	}
	c.Mail.BaseURL = strings.TrimSuffix(c.Mail.BaseURL, "/")
	if c.Mail.Brand == "" {
		c.Mail.Brand = "Code Arche"
	}
	if c.Mail.Timeout.Duration <= 0 {
		c.Mail.Timeout = Duration{Duration: 10 * time.Second}
	}

	if c.Server.RequestTimeout.Duration <= 0 {
		c.Server.RequestTimeout = Duration{Duration: 25 * time.Second}
	}

	return c.validate()
}

// validate checks that configuration values are usable. Missing secrets are
// not validation errors: they disable individual operations at request time.
func (c *Config) validate() error {
	var errs []string

	if err := validateBaseURL(c.Gateway.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("gateway.base_url: %v", err))
	}
	if err := validateBaseURL(c.Mail.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("mail.base_url: %v", err))
	}

	lifetime := c.ProofToken.Lifetime.Duration
	if lifetime < minTokenLifetime || lifetime > maxTokenLifetime {
		errs = append(errs, fmt.Sprintf("proof_token.lifetime must be between %s and %s (got %s)", minTokenLifetime, maxTokenLifetime, lifetime))
	}

	if c.Mail.To != "" && !strings.Contains(c.Mail.To, "@") {
		errs = append(errs, "mail.to must be an email address")
	}

	if c.RateLimit.GlobalEnabled && (c.RateLimit.GlobalLimit <= 0 || c.RateLimit.GlobalWindow.Duration <= 0) {
		errs = append(errs, "rate_limit.global_limit and global_window must be positive when global rate limiting is enabled")
	}
	if c.RateLimit.PerIPEnabled && (c.RateLimit.PerIPLimit <= 0 || c.RateLimit.PerIPWindow.Duration <= 0) {
		errs = append(errs, "rate_limit.per_ip_limit and per_ip_window must be positive when per-IP rate limiting is enabled")
	}

	for name, b := range map[string]BreakerServiceConfig{"gateway": c.CircuitBreaker.Gateway, "mail": c.CircuitBreaker.Mail} {
		if b.FailureRatio < 0 || b.FailureRatio > 1 {
			errs = append(errs, fmt.Sprintf("circuit_breaker.%s.failure_ratio must be between 0 and 1", name))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https":
	case "":
		return errors.New("missing scheme")
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
