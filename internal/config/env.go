package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// Secrets keep the names used by the deployed frontend project; everything
// else uses the PROOFGATE_ prefix.
func (c *Config) applyEnvOverrides() {
	// Secrets
	setIfEnv(&c.Gateway.APIKey, "PI_API_KEY")
	setIfEnv(&c.ProofToken.Secret, "PROOF_TOKEN_SECRET")
	setIfEnv(&c.Mail.APIKey, "RESEND_API_KEY")
	setIfEnv(&c.Mail.From, "MAIL_FROM")
	setIfEnv(&c.Mail.To, "MAIL_TO")

	// Server config
	setIfEnv(&c.Server.Address, "PROOFGATE_SERVER_ADDRESS")
	setIfEnv(&c.Server.RoutePrefix, "PROOFGATE_ROUTE_PREFIX")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "PROOFGATE_ADMIN_METRICS_API_KEY")
	setDurationIfEnv(&c.Server.RequestTimeout, "PROOFGATE_REQUEST_TIMEOUT")
	if v := os.Getenv("PROOFGATE_CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSAllowedOrigins = splitList(v)
	}

	// Logging config
	setIfEnv(&c.Logging.Level, "PROOFGATE_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "PROOFGATE_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "PROOFGATE_ENVIRONMENT")

	// Gateway config
	setIfEnv(&c.Gateway.BaseURL, "PROOFGATE_GATEWAY_BASE_URL")
	setDurationIfEnv(&c.Gateway.Timeout, "PROOFGATE_GATEWAY_TIMEOUT")

	// Proof token config
	setDurationIfEnv(&c.ProofToken.Lifetime, "PROOFGATE_PROOF_TOKEN_LIFETIME")

	// Mail config
	setIfEnv(&c.Mail.BaseURL, "PROOFGATE_MAIL_BASE_URL")
	setIfEnv(&c.Mail.Brand, "PROOFGATE_MAIL_BRAND")
	setDurationIfEnv(&c.Mail.Timeout, "PROOFGATE_MAIL_TIMEOUT")

	// Rate limit config
	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "PROOFGATE_RATE_LIMIT_GLOBAL_ENABLED")
	setIntIfEnv(&c.RateLimit.GlobalLimit, "PROOFGATE_RATE_LIMIT_GLOBAL_LIMIT")
	setBoolIfEnv(&c.RateLimit.PerIPEnabled, "PROOFGATE_RATE_LIMIT_PER_IP_ENABLED")
	setIntIfEnv(&c.RateLimit.PerIPLimit, "PROOFGATE_RATE_LIMIT_PER_IP_LIMIT")

	// Circuit breaker config
	setBoolIfEnv(&c.CircuitBreaker.Enabled, "PROOFGATE_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable, ignoring unparseable values.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeRoutePrefix ensures the prefix starts with / and doesn't end with /.
// Examples: "api" -> "/api", "/api/" -> "/api", "/" -> ""
func normalizeRoutePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}
