package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/CodeArche/proofgate/internal/config"
	apierrors "github.com/CodeArche/proofgate/internal/errors"
	"github.com/CodeArche/proofgate/internal/metrics"
	"github.com/go-chi/httprate"
)

// Config holds rate limiting configuration.
type Config struct {
	// Global rate limiting (across all callers)
	GlobalEnabled bool
	GlobalLimit   int           // requests per window
	GlobalWindow  time.Duration // time window

	// Per-IP rate limiting. Payment and contact requests are anonymous, so
	// the client address is the only stable key.
	PerIPEnabled bool
	PerIPLimit   int
	PerIPWindow  time.Duration

	// Metrics collector (optional)
	Metrics *metrics.Metrics
}

// DefaultConfig returns default rate limits sized for a single-page frontend.
func DefaultConfig() Config {
	return Config{
		GlobalEnabled: true,
		GlobalLimit:   600,
		GlobalWindow:  1 * time.Minute,

		PerIPEnabled: true,
		PerIPLimit:   30,
		PerIPWindow:  1 * time.Minute,
	}
}

// FromConfig converts application config into limiter settings. Unset limits
// and windows take the DefaultConfig values.
func FromConfig(cfg config.RateLimitConfig, m *metrics.Metrics) Config {
	out := DefaultConfig()
	out.GlobalEnabled = cfg.GlobalEnabled
	out.PerIPEnabled = cfg.PerIPEnabled
	out.Metrics = m

	if cfg.GlobalLimit > 0 {
		out.GlobalLimit = cfg.GlobalLimit
	}
	if cfg.GlobalWindow.Duration > 0 {
		out.GlobalWindow = cfg.GlobalWindow.Duration
	}
	if cfg.PerIPLimit > 0 {
		out.PerIPLimit = cfg.PerIPLimit
	}
	if cfg.PerIPWindow.Duration > 0 {
		out.PerIPWindow = cfg.PerIPWindow.Duration
	}
	return out
}

// createRateLimitHandler creates the response written when a limiter rejects a request.
func createRateLimitHandler(limitType string, window time.Duration, metricsCollector *metrics.Metrics) func(http.ResponseWriter, *http.Request) {
	windowSeconds := int(window.Seconds())

	var message string
	switch limitType {
	case "global":
		message = "Global rate limit exceeded. Please try again later."
	case "per_ip":
		message = "IP rate limit exceeded. Please try again later."
	default:
		message = "Rate limit exceeded. Please try again later."
	}

	return func(w http.ResponseWriter, r *http.Request) {
		metricsCollector.ObserveRateLimit(limitType)

		w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSeconds))
		apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeRateLimited, message, "retry_after_seconds", windowSeconds)
	}
}

func passThrough(next http.Handler) http.Handler {
	return next
}

// GlobalLimiter creates a global rate limiter middleware.
func GlobalLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.GlobalEnabled {
		return passThrough
	}

	return httprate.Limit(
		cfg.GlobalLimit,
		cfg.GlobalWindow,
		httprate.WithLimitHandler(createRateLimitHandler("global", cfg.GlobalWindow, cfg.Metrics)),
	)
}

// IPLimiter creates a per-IP rate limiter middleware.
func IPLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerIPEnabled {
		return passThrough
	}

	return httprate.Limit(
		cfg.PerIPLimit,
		cfg.PerIPWindow,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(createRateLimitHandler("per_ip", cfg.PerIPWindow, cfg.Metrics)),
	)
}
