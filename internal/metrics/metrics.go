package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by gateway and mail metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"    // upstream answered with a non-2xx status
	OutcomeError       = "error"       // transport failure or timeout
	OutcomeUnavailable = "unavailable" // circuit breaker open
)

// Metrics holds all Prometheus metrics for proofgate.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Gateway metrics
	GatewayCallsTotal   *prometheus.CounterVec
	GatewayCallDuration *prometheus.HistogramVec

	// Proof token metrics
	TokensIssuedTotal       prometheus.Counter
	TokenVerificationsTotal *prometheus.CounterVec

	// Mail metrics
	MailDispatchTotal    *prometheus.CounterVec
	MailDispatchDuration prometheus.Histogram

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		GatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofgate_gateway_calls_total",
				Help: "Total number of Pi payment gateway calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		GatewayCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "proofgate_gateway_call_duration_seconds",
				Help:    "Duration of Pi payment gateway calls (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),

		TokensIssuedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "proofgate_proof_tokens_issued_total",
				Help: "Total number of payment proof tokens issued",
			},
		),
		TokenVerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofgate_proof_token_verifications_total",
				Help: "Total number of payment proof token verifications by result",
			},
			[]string{"result"},
		),

		MailDispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofgate_mail_dispatch_total",
				Help: "Total number of guardian application emails dispatched by outcome",
			},
			[]string{"outcome"},
		),
		MailDispatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "proofgate_mail_dispatch_duration_seconds",
				Help:    "Time taken by the mail provider to accept a message",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "proofgate_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type"},
		),
	}
}

// ObserveGatewayCall records a gateway call and its outcome.
func (m *Metrics) ObserveGatewayCall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
	m.GatewayCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveTokenIssued records a minted proof token.
func (m *Metrics) ObserveTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssuedTotal.Inc()
}

// ObserveTokenVerification records a verification result ("valid" or "invalid").
func (m *Metrics) ObserveTokenVerification(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.TokenVerificationsTotal.WithLabelValues(result).Inc()
}

// ObserveMailDispatch records a mail provider call.
func (m *Metrics) ObserveMailDispatch(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.MailDispatchTotal.WithLabelValues(outcome).Inc()
	m.MailDispatchDuration.Observe(duration.Seconds())
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType string) {
	if m == nil {
		return
	}
	m.RateLimitHitsTotal.WithLabelValues(limitType).Inc()
}

// Unregister removes every collector from reg, so a later New on the same
// registry does not fail with duplicate registrations.
func (m *Metrics) Unregister(reg prometheus.Registerer) {
	if m == nil || reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{
		m.GatewayCallsTotal,
		m.GatewayCallDuration,
		m.TokensIssuedTotal,
		m.TokenVerificationsTotal,
		m.MailDispatchTotal,
		m.MailDispatchDuration,
		m.RateLimitHitsTotal,
	} {
		reg.Unregister(c)
	}
}
