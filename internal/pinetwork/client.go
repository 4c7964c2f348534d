// Package pinetwork calls the Pi Network platform API on behalf of the app server.
package pinetwork

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/CodeArche/proofgate/internal/circuitbreaker"
	"github.com/CodeArche/proofgate/internal/config"
	"github.com/CodeArche/proofgate/internal/httputil"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/metrics"
)

const (
	OperationApprove  = "approve"
	OperationComplete = "complete"

	maxResponseBytes = 1 << 20
)

var (
	// ErrNotConfigured means no API key is available to authenticate gateway calls.
	ErrNotConfigured = errors.New("pinetwork: api key not configured")
	// ErrUnavailable means the gateway breaker is open and the call was not attempted.
	ErrUnavailable = errors.New("pinetwork: gateway unavailable")
	// ErrRequestFailed means the gateway could not be reached or did not answer in time.
	ErrRequestFailed = errors.New("pinetwork: gateway request failed")
	// ErrInvalidPaymentID means the id cannot be used as a single path segment.
	ErrInvalidPaymentID = errors.New("pinetwork: invalid payment id")

	// errServerError marks a 5xx answer as a breaker failure; the response is still returned.
	errServerError = errors.New("pinetwork: gateway server error")
)

// Response is the gateway answer passed back to the client untouched.
type Response struct {
	StatusCode int
	// Body is always valid JSON; non-JSON or empty bodies are replaced by {}.
	Body json.RawMessage
}

// OK reports whether the gateway accepted the call.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// ValidPaymentID reports whether id stays one path segment after escaping.
// PathEscape leaves dot segments intact, so "." and ".." would climb out of
// /payments on any server that normalizes paths.
func ValidPaymentID(id string) bool {
	return id != "" && id != "." && id != ".."
}

// Client is a minimal Pi Network payments API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breakers   *circuitbreaker.Manager
	metrics    *metrics.Metrics
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCircuitBreaker guards calls with the gateway breaker.
func WithCircuitBreaker(m *circuitbreaker.Manager) Option {
	return func(c *Client) {
		c.breakers = m
	}
}

// WithMetrics records call counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client from gateway configuration.
func NewClient(cfg config.GatewayConfig, opts ...Option) *Client {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultGatewayBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httputil.NewClient(timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client holds an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Approve asks the gateway to approve a pending payment.
func (c *Client) Approve(ctx context.Context, paymentID string) (*Response, error) {
	return c.call(ctx, OperationApprove, paymentID, nil)
}

// Complete tells the gateway the client-side transaction has been broadcast.
func (c *Client) Complete(ctx context.Context, paymentID, txID string) (*Response, error) {
	body, err := json.Marshal(struct {
		TxID string `json:"txid"`
	}{TxID: txID})
	if err != nil {
		return nil, fmt.Errorf("marshal complete body: %w", err)
	}
	return c.call(ctx, OperationComplete, paymentID, body)
}

// Close releases pooled connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) call(ctx context.Context, operation, paymentID string, body []byte) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !ValidPaymentID(paymentID) {
		return nil, ErrInvalidPaymentID
	}

	start := time.Now()
	result, err := c.breakers.Execute(circuitbreaker.ServiceGateway, func() (interface{}, error) {
		resp, err := c.do(ctx, operation, paymentID, body)
		if err == nil && resp.StatusCode >= 500 {
			return resp, errServerError
		}
		return resp, err
	})
	duration := time.Since(start)

	resp, _ := result.(*Response)
	log := logger.FromContext(ctx)

	switch {
	case circuitbreaker.IsOpen(err):
		c.metrics.ObserveGatewayCall(operation, metrics.OutcomeUnavailable, duration)
		log.Warn().Str("operation", operation).Msg("pinetwork.breaker_open")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, errServerError):
		// Counted against the breaker, but the caller still receives the gateway answer.
		err = nil
	case err != nil:
		c.metrics.ObserveGatewayCall(operation, metrics.OutcomeError, duration)
		log.Error().Err(err).Str("operation", operation).Dur("duration", duration).Msg("pinetwork.call_failed")
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if !resp.OK() {
		outcome = metrics.OutcomeRejected
	}
	c.metrics.ObserveGatewayCall(operation, outcome, duration)
	log.Debug().
		Str("operation", operation).
		Str("payment_id", logger.TruncateID(paymentID)).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("pinetwork.call")

	return resp, nil
}

func (c *Client) do(ctx context.Context, operation, paymentID string, body []byte) (*Response, error) {
	endpoint := fmt.Sprintf("%s/payments/%s/%s", c.baseURL, url.PathEscape(paymentID), operation)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: normalizeBody(raw)}, nil
}

// normalizeBody returns raw when it is valid JSON and {} otherwise.
func normalizeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(trimmed)
}
