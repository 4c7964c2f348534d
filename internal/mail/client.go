// Package mail dispatches transactional email through a Resend-compatible API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CodeArche/proofgate/internal/circuitbreaker"
	"github.com/CodeArche/proofgate/internal/config"
	"github.com/CodeArche/proofgate/internal/httputil"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/metrics"
)

var (
	// ErrNotConfigured means the API key, sender or recipient is missing.
	ErrNotConfigured = errors.New("mail: provider not configured")
	// ErrSendFailed wraps every provider rejection and transport failure.
	ErrSendFailed = errors.New("mail: send failed")
	// ErrUnavailable means the mail breaker is open and nothing was sent.
	ErrUnavailable = errors.New("mail: provider unavailable")
)

// Message is a rendered email ready for dispatch. Sender and recipient come
// from configuration.
type Message struct {
	Subject string
	HTML    string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Client sends messages to the configured recipient.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	to         string
	missing    []string
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

// WithCircuitBreaker guards sends with the mail breaker.
func WithCircuitBreaker(m *circuitbreaker.Manager) Option {
	return func(c *Client) {
		c.breakers = m
	}
}

// WithMetrics records dispatch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client from mail configuration.
func NewClient(cfg config.MailConfig, opts ...Option) *Client {
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultMailBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		to:         cfg.To,
		missing:    cfg.MissingSettings(),
		httpClient: httputil.NewClient(timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a message can be sent.
func (c *Client) Configured() bool {
	return len(c.missing) == 0
}

// MissingSettings names the settings that keep the client from sending.
func (c *Client) MissingSettings() []string {
	return append([]string(nil), c.missing...)
}

// Send delivers msg and waits for the provider to accept it.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{c.to},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	start := time.Now()
	result, err := c.breakers.Execute(circuitbreaker.ServiceMail, func() (interface{}, error) {
		return c.post(ctx, payload)
	})
	duration := time.Since(start)
	log := logger.FromContext(ctx)

	switch {
	case circuitbreaker.IsOpen(err):
		c.metrics.ObserveMailDispatch(metrics.OutcomeUnavailable, duration)
		log.Warn().Msg("mail.breaker_open")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		outcome := metrics.OutcomeError
		var rejected *rejectionError
		if errors.As(err, &rejected) {
			outcome = metrics.OutcomeRejected
		}
		c.metrics.ObserveMailDispatch(outcome, duration)
		log.Error().Err(err).Dur("duration", duration).Msg("mail.send_failed")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	c.metrics.ObserveMailDispatch(metrics.OutcomeSuccess, duration)
	id, _ := result.(string)
	log.Info().
		Str("message_id", id).
		Str("to", logger.RedactEmail(c.to)).
		Dur("duration", duration).
		Msg("mail.sent")
	return nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type rejectionError struct {
	status int
	detail string
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.status, e.detail)
}

func (c *Client) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &rejectionError{status: resp.StatusCode, detail: string(bytes.TrimSpace(body))}
	}

	var parsed sendResponse
	_ = json.Unmarshal(body, &parsed)
	return parsed.ID, nil
}
