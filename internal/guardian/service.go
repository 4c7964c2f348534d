// Package guardian runs the payment proof handshake: approve and complete a Pi
// payment, mint a proof token, then redeem it for a guardian application email.
package guardian

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/mail"
	"github.com/CodeArche/proofgate/internal/metrics"
	"github.com/CodeArche/proofgate/internal/pinetwork"
	"github.com/CodeArche/proofgate/internal/prooftoken"
)

// Gateway approves and completes payments with the payment platform.
type Gateway interface {
	Configured() bool
	Approve(ctx context.Context, paymentID string) (*pinetwork.Response, error)
	Complete(ctx context.Context, paymentID, txID string) (*pinetwork.Response, error)
}

// Dispatcher delivers rendered email.
type Dispatcher interface {
	MissingSettings() []string
	Send(ctx context.Context, msg mail.Message) error
}

// Application is the gated contact form.
type Application struct {
	Name       string
	Email      string
	Vision     string
	ProofToken string
}

// CompleteResult is returned after the gateway accepted completion.
type CompleteResult struct {
	ProofToken string
	Gateway    *pinetwork.Response
}

// Service holds the collaborators of the three operations. It keeps no
// per-request state.
type Service struct {
	gateway  Gateway
	issuer   *prooftoken.Issuer
	verifier *prooftoken.Verifier
	mailer   Dispatcher
	brand    string
	metrics  *metrics.Metrics
}

// Config wires a Service.
type Config struct {
	Gateway  Gateway
	Issuer   *prooftoken.Issuer
	Verifier *prooftoken.Verifier
	Mailer   Dispatcher
	Brand    string
	Metrics  *metrics.Metrics
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	brand := cfg.Brand
	if brand == "" {
		brand = "Code Arche"
	}
	return &Service{
		gateway:  cfg.Gateway,
		issuer:   cfg.Issuer,
		verifier: cfg.Verifier,
		mailer:   cfg.Mailer,
		brand:    brand,
		metrics:  cfg.Metrics,
	}
}

// Approve forwards approval of a pending payment. The gateway answer is
// returned as-is whatever its status.
func (s *Service) Approve(ctx context.Context, paymentID string) (*pinetwork.Response, error) {
	if err := missingFields("paymentId", paymentID); err != nil {
		return nil, err
	}
	if err := checkPaymentID(paymentID); err != nil {
		return nil, err
	}
	if !s.gateway.Configured() {
		return nil, &NotConfiguredError{Settings: []string{"PI_API_KEY"}}
	}

	resp, err := s.gateway.Approve(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("approve payment: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("payment_id", logger.TruncateID(paymentID)).
		Int("gateway_status", resp.StatusCode).
		Msg("approve.gateway_called")
	return resp, nil
}

// Complete confirms the transaction with the gateway and, only if it
// succeeds, issues a proof token bound to paymentID and txID.
func (s *Service) Complete(ctx context.Context, paymentID, txID string) (*CompleteResult, error) {
	if err := missingFields("paymentId", paymentID, "txid", txID); err != nil {
		return nil, err
	}
	if err := checkPaymentID(paymentID); err != nil {
		return nil, err
	}
	if !s.gateway.Configured() {
		return nil, &NotConfiguredError{Settings: []string{"PI_API_KEY"}}
	}
	if !s.issuer.Configured() {
		return nil, &NotConfiguredError{Settings: []string{"PROOF_TOKEN_SECRET"}}
	}

	log := logger.FromContext(ctx).With().
		Str("payment_id", logger.TruncateID(paymentID)).
		Logger()

	resp, err := s.gateway.Complete(ctx, paymentID, txID)
	if err != nil {
		return nil, fmt.Errorf("complete payment: %w", err)
	}
	if !resp.OK() {
		log.Warn().Int("gateway_status", resp.StatusCode).Msg("complete.gateway_rejected")
		return nil, &GatewayRejectedError{Response: resp}
	}

	token, err := s.issuer.Issue(paymentID, txID)
	if err != nil {
		return nil, fmt.Errorf("issue proof token: %w", err)
	}
	s.metrics.ObserveTokenIssued()

	log.Info().
		Dur("lifetime", s.issuer.Lifetime()).
		Msg("complete.token_issued")

	return &CompleteResult{ProofToken: token, Gateway: resp}, nil
}

// Contact verifies the proof token and sends the application email.
func (s *Service) Contact(ctx context.Context, app Application) error {
	app.Name = strings.TrimSpace(app.Name)
	app.Email = strings.TrimSpace(app.Email)
	if err := missingFields("name", app.Name, "email", app.Email, "vision", app.Vision); err != nil {
		return err
	}
	if !s.verifier.Configured() {
		return &NotConfiguredError{Settings: []string{"PROOF_TOKEN_SECRET"}}
	}

	log := logger.FromContext(ctx)

	claims, err := s.verifier.Verify(ctx, strings.TrimSpace(app.ProofToken))
	s.metrics.ObserveTokenVerification(err == nil)
	if err != nil {
		if errors.Is(err, prooftoken.ErrSecretNotConfigured) {
			return &NotConfiguredError{Settings: []string{"PROOF_TOKEN_SECRET"}}
		}
		log.Info().Msg("contact.unauthorized")
		return ErrUnauthorized
	}

	if missing := s.mailer.MissingSettings(); len(missing) > 0 {
		return &NotConfiguredError{Settings: missing}
	}

	msg, err := renderApplication(s.brand, app, claims)
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("dispatch application: %w", err)
	}

	log.Info().
		Str("payment_id", logger.TruncateID(claims.PaymentID)).
		Str("applicant", logger.RedactEmail(app.Email)).
		Time("token_issued_at", claims.IssuedAtTime()).
		Time("token_expires_at", claims.ExpiresAtTime()).
		Msg("contact.dispatched")
	return nil
}
