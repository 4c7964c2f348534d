package prooftoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposePaymentProof is the discriminator carried in the typ claim. Tokens
// minted for any other purpose never unlock the gated action.
const PurposePaymentProof = "pi-payment-proof"

var (
	// ErrInvalidToken is the only error Verify reports for a rejected token.
	ErrInvalidToken = errors.New("prooftoken: invalid token")
	// ErrSecretNotConfigured means no signing secret was provided.
	ErrSecretNotConfigured = errors.New("prooftoken: signing secret not configured")
	// ErrMissingBinding means paymentId or txid was empty at issuance.
	ErrMissingBinding = errors.New("prooftoken: paymentId and txid are required")
)

// Claims is the payload of a payment proof token.
type Claims struct {
	Type      string `json:"typ"`
	PaymentID string `json:"paymentId"`
	TxID      string `json:"txid"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns iat as a time, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp as a time, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type options struct {
	now func() time.Time
}

// Option configures an Issuer or Verifier.
type Option func(*options)

// WithClock overrides the time source. Used by tests to pin iat and exp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
