package prooftoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints payment proof tokens after the gateway confirms completion.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewIssuer creates an issuer. An empty secret yields an issuer whose Issue
// always fails with ErrSecretNotConfigured.
func NewIssuer(secret string, lifetime time.Duration, opts ...Option) *Issuer {
	o := buildOptions(opts)
	return &Issuer{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      o.now,
	}
}

// Configured reports whether a signing secret is present.
func (i *Issuer) Configured() bool {
	return len(i.secret) > 0
}

// Lifetime returns how long issued tokens stay valid.
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue signs a token binding paymentID and txID. The output depends only on
// the inputs, the secret and the clock.
func (i *Issuer) Issue(paymentID, txID string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrSecretNotConfigured
	}
	if paymentID == "" || txID == "" {
		return "", ErrMissingBinding
	}

	now := i.now()
	claims := Claims{
		Type:      PurposePaymentProof,
		PaymentID: paymentID,
		TxID:      txID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign proof token: %w", err)
	}
	return signed, nil
}
