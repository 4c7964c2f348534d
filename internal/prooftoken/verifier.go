package prooftoken

import (
	"context"
	"fmt"
	"time"

	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks proof tokens presented with the gated request.
type Verifier struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret string, opts ...Option) *Verifier {
	o := buildOptions(opts)
	return &Verifier{
		secret: []byte(secret),
		now:    o.now,
		// Expiry is checked below at whole-second granularity with an inclusive bound.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Configured reports whether a signing secret is present.
func (v *Verifier) Configured() bool {
	return len(v.secret) > 0
}

// Verify returns the claims of a valid token. Every rejection is reported as
// ErrInvalidToken; the reason is only logged at debug level.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrSecretNotConfigured
	}

	claims, reason := v.check(token)
	if reason != "" {
		log := logger.FromContext(ctx)
		log.Debug().
			Str("reason", reason).
			Msg("prooftoken.rejected")
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) check(token string) (*Claims, string) {
	if token == "" {
		return nil, "empty"
	}

	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err.Error()
	}

	if claims.Type != PurposePaymentProof {
		return nil, "wrong purpose"
	}
	if claims.ExpiresAt == nil {
		return nil, "missing exp"
	}
	if v.now().Unix() > claims.ExpiresAt.Unix() {
		return nil, "expired"
	}
	if claims.PaymentID == "" || claims.TxID == "" {
		return nil, "missing binding"
	}
	return claims, ""
}
