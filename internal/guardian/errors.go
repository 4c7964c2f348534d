package guardian

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CodeArche/proofgate/internal/pinetwork"
)

var (
	// ErrMissingField means a required request field was absent or blank.
	ErrMissingField = errors.New("guardian: missing required field")
	// ErrInvalidField means a request field was present but unusable.
	ErrInvalidField = errors.New("guardian: invalid field")
	// ErrNotConfigured means a secret the operation needs is not configured.
	ErrNotConfigured = errors.New("guardian: not configured")
	// ErrUnauthorized means the proof token did not verify.
	ErrUnauthorized = errors.New("guardian: payment verification required")
	// ErrGatewayRejected means the payment gateway answered with a non-2xx status.
	ErrGatewayRejected = errors.New("guardian: gateway rejected payment")
)

// MissingFieldError lists the absent fields of a request.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// InvalidFieldError names a field whose value was rejected.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidFieldError) Unwrap() error {
	return ErrInvalidField
}

// NotConfiguredError names the missing settings.
type NotConfiguredError struct {
	Settings []string
}

func (e *NotConfiguredError) Error() string {
	if len(e.Settings) == 1 {
		return e.Settings[0] + " is not configured"
	}
	return strings.Join(e.Settings, ", ") + " are not configured"
}

func (e *NotConfiguredError) Unwrap() error {
	return ErrNotConfigured
}

// GatewayRejectedError carries the gateway answer so it can be returned verbatim.
type GatewayRejectedError struct {
	Response *pinetwork.Response
}

func (e *GatewayRejectedError) Error() string {
	return fmt.Sprintf("gateway returned status %d", e.Response.StatusCode)
}

func (e *GatewayRejectedError) Unwrap() error {
	return ErrGatewayRejected
}

func missingFields(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingFieldError{Fields: missing}
}

func checkPaymentID(paymentID string) error {
	if !pinetwork.ValidPaymentID(paymentID) {
		return &InvalidFieldError{Field: "paymentId", Reason: "must not be a dot segment"}
	}
	return nil
}
