package errors

// ErrorCode represents a machine-readable error identifier for frontend error handling.
type ErrorCode string

// Validation Errors (Request input validation)
const (
	ErrCodeMissingField     ErrorCode = "missing_field"
	ErrCodeInvalidField     ErrorCode = "invalid_field"
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"
	ErrCodeNotFound         ErrorCode = "not_found"
)

// Authorization Errors (proof token rejected)
const (
	// Covers every proof token rejection reason.
	ErrCodePaymentVerificationRequired ErrorCode = "payment_verification_required"
	ErrCodeInvalidAdminKey             ErrorCode = "invalid_admin_key"
)

// External Service Errors (payment gateway, mail provider)
const (
	ErrCodeGatewayError       ErrorCode = "gateway_error"
	ErrCodeMailSendFailed     ErrorCode = "mail_send_failed"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrCodeRateLimited        ErrorCode = "rate_limit_exceeded"
)

// Internal/System Errors
const (
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeConfigError   ErrorCode = "config_error"
)

// IsRetryable returns whether an error code represents a retryable error.
// Retryable errors are typically transient network/service issues, not validation failures.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeGatewayError,
		ErrCodeMailSendFailed,
		ErrCodeServiceUnavailable,
		ErrCodeRateLimited:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	// 400 Bad Request - Client validation errors
	case ErrCodeMissingField,
		ErrCodeInvalidField:
		return 400

	// 401 Unauthorized - proof token or admin key rejected
	case ErrCodePaymentVerificationRequired,
		ErrCodeInvalidAdminKey:
		return 401

	case ErrCodeNotFound:
		return 404

	case ErrCodeMethodNotAllowed:
		return 405

	case ErrCodeRateLimited:
		return 429

	// 502 Bad Gateway - External service errors
	case ErrCodeGatewayError,
		ErrCodeMailSendFailed:
		return 502

	case ErrCodeServiceUnavailable:
		return 503

	// 500 Internal Server Error - System/internal errors
	default:
		return 500
	}
}
