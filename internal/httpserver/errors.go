package httpserver

import (
	"errors"
	"net/http"

	apierrors "github.com/CodeArche/proofgate/internal/errors"
	"github.com/CodeArche/proofgate/internal/guardian"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/mail"
	"github.com/CodeArche/proofgate/internal/pinetwork"
)

// writeServiceError maps orchestrator errors onto the HTTP error contract.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var (
		missing       *guardian.MissingFieldError
		invalid       *guardian.InvalidFieldError
		notConfigured *guardian.NotConfiguredError
		rejected      *guardian.GatewayRejectedError
	)

	switch {
	case errors.As(err, &missing):
		apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeMissingField, missing.Error(), "fields", missing.Fields)

	case errors.As(err, &invalid):
		apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeInvalidField, invalid.Error(), "field", invalid.Field)

	case errors.Is(err, pinetwork.ErrInvalidPaymentID):
		apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeInvalidField, "invalid paymentId", "field", "paymentId")

	case errors.As(err, &notConfigured):
		log.Error().Strs("settings", notConfigured.Settings).Msg("request.not_configured")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeConfigError, notConfigured.Error())

	case errors.As(err, &rejected):
		writeGatewayResponse(w, rejected.Response)

	case errors.Is(err, guardian.ErrUnauthorized):
		apierrors.WriteSimpleError(w, apierrors.ErrCodePaymentVerificationRequired, "payment verification required")

	case errors.Is(err, pinetwork.ErrUnavailable), errors.Is(err, mail.ErrUnavailable):
		apierrors.WriteSimpleError(w, apierrors.ErrCodeServiceUnavailable, "upstream service temporarily unavailable")

	case errors.Is(err, pinetwork.ErrRequestFailed):
		apierrors.WriteSimpleError(w, apierrors.ErrCodeGatewayError, "payment gateway request failed")

	case errors.Is(err, mail.ErrSendFailed):
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMailSendFailed, "mail send failed")

	default:
		log.Error().Err(err).Msg("request.internal_error")
		apierrors.WriteErrorWithDetail(w, apierrors.ErrCodeInternalError, "internal error",
			"request_id", logger.GetRequestID(r.Context()))
	}
}
