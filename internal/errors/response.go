package errors

import (
	"net/http"

	"github.com/CodeArche/proofgate/pkg/responders"
)

// ErrorResponse is the envelope every failed request answers with:
// {"error":{"code","message","retryable","details"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code, message, and optional context.
type ErrorDetail struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// New builds an envelope for code. Retryable is derived from the code.
func New(code ErrorCode, message string, details map[string]any) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		Retryable: code.IsRetryable(),
		Details:   details,
	}}
}

// Status is the HTTP status the envelope is written with.
func (e ErrorResponse) Status() int {
	return e.Error.Code.HTTPStatus()
}

// WriteError writes an error envelope with the status mapped from code.
func WriteError(w http.ResponseWriter, code ErrorCode, message string, details map[string]any) {
	resp := New(code, message, details)
	responders.JSON(w, resp.Status(), resp)
}

// WriteSimpleError writes an error with no details.
func WriteSimpleError(w http.ResponseWriter, code ErrorCode, message string) {
	WriteError(w, code, message, nil)
}

// WriteErrorWithDetail writes an error with a single detail field.
func WriteErrorWithDetail(w http.ResponseWriter, code ErrorCode, message, key string, value any) {
	WriteError(w, code, message, map[string]any{key: value})
}
