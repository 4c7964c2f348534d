package httpserver

import (
	"crypto/subtle"
	"net/http"

	apierrors "github.com/CodeArche/proofgate/internal/errors"
)

// adminMetricsAuth protects the /metrics endpoint with an API key.
// If no API key is configured, the endpoint is accessible without authentication.
// Otherwise requests must include an "Authorization: Bearer {key}" header.
func adminMetricsAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get("Authorization")
			expected := "Bearer " + apiKey
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidAdminKey, "Invalid or missing admin API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
