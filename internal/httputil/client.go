package httputil

import (
	"net/http"
	"time"
)

// NewClient creates an HTTP client for outbound calls to the payment gateway
// and the mail provider. Both are single hosts called repeatedly, so idle
// connections are pooled per host.
//
// Transport settings:
//   - MaxIdleConns: 20
//   - MaxIdleConnsPerHost: 10
//   - IdleConnTimeout: 90s
//   - TLSHandshakeTimeout: 10s (capped at the overall timeout)
func NewClient(timeout time.Duration) *http.Client {
	handshake := 10 * time.Second
	if timeout > 0 && timeout < handshake {
		handshake = timeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: handshake,
			ForceAttemptHTTP2:   true,
		},
	}
}
