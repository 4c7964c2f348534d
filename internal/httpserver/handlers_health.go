package httpserver

import (
	"net/http"
	"time"

	"github.com/CodeArche/proofgate/internal/circuitbreaker"
	"github.com/CodeArche/proofgate/pkg/responders"
)

// health reports liveness and which operations can currently succeed.
// Secret values are never included.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	gatewayReady := h.cfg.Gateway.Configured()
	tokenReady := h.cfg.ProofToken.Configured()
	mailReady := h.cfg.Mail.Configured()

	operations := map[string]bool{
		"approve":  gatewayReady,
		"complete": gatewayReady && tokenReady,
		"contact":  tokenReady && mailReady,
	}

	status := "ok"
	for _, ready := range operations {
		if !ready {
			status = "degraded"
			break
		}
	}

	response := map[string]any{
		"status":     status,
		"uptime":     now.Sub(serverStartTime).String(),
		"timestamp":  now.UTC(),
		"operations": operations,
		"circuitBreakers": map[string]breakerStatus{
			"gateway": h.breakerStatus(circuitbreaker.ServiceGateway),
			"mail":    h.breakerStatus(circuitbreaker.ServiceMail),
		},
	}
	if h.cfg.Server.RoutePrefix != "" {
		response["routePrefix"] = h.cfg.Server.RoutePrefix
	}

	// Liveness: a degraded service still answers 200.
	responders.JSON(w, http.StatusOK, response)
}

type breakerStatus struct {
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	TotalFailures       uint32 `json:"totalFailures"`
	ConsecutiveFailures uint32 `json:"consecutiveFailures"`
}

func (h *handlers) breakerStatus(service circuitbreaker.ServiceType) breakerStatus {
	c := h.breakers.Counts(service)
	return breakerStatus{
		State:               h.breakers.State(service),
		Requests:            c.Requests,
		TotalFailures:       c.TotalFailures,
		ConsecutiveFailures: c.ConsecutiveFailures,
	}
}
