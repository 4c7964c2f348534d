package httpserver

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/CodeArche/proofgate/internal/errors"
	"github.com/CodeArche/proofgate/internal/guardian"
	"github.com/CodeArche/proofgate/internal/logger"
	"github.com/CodeArche/proofgate/internal/pinetwork"
	"github.com/CodeArche/proofgate/pkg/responders"
)

type approveRequest struct {
	PaymentID string `json:"paymentId"`
}

type completeRequest struct {
	PaymentID string `json:"paymentId"`
	TxID      string `json:"txid"`
}

type completeResponse struct {
	OK         bool            `json:"ok"`
	ProofToken string          `json:"proofToken"`
	Pi         json.RawMessage `json:"pi"`
}

type contactRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Vision     string `json:"vision"`
	ProofToken string `json:"proofToken"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// approve handles POST /approve.
func (h *handlers) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, r, err)
		return
	}

	resp, err := h.guardian.Approve(r.Context(), req.PaymentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeGatewayResponse(w, resp)
}

// complete handles POST /complete.
func (h *handlers) complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, r, err)
		return
	}

	result, err := h.guardian.Complete(r.Context(), req.PaymentID, req.TxID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	responders.JSON(w, http.StatusOK, completeResponse{
		OK:         true,
		ProofToken: result.ProofToken,
		Pi:         result.Gateway.Body,
	})
}

// contact handles POST /contact.
func (h *handlers) contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeInvalidJSON(w, r, err)
		return
	}

	err := h.guardian.Contact(r.Context(), guardian.Application{
		Name:       req.Name,
		Email:      req.Email,
		Vision:     req.Vision,
		ProofToken: req.ProofToken,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	responders.JSON(w, http.StatusOK, okResponse{OK: true})
}

// writeGatewayResponse relays a gateway answer with its own status and body.
func writeGatewayResponse(w http.ResponseWriter, resp *pinetwork.Response) {
	responders.Raw(w, resp.StatusCode, resp.Body)
}

func writeInvalidJSON(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Debug().Err(err).Msg("request.invalid_json")
	apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "request body must be a JSON object")
}
