// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/coinop/internal/app"
	"github.com/okian/coinop/internal/domain/fingerprint"
	"github.com/okian/coinop/internal/domain/model"
)

// SubmitDependencies defines the interface for submission processing.
type SubmitDependencies interface {
	Submit(ctx context.Context, sub model.Submission) service.Result
	HashClientAddr(addr string) string
}

// SubmitHandler handles score submission requests.
type SubmitHandler struct {
	deps SubmitDependencies
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// submitRequest mirrors the JSON schema for POST /api/submit.
type submitRequest struct {
	Username    string  `json:"username"`
	Score       float64 `json:"score"`
	TS          int64   `json:"ts"`
	Sig         string  `json:"sig"`
	Fingerprint string  `json:"fingerprint"`
}

// HandleSubmit handles POST /api/submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	clientAddr := fingerprint.ClientAddr(r.Header.Get("X-Forwarded-For"))
	sub := model.Submission{
		Username:    req.Username,
		Score:       req.Score,
		TS:          req.TS,
		Sig:         req.Sig,
		Fingerprint: req.Fingerprint,
		IPHash:      h.deps.HashClientAddr(clientAddr),
	}

	res := h.deps.Submit(r.Context(), sub)
	switch res.Outcome {
	case service.OutcomePersisted:
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	case service.OutcomeRejected:
		writeError(w, statusFor(res.Reason), res.Reason.Message())
	case service.OutcomeRateLimited:
		writeError(w, http.StatusTooManyRequests, "Rate limited")
	default:
		// Storage failure: opaque to the caller, detail stays in the logs.
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}
