// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/coinop/internal/domain/token"
)

// TokenDependencies defines the interface for token issuance.
type TokenDependencies interface {
	IssueToken(ctx context.Context) token.Token
}

// TokenHandler handles token issuance requests.
type TokenHandler struct {
	deps TokenDependencies
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(deps TokenDependencies) *TokenHandler {
	return &TokenHandler{deps: deps}
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// HandleGetToken handles GET /api/token requests.
func (h *TokenHandler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	tok := h.deps.IssueToken(r.Context())
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     tok.String(),
		ExpiresAt: tok.ExpiresAt,
	})
}
