// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/coinop/internal/domain/model"
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, limit int, sinceDays int) ([]model.LeaderboardRow, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps         LeaderboardDependencies
	maxLimit     int
	defaultLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit, defaultLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:         deps,
		maxLimit:     maxLimit,
		defaultLimit: defaultLimit,
	}
}

type leaderboardResponse struct {
	Items []model.LeaderboardRow `json:"items"`
	Total int                    `json:"total"`
}

// HandleGetLeaderboard handles GET /api/leaderboard?limit=N&since=Nd requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := h.defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	sinceDays := 0
	if s := r.URL.Query().Get("since"); strings.HasSuffix(s, "d") {
		if n, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil && n > 0 {
			sinceDays = n
		}
	}

	rows, err := h.deps.TopN(r.Context(), limit, sinceDays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB error")
		return
	}
	if rows == nil {
		rows = []model.LeaderboardRow{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Items: rows, Total: len(rows)})
}
