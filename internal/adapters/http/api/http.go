// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/coinop/internal/app"
	"github.com/okian/coinop/internal/domain/model"
	"github.com/okian/coinop/internal/domain/token"
	"github.com/okian/coinop/internal/domain/validate"
	"github.com/okian/coinop/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// IssueToken creates a fresh proof-of-freshness token.
	IssueToken(ctx context.Context) token.Token

	// Submit runs one submission through the pipeline to a terminal state.
	Submit(ctx context.Context, sub model.Submission) service.Result

	// TopN reads the ranked leaderboard view.
	TopN(ctx context.Context, limit int, sinceDays int) ([]model.LeaderboardRow, error)

	// HashClientAddr derives the rate-limit bucket key for a client address.
	HashClientAddr(addr string) string
}

// Options carries the read-only request-handling tunables.
type Options struct {
	CORSOrigin              string
	MaxLeaderboardLimit     int
	DefaultLeaderboardLimit int
	SubmitBurstRPS          float64
}

// Server wires HTTP routes for the business API.
type Server struct {
	tokenHandler       *TokenHandler
	submitHandler      *SubmitHandler
	leaderboardHandler *LeaderboardHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	opts               Options
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts Options) *Server {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.MaxLeaderboardLimit <= 0 {
		opts.MaxLeaderboardLimit = 1000
	}
	if opts.DefaultLeaderboardLimit <= 0 {
		opts.DefaultLeaderboardLimit = 100
	}
	return &Server{
		tokenHandler:       NewTokenHandler(deps),
		submitHandler:      NewSubmitHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, opts.MaxLeaderboardLimit, opts.DefaultLeaderboardLimit),
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		opts:               opts,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	cors := CORSMiddleware(s.opts.CORSOrigin)
	submit := MetricsMiddleware(cors(s.submitHandler.HandleSubmit), "submit")
	if s.opts.SubmitBurstRPS > 0 {
		submit = BurstGuardMiddleware(submit, s.opts.SubmitBurstRPS)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/token", MetricsMiddleware(cors(s.tokenHandler.HandleGetToken), "token"))
	mux.HandleFunc("/api/submit", RequestIDMiddleware(submit))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(cors(s.leaderboardHandler.HandleGetLeaderboard), "leaderboard"))
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a rejection reason to its HTTP status: credential failures
// are 401, shape and policy failures are 400.
func statusFor(reason validate.Reason) int {
	if reason.Kind() == validate.KindAuth {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}
