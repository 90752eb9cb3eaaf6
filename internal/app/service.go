// Package service provides the core business service that implements
// the dependencies required by the HTTP API: token issuance and the
// validate -> rate-check -> persist submission pipeline.
package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/okian/coinop/internal/adapters/storage/rediscount"
	"github.com/okian/coinop/internal/adapters/storage/rest"
	"github.com/okian/coinop/internal/config"
	"github.com/okian/coinop/internal/domain/fingerprint"
	"github.com/okian/coinop/internal/domain/model"
	"github.com/okian/coinop/internal/domain/ratelimit"
	"github.com/okian/coinop/internal/domain/token"
	"github.com/okian/coinop/internal/domain/validate"
	"github.com/okian/coinop/pkg/logger"
	"github.com/okian/coinop/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Outcome is the terminal state of one submission.
type Outcome string

// Terminal submission states.
const (
	OutcomePersisted    Outcome = "PERSISTED"
	OutcomeRejected     Outcome = "REJECTED"
	OutcomeRateLimited  Outcome = "RATE_LIMITED"
	OutcomeStorageError Outcome = "STORAGE_ERROR"
)

// Result reports how a submission terminated. Reason is set only for
// OutcomeRejected.
type Result struct {
	Outcome Outcome
	Reason  validate.Reason
}

// Store is the row-store surface the pipeline needs.
type Store interface {
	Insert(ctx context.Context, rec model.ScoreRecord) error
	TopN(ctx context.Context, limit int, since *time.Time) ([]model.LeaderboardRow, error)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore overrides the row store. Intended for tests.
func WithStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCounter overrides the recent-activity counter. Intended for tests.
func WithCounter(counter ratelimit.RecentCounter) Option {
	return func(s *Service) {
		if counter != nil {
			s.counter = counter
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service implements the API dependencies for the submission pipeline.
// Every request is handled by an independent, stateless invocation; the only
// shared state lives in the remote score table.
type Service struct {
	tokens    *token.Service
	validator *validate.Validator
	limiter   *ratelimit.Limiter
	hasher    *fingerprint.Hasher
	store     Store
	counter   ratelimit.RecentCounter
	now       func() time.Time
	log       logger.Logger

	// Monotonic in-process counters for /stats.
	accepted      atomic.Int64
	rejected      atomic.Int64
	rateLimited   atomic.Int64
	storageErrors atomic.Int64
}

// New wires the pipeline from configuration. Options may replace individual
// collaborators, which tests use to substitute fakes.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}

	if s.store == nil {
		s.store = rest.New(cfg.StoreURL, cfg.StoreServiceKey)
	}
	if s.counter == nil {
		s.counter = s.buildCounter(cfg)
	}

	s.tokens = token.New(cfg.HMACSecret,
		token.WithTTL(time.Duration(cfg.TokenTTLSecs)*time.Second),
		token.WithClock(s.now),
	)
	s.validator = validate.New(s.tokens,
		validate.WithMaxScore(cfg.MaxScore),
		validate.WithMaxSkew(time.Duration(cfg.ClockSkewSecs)*time.Second),
		validate.WithClock(s.now),
	)
	s.limiter = ratelimit.New(s.counter,
		ratelimit.WithLimit(cfg.RateLimitPerMin),
		ratelimit.WithWindow(time.Duration(cfg.RateWindowSecs)*time.Second),
		ratelimit.WithClock(s.now),
		ratelimit.WithLogger(s.log),
	)
	s.hasher = fingerprint.NewHasher(cfg.Pepper)

	return s
}

func (s *Service) buildCounter(cfg *config.Config) ratelimit.RecentCounter {
	if cfg.RateCounter == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return rediscount.New(rdb)
	}
	// The REST store counts rows directly; reuse it when possible so both
	// backends satisfy the same interface.
	if counter, ok := s.store.(ratelimit.RecentCounter); ok {
		return counter
	}
	return rest.New(cfg.StoreURL, cfg.StoreServiceKey)
}

// IssueToken creates a fresh proof-of-freshness token.
func (s *Service) IssueToken(_ context.Context) token.Token {
	metrics.RecordTokenIssued()
	return s.tokens.Issue()
}

// HashClientAddr derives the rate-limit bucket key for a client address.
func (s *Service) HashClientAddr(addr string) string {
	return s.hasher.Hash(addr)
}

// Submit runs one submission through the pipeline. The returned Result is
// always terminal; there are no internal retries.
func (s *Service) Submit(ctx context.Context, sub model.Submission) Result {
	if err := s.validator.Check(sub); err != nil {
		reason := validate.ReasonInvalidScore
		var rej *validate.Rejection
		if errors.As(err, &rej) {
			reason = rej.Reason
		}
		s.rejected.Add(1)
		metrics.RecordSubmissionRejected(string(reason))
		s.log.Debug(ctx, "submission rejected",
			logger.String("reason", string(reason)),
		)
		return Result{Outcome: OutcomeRejected, Reason: reason}
	}

	if !s.limiter.Allow(ctx, sub.IPHash) {
		s.rateLimited.Add(1)
		s.log.Debug(ctx, "submission rate limited")
		return Result{Outcome: OutcomeRateLimited}
	}

	rec := model.ScoreRecord{
		Username:    sub.Username,
		Score:       sub.Score,
		Fingerprint: sub.Fingerprint,
		IPHash:      sub.IPHash,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		s.storageErrors.Add(1)
		// Log the detail here; the caller surfaces an opaque server error.
		s.log.Error(ctx, "score insert failed", logger.Error(err))
		return Result{Outcome: OutcomeStorageError}
	}

	// Best effort: counter backends that are not the row store track their
	// own window. A failure here only loosens the next rate decision.
	if err := s.counter.Record(ctx, sub.IPHash, s.now()); err != nil {
		s.log.Warn(ctx, "recent-count record failed", logger.Error(err))
	}

	s.accepted.Add(1)
	metrics.RecordSubmissionAccepted()
	return Result{Outcome: OutcomePersisted}
}

// TopN returns up to limit leaderboard rows, optionally restricted to the
// trailing sinceDays window. Limit capping is the caller's concern.
func (s *Service) TopN(ctx context.Context, limit int, sinceDays int) ([]model.LeaderboardRow, error) {
	var since *time.Time
	if sinceDays > 0 {
		t := s.now().AddDate(0, 0, -sinceDays)
		since = &t
	}
	return s.store.TopN(ctx, limit, since)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"accepted":      s.accepted.Load(),
		"rejected":      s.rejected.Load(),
		"rateLimited":   s.rateLimited.Load(),
		"storageErrors": s.storageErrors.Load(),
	}
}
