// Package ratelimit provides per-client admission control based on a sliding
// count of recent accepted submissions.
//
// The decision is advisory: the count is read from a collaborator and the
// matching write happens later, so concurrent bursts from one client can
// transiently exceed the limit. On a collaborator read failure the limiter
// fails open, trading strictness for availability.
package ratelimit

import (
	"context"
	"time"

	"github.com/okian/coinop/pkg/logger"
	"github.com/okian/coinop/pkg/metrics"
)

// Default admission parameters.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Minute
)

// RecentCounter exposes the sliding-window count for a bucket key and lets
// backends that are not the row store itself track accepted submissions.
type RecentCounter interface {
	// CountSince returns the number of accepted submissions for key at or
	// after since.
	CountSince(ctx context.Context, key string, since time.Time) (int, error)

	// Record notes an accepted submission for key at the given time.
	// Implementations whose CountSince reads the score table directly may
	// treat this as a no-op.
	Record(ctx context.Context, key string, at time.Time) error
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithLimit sets the per-window admission ceiling.
func WithLimit(limit int) Option {
	return func(l *Limiter) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithWindow sets the trailing window length.
func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets a custom logger for the limiter.
func WithLogger(log logger.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// Limiter decides whether a client bucket may submit right now.
type Limiter struct {
	counter RecentCounter
	limit   int
	window  time.Duration
	now     func() time.Time
	log     logger.Logger
}

// New creates a limiter reading recent activity from counter.
func New(counter RecentCounter, opts ...Option) *Limiter {
	l := &Limiter{
		counter: counter,
		limit:   DefaultLimit,
		window:  DefaultWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether the bucket identified by key is under its limit for
// the trailing window. A counter failure admits the request (fail open) so a
// downstream read outage cannot take submissions down with it.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	since := l.now().Add(-l.window)
	recent, err := l.counter.CountSince(ctx, key, since)
	if err != nil {
		if l.log != nil {
			l.log.Warn(ctx, "recent-count query failed; admitting request",
				logger.Error(err),
			)
		}
		metrics.RecordRateLimitFailOpen()
		return true
	}
	if recent >= l.limit {
		metrics.RecordRateLimitDenied()
		return false
	}
	return true
}
