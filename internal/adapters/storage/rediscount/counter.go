// Package rediscount implements the rate limiter's recent-activity counter on
// Redis sorted sets. Each bucket key holds one member per accepted submission
// scored by its unix timestamp, giving an exact sliding window independent of
// the row store's read path.
package rediscount

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "coinop:recent"
	defaultTTL    = 5 * time.Minute
)

// Option applies a configuration option to the Counter.
type Option func(*Counter)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Counter) {
		if p := strings.Trim(prefix, ":"); p != "" {
			c.prefix = p
		}
	}
}

// WithTTL overrides how long idle bucket keys survive.
func WithTTL(ttl time.Duration) Option {
	return func(c *Counter) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// Counter tracks accepted submissions per bucket key in Redis.
type Counter struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a counter on the given Redis client.
func New(rdb *redis.Client, opts ...Option) *Counter {
	c := &Counter{
		rdb:    rdb,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountSince returns the number of recorded submissions for key at or after
// since, pruning members that have aged out of any plausible window.
func (c *Counter) CountSince(ctx context.Context, key string, since time.Time) (int, error) {
	k := c.key(key)
	min := strconv.FormatInt(since.Unix(), 10)

	pipe := c.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", "("+min)
	count := pipe.ZCount(ctx, k, min, "+inf")
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis count for %s: %w", k, err)
	}
	return int(count.Val()), nil
}

// Record notes an accepted submission for key at the given time.
func (c *Counter) Record(ctx context.Context, key string, at time.Time) error {
	k := c.key(key)
	member := strconv.FormatInt(at.UnixNano(), 10)

	pipe := c.rdb.Pipeline()
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(at.Unix()), Member: member})
	pipe.Expire(ctx, k, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record for %s: %w", k, err)
	}
	return nil
}

func (c *Counter) key(bucket string) string {
	return c.prefix + ":" + bucket
}
