package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces the counters in Redis.
const KeyPrefix = "ratelimit:"

// fixedWindowScript increments the window counter and sets its expiry on
// first use. Returns the new count.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

// RedisLimiter counts requests per client in fixed windows aligned to the
// window size, so all replicas sharing the Redis instance share the budget.
type RedisLimiter struct {
	redis       redis.Cmdable
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewRedisLimiter creates a Redis backed limiter
func NewRedisLimiter(client redis.Cmdable, cfg Config) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.MaxRequests < 1 {
		return nil, errors.New("max requests must be at least 1")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("window must be positive")
	}

	return &RedisLimiter{
		redis:       client,
		maxRequests: cfg.MaxRequests,
		window:      cfg.Window,
		now:         time.Now,
	}, nil
}

// Allow increments key's counter for the current window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	resetAfter := windowStart.Add(l.window).Sub(now)

	redisKey := KeyPrefix + key + ":" + strconv.FormatInt(windowStart.UnixMilli(), 10)
	// Keep the key a little past the window end so late clocks still see it
	ttl := l.window + time.Second

	count, err := fixedWindowScript.Run(ctx, l.redis, []string{redisKey}, ttl.Milliseconds()).Int()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit counter: %w", err)
	}

	d := Decision{
		Allowed:    count <= l.maxRequests,
		Limit:      l.maxRequests,
		Remaining:  max(0, l.maxRequests-count),
		ResetAfter: resetAfter,
	}
	if !d.Allowed {
		d.RetryAfter = resetAfter
	}
	return d, nil
}
