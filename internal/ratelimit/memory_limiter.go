package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxClients bounds how many per-client buckets are kept before idle
// ones are swept.
const DefaultMaxClients = 10000

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per client. The bucket holds
// MaxRequests tokens and refills at MaxRequests per Window.
type MemoryLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*clientBucket
	limit      rate.Limit
	burst      int
	window     time.Duration
	maxClients int
	now        func() time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter(cfg Config) (*MemoryLimiter, error) {
	if cfg.MaxRequests < 1 {
		return nil, errors.New("max requests must be at least 1")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("window must be positive")
	}

	return &MemoryLimiter{
		buckets:    make(map[string]*clientBucket),
		limit:      rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds()),
		burst:      cfg.MaxRequests,
		window:     cfg.Window,
		maxClients: DefaultMaxClients,
		now:        time.Now,
	}, nil
}

// Allow consumes one token from key's bucket
func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	limiter := m.bucket(key, now)

	allowed := limiter.AllowN(now, 1)
	tokens := limiter.TokensAt(now)

	d := Decision{
		Allowed:    allowed,
		Limit:      m.burst,
		Remaining:  int(math.Max(0, math.Floor(tokens))),
		ResetAfter: m.refillTime(float64(m.burst) - tokens),
	}
	if !allowed {
		d.RetryAfter = m.refillTime(1 - tokens)
	}
	return d, nil
}

// refillTime returns how long the bucket needs to gain n tokens
func (m *MemoryLimiter) refillTime(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n / float64(m.limit) * float64(time.Second))
}

// bucket returns the limiter for key, creating it on first use
func (m *MemoryLimiter) bucket(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	if len(m.buckets) >= m.maxClients {
		m.sweep(now)
	}

	b := &clientBucket{
		limiter:  rate.NewLimiter(m.limit, m.burst),
		lastSeen: now,
	}
	m.buckets[key] = b
	return b.limiter
}

// sweep drops buckets idle for a full window; they would be full again anyway.
// Caller holds m.mu.
func (m *MemoryLimiter) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) >= m.window {
			delete(m.buckets, key)
		}
	}
}

// Len returns the number of tracked clients
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
