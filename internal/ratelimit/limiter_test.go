package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// setupTestRedisLimiter creates a RedisLimiter backed by miniredis.
func setupTestRedisLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewRedisLimiter(client, cfg)
	require.NoError(t, err)

	clock := newTestClock()
	limiter.now = clock.Now
	return limiter, mr, clock
}

func TestNewMemoryLimiter_InvalidConfig(t *testing.T) {
	_, err := NewMemoryLimiter(Config{MaxRequests: 0, Window: time.Minute})
	assert.Error(t, err)

	_, err = NewMemoryLimiter(Config{MaxRequests: 10, Window: 0})
	assert.Error(t, err)
}

func TestMemoryLimiter_AllowsBurstThenDenies(t *testing.T) {
	limiter, err := NewMemoryLimiter(Config{MaxRequests: 3, Window: time.Minute})
	require.NoError(t, err)
	clock := newTestClock()
	limiter.now = clock.Now

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 20*time.Second, d.RetryAfter.Round(time.Second))

	other, err := limiter.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "clients have independent budgets")
}

func TestMemoryLimiter_Refills(t *testing.T) {
	limiter, err := NewMemoryLimiter(Config{MaxRequests: 2, Window: time.Minute})
	require.NoError(t, err)
	clock := newTestClock()
	limiter.now = clock.Now

	ctx := context.Background()
	_, _ = limiter.Allow(ctx, "k")
	_, _ = limiter.Allow(ctx, "k")
	d, _ := limiter.Allow(ctx, "k")
	require.False(t, d.Allowed)

	clock.Advance(31 * time.Second)
	d, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_SweepsIdleClients(t *testing.T) {
	limiter, err := NewMemoryLimiter(Config{MaxRequests: 5, Window: time.Minute})
	require.NoError(t, err)
	clock := newTestClock()
	limiter.now = clock.Now
	limiter.maxClients = 3

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = limiter.Allow(ctx, fmt.Sprintf("client-%d", i))
	}
	assert.Equal(t, 3, limiter.Len())

	clock.Advance(2 * time.Minute)
	_, _ = limiter.Allow(ctx, "fresh")
	assert.Equal(t, 1, limiter.Len())
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	limiter, err := NewMemoryLimiter(Config{MaxRequests: 50, Window: time.Hour})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := limiter.Allow(context.Background(), "shared")
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestNewRedisLimiter_InvalidConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err := NewRedisLimiter(nil, Config{MaxRequests: 1, Window: time.Second})
	assert.Error(t, err)

	_, err = NewRedisLimiter(client, Config{MaxRequests: 0, Window: time.Second})
	assert.Error(t, err)

	_, err = NewRedisLimiter(client, Config{MaxRequests: 1, Window: -time.Second})
	assert.Error(t, err)
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	limiter, _, clock := setupTestRedisLimiter(t, Config{MaxRequests: 2, Window: time.Minute})
	ctx := context.Background()

	clock.Advance(15 * time.Second)

	d, err := limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, 45*time.Second, d.ResetAfter)

	d, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 45*time.Second, d.RetryAfter)

	// Next window starts fresh
	clock.Advance(45 * time.Second)
	d, err = limiter.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	limiter, mr, clock := setupTestRedisLimiter(t, Config{MaxRequests: 2, Window: time.Minute})

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	replica, err := NewRedisLimiter(client, Config{MaxRequests: 2, Window: time.Minute})
	require.NoError(t, err)
	replica.now = clock.Now

	ctx := context.Background()
	_, err = limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	_, err = replica.Allow(ctx, "ip")
	require.NoError(t, err)

	d, err := limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestRedisLimiter_KeysExpire(t *testing.T) {
	limiter, mr, _ := setupTestRedisLimiter(t, Config{MaxRequests: 5, Window: time.Minute})

	_, err := limiter.Allow(context.Background(), "ip")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], KeyPrefix+"ip:")
	assert.Equal(t, 61*time.Second, mr.TTL(keys[0]))

	mr.FastForward(62 * time.Second)
	assert.Empty(t, mr.Keys())
}

func TestRedisLimiter_RedisDown(t *testing.T) {
	limiter, mr, _ := setupTestRedisLimiter(t, Config{MaxRequests: 5, Window: time.Minute})
	mr.Close()

	_, err := limiter.Allow(context.Background(), "ip")
	assert.Error(t, err)
}
