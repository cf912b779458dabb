// Package ratelimit provides per-client request limiting for the HTTP API.
//
// Two backends share the Limiter interface: MemoryLimiter keeps a token bucket
// per client in process, RedisLimiter keeps a fixed-window counter in Redis so
// that every replica sees the same budget.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	// Allowed is false when the client has exhausted its budget.
	Allowed bool

	// Limit is the number of requests permitted per window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAfter is the time until the budget is fully restored.
	ResetAfter time.Duration

	// RetryAfter is the time until the next request would be allowed.
	// Zero when Allowed is true.
	RetryAfter time.Duration
}

// Limiter decides whether a request from key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config holds the limits shared by both backends.
type Config struct {
	// MaxRequests is the number of requests a client may make per Window.
	MaxRequests int

	// Window is the period over which MaxRequests applies.
	Window time.Duration
}
