// Package ratelimiter provides token bucket rate limiting for protocol
// commands.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles command processing using the token bucket algorithm.
//
// Tokens are added to the bucket at a constant rate and each command consumes
// one. The burst capacity allows short spikes above the sustained rate, which
// suits interactive clients that fire a handful of commands back to back.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing the given sustained rate with the given
// burst capacity. A zero rate means unlimited.
func New(commandsPerSecond, burst uint) *RateLimiter {
	if commandsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = commandsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(commandsPerSecond), int(burst)),
	}
}

// Allow reports whether one command may proceed right now, consuming a token
// when it may. This is the non-blocking path.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled. This
// throttles a too-fast client instead of rejecting its commands.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the current number of available tokens. Primarily useful
// for monitoring and tests.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
