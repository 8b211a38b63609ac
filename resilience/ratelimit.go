package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures the token bucket rate limiter.
type RateLimiterConfig struct {
	// Capacity is the number of tokens available per window.
	// Default: 60
	Capacity float64

	// Window is the period over which Capacity refills.
	// Default: 1 minute
	Window time.Duration

	// MaxWait is the longest the limiter will hold a caller waiting for
	// tokens before rejecting with a RateLimitedError.
	// Default: 30 seconds
	MaxWait time.Duration
}

// RateLimiter is a token bucket bounding throughput to Capacity tokens per
// Window. Refill is computed lazily from elapsed time on each access; there
// is no background timer. The bucket is an explicit handle, constructed once
// at startup and passed into the Executor.
type RateLimiter struct {
	config RateLimiterConfig
	rate   float64 // tokens per second

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.Capacity <= 0 {
		config.Capacity = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 30 * time.Second
	}

	return &RateLimiter{
		config:     config,
		rate:       config.Capacity / config.Window.Seconds(),
		tokens:     config.Capacity,
		lastRefill: time.Now(),
	}
}

// Acquire takes one token, waiting for refill if necessary.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	return rl.AcquireN(ctx, 1)
}

// AcquireN takes cost tokens. If not enough tokens exist, the wait until they
// accrue is computed; when that wait fits within MaxWait and the remaining
// context deadline the caller sleeps, otherwise a RateLimitedError carrying
// the wait as a retry hint is returned. Tokens are deducted only when the
// acquisition succeeds, so rejected callers leave the bucket untouched.
func (rl *RateLimiter) AcquireN(ctx context.Context, cost float64) error {
	if err := ctx.Err(); err != nil {
		return mapContextErr(err)
	}

	deadline := time.Now().Add(rl.config.MaxWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		rl.mu.Lock()
		rl.refillLocked()
		if rl.tokens >= cost {
			rl.tokens -= cost
			rl.mu.Unlock()
			return nil
		}
		wait := time.Duration((cost - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		if time.Now().Add(wait).After(deadline) {
			return &RateLimitedError{RetryAfter: wait}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return mapContextErr(ctx.Err())
		case <-timer.C:
			// Tokens have accrued, but a concurrent caller may have taken
			// them; loop and recompute under the lock.
		}
	}
}

// refillLocked adds tokens for the time elapsed since the last refill,
// capped at capacity. Must be called with rl.mu held.
func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	rl.lastRefill = now

	rl.tokens += elapsed.Seconds() * rl.rate
	if rl.tokens > rl.config.Capacity {
		rl.tokens = rl.config.Capacity
	}
}

// Tokens returns the current token count after a lazy refill.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Capacity returns the configured bucket capacity.
func (rl *RateLimiter) Capacity() float64 {
	return rl.config.Capacity
}

// Reset refills the bucket to capacity. Intended for test isolation.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = rl.config.Capacity
	rl.lastRefill = time.Now()
}

// mapContextErr converts a context expiry into the pipeline's typed timeout.
func mapContextErr(err error) error {
	if err == context.DeadlineExceeded {
		return ErrTimeout
	}
	return err
}
