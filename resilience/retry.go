package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	// MaxAttempts is the maximum number of physical attempts, including the
	// initial one.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent delays
	// double, capped at MaxDelay.
	// Default: 250ms
	BaseDelay time.Duration

	// MaxDelay caps the computed delay between retries.
	// Default: 10 seconds
	MaxDelay time.Duration

	// JitterFraction randomizes each delay by this fraction in both
	// directions to avoid synchronized retry storms.
	// Default: 0.2
	JitterFraction float64

	// RetryIf decides whether a failure is transient. Terminal failures
	// (validation, auth, not-found) return immediately.
	// Default: Retryable.
	RetryIf func(err error) bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry retries transient failures with exponential backoff and jitter.
// A server-supplied retry-after hint on a failure overrides the computed
// delay for that attempt. Once attempts are exhausted the last failure is
// returned to the caller unchanged.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 250 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 10 * time.Second
	}
	if config.JitterFraction <= 0 {
		config.JitterFraction = 0.2
	}
	if config.RetryIf == nil {
		config.RetryIf = Retryable
	}

	return &Retry{config: config}
}

// Execute runs op with retry logic.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	return r.Do(ctx, op, r.config.OnRetry)
}

// Do runs op with retry logic, reporting each retry to observe. When
// observe is nil the configured OnRetry hook is used instead.
func (r *Retry) Do(ctx context.Context, op func(context.Context) error, observe func(attempt int, err error, delay time.Duration)) error {
	if observe == nil {
		observe = r.config.OnRetry
	}

	schedule := r.newSchedule()
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := schedule.NextBackOff()
		if hint, ok := RetryAfterHint(err); ok {
			delay = hint
		}

		if observe != nil {
			observe(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return mapContextErr(ctx.Err())
		case <-timer.C:
		}
	}

	return lastErr
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// newSchedule builds the per-execution backoff schedule:
// min(MaxDelay, BaseDelay*2^(attempt-1)) randomized by ±JitterFraction.
func (r *Retry) newSchedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.BaseDelay
	b.MaxInterval = r.config.MaxDelay
	b.Multiplier = 2.0
	b.RandomizationFactor = r.config.JitterFraction
	b.Reset()
	return b
}
