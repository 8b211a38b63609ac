package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for pipeline rejections. Callers translate these into
// user-facing text; the pipeline itself never renders messages.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open and the
	// cooldown has not elapsed. No network attempt is made.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrCircuitHalfOpenBusy is returned when the breaker is half-open and
	// another caller already holds the single probe slot.
	ErrCircuitHalfOpenBusy = errors.New("resilience: circuit breaker probe in flight, retry later")

	// ErrTimeout is returned when the overall deadline for a logical request
	// elapses, whether queued, waiting for tokens, or between attempts.
	ErrTimeout = errors.New("resilience: deadline exceeded")

	// ErrQueueClosed is returned when work is submitted to a closed queue.
	ErrQueueClosed = errors.New("resilience: queue closed")
)

// RateLimitedError is returned when the rate limiter cannot admit a request
// within its wait budget, or when the downstream API rejects a request for
// rate reasons. RetryAfter is the suggested wait before trying again.
type RateLimitedError struct {
	// RetryAfter is how long the caller should wait before retrying.
	RetryAfter time.Duration

	// Remote is true when the rejection came from the downstream API rather
	// than the local limiter.
	Remote bool
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("resilience: rate limited, retry after %s", e.RetryAfter)
}

// Retryable marks rate-limit rejections as transient.
func (e *RateLimitedError) Retryable() bool { return true }

// Downstream reports whether the rejection counts toward the circuit breaker.
// Local limiter rejections never reach the network, so they do not.
func (e *RateLimitedError) Downstream() bool { return e.Remote }

// RetryAfterHint returns the suggested wait carried by the rejection.
func (e *RateLimitedError) RetryAfterHint() (time.Duration, bool) {
	return e.RetryAfter, e.RetryAfter > 0
}

// Retryable reports whether err describes a transient failure worth retrying.
// An error opts in by implementing Retryable() bool anywhere in its chain.
// Unknown errors are terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// Downstream reports whether err describes a downstream failure (timeout,
// network error, 5xx) that should count toward the circuit breaker. Errors
// opt in by implementing Downstream() bool; otherwise retryability is used
// as the signal.
func Downstream(err error) bool {
	if err == nil {
		return false
	}
	var d interface{ Downstream() bool }
	if errors.As(err, &d) {
		return d.Downstream()
	}
	return Retryable(err)
}

// RetryAfterHint extracts a server-suggested retry delay from err, if any.
// The hint overrides the computed backoff delay.
func RetryAfterHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var h interface {
		RetryAfterHint() (time.Duration, bool)
	}
	if errors.As(err, &h) {
		return h.RetryAfterHint()
	}
	return 0, false
}
