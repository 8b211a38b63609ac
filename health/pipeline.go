package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/reviewops/auth"
	"github.com/jonwraymond/reviewops/resilience"
)

// BreakerChecker reports the circuit breaker state.
// Open maps to unhealthy, half-open to degraded, closed to healthy.
type BreakerChecker struct {
	breaker *resilience.Breaker
}

// NewBreakerChecker creates a checker over the given breaker.
func NewBreakerChecker(b *resilience.Breaker) *BreakerChecker {
	return &BreakerChecker{breaker: b}
}

func (c *BreakerChecker) Name() string { return "breaker" }

func (c *BreakerChecker) Check(ctx context.Context) Result {
	snap := c.breaker.Snapshot()

	details := map[string]any{
		"state":                snap.State.String(),
		"consecutive_failures": snap.ConsecutiveFailures,
	}
	if !snap.OpenedAt.IsZero() {
		details["opened_at"] = snap.OpenedAt.UTC().Format(time.RFC3339)
	}

	switch snap.State {
	case resilience.StateOpen:
		return Unhealthy("circuit breaker is open", ErrCheckFailed).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit breaker is probing recovery").WithDetails(details)
	default:
		return Healthy("circuit breaker is closed").WithDetails(details)
	}
}

// LimiterChecker reports rate limiter headroom. The checker degrades when
// the available token fraction drops below the configured threshold.
type LimiterChecker struct {
	limiter   *resilience.RateLimiter
	threshold float64
}

// NewLimiterChecker creates a checker over the given limiter. threshold is
// the token fraction below which the checker reports degraded; values
// outside (0, 1) default to 0.1.
func NewLimiterChecker(rl *resilience.RateLimiter, threshold float64) *LimiterChecker {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.1
	}
	return &LimiterChecker{limiter: rl, threshold: threshold}
}

func (c *LimiterChecker) Name() string { return "ratelimit" }

func (c *LimiterChecker) Check(ctx context.Context) Result {
	tokens := c.limiter.Tokens()
	capacity := c.limiter.Capacity()

	details := map[string]any{
		"tokens":   tokens,
		"capacity": capacity,
	}

	if capacity <= 0 {
		return Healthy("rate limiter has no capacity bound").WithDetails(details)
	}

	fraction := tokens / capacity
	details["fraction"] = fraction

	if fraction < c.threshold {
		return Degraded(
			fmt.Sprintf("rate limit budget low: %.0f%% remaining", fraction*100),
		).WithDetails(details)
	}
	return Healthy(
		fmt.Sprintf("rate limit budget ok: %.0f%% remaining", fraction*100),
	).WithDetails(details)
}

// TokenChecker verifies that API credentials can be produced.
type TokenChecker struct {
	source auth.TokenSource
}

// NewTokenChecker creates a checker over the given token source.
func NewTokenChecker(source auth.TokenSource) *TokenChecker {
	return &TokenChecker{source: source}
}

func (c *TokenChecker) Name() string { return "credentials" }

func (c *TokenChecker) Check(ctx context.Context) Result {
	if _, err := c.source.Token(ctx); err != nil {
		return Unhealthy("credential source failed", err)
	}
	return Healthy("credentials available")
}

// PingFunc probes a remote dependency, returning nil when reachable.
type PingFunc func(ctx context.Context) error

// APIChecker reports whether the GitHub API is reachable through the
// provided ping function.
type APIChecker struct {
	name string
	ping PingFunc
}

// NewAPIChecker creates a checker that runs the given ping on each check.
func NewAPIChecker(name string, ping PingFunc) *APIChecker {
	if name == "" {
		name = "github"
	}
	return &APIChecker{name: name, ping: ping}
}

func (c *APIChecker) Name() string { return c.name }

func (c *APIChecker) Check(ctx context.Context) Result {
	if err := c.ping(ctx); err != nil {
		if resilience.Downstream(err) {
			return Degraded("api reachable but failing: " + err.Error())
		}
		return Unhealthy("api unreachable", err)
	}
	return Healthy("api reachable")
}
