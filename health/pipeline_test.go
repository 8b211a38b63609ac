package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/reviewops/auth"
	"github.com/jonwraymond/reviewops/resilience"
)

type downstreamErr struct{}

func (downstreamErr) Error() string    { return "bad gateway" }
func (downstreamErr) Retryable() bool  { return true }
func (downstreamErr) Downstream() bool { return true }

func TestBreakerChecker_Closed(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{FailureThreshold: 3})
	checker := NewBreakerChecker(breaker)

	if checker.Name() != "breaker" {
		t.Errorf("expected name 'breaker', got %q", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy for closed breaker, got %v", result.Status)
	}
	if result.Details["state"] != "closed" {
		t.Errorf("expected state detail 'closed', got %v", result.Details["state"])
	}
}

func TestBreakerChecker_Open(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})
	for i := 0; i < 2; i++ {
		if err := breaker.Allow(); err != nil {
			t.Fatalf("allow failed: %v", err)
		}
		breaker.Record(downstreamErr{})
	}

	result := NewBreakerChecker(breaker).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy for open breaker, got %v", result.Status)
	}
	if !errors.Is(result.Error, ErrCheckFailed) {
		t.Errorf("expected ErrCheckFailed, got %v", result.Error)
	}
}

func TestBreakerChecker_HalfOpen(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: 1,
		Cooldown:         time.Millisecond,
	})
	if err := breaker.Allow(); err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	breaker.Record(downstreamErr{})

	time.Sleep(5 * time.Millisecond)
	// First Allow after cooldown becomes the probe and moves to half-open.
	if err := breaker.Allow(); err != nil {
		t.Fatalf("probe allow failed: %v", err)
	}

	result := NewBreakerChecker(breaker).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("expected degraded for half-open breaker, got %v", result.Status)
	}
}

func TestLimiterChecker_FullBucket(t *testing.T) {
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Capacity: 10,
		Window:   time.Hour,
	})
	checker := NewLimiterChecker(limiter, 0.1)

	if checker.Name() != "ratelimit" {
		t.Errorf("expected name 'ratelimit', got %q", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy with full bucket, got %v: %s", result.Status, result.Message)
	}
}

func TestLimiterChecker_LowBudget(t *testing.T) {
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Capacity: 10,
		Window:   time.Hour, // effectively no refill during the test
		MaxWait:  time.Millisecond,
	})
	for i := 0; i < 10; i++ {
		if err := limiter.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}

	result := NewLimiterChecker(limiter, 0.5).Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("expected degraded with drained bucket, got %v: %s", result.Status, result.Message)
	}
}

func TestTokenChecker_Available(t *testing.T) {
	checker := NewTokenChecker(auth.NewStaticTokenSource("ghs_test"))

	if checker.Name() != "credentials" {
		t.Errorf("expected name 'credentials', got %q", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy, got %v", result.Status)
	}
}

func TestTokenChecker_Failure(t *testing.T) {
	checker := NewTokenChecker(auth.NewStaticTokenSource(""))

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy for empty token, got %v", result.Status)
	}
	if !errors.Is(result.Error, auth.ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", result.Error)
	}
}

func TestAPIChecker_Reachable(t *testing.T) {
	checker := NewAPIChecker("github", func(ctx context.Context) error { return nil })

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy, got %v", result.Status)
	}
}

func TestAPIChecker_Unreachable(t *testing.T) {
	pingErr := errors.New("dial tcp: connection refused")
	checker := NewAPIChecker("github", func(ctx context.Context) error { return pingErr })

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %v", result.Status)
	}
	if !errors.Is(result.Error, pingErr) {
		t.Errorf("expected ping error, got %v", result.Error)
	}
}

func TestAPIChecker_DownstreamFailureIsDegraded(t *testing.T) {
	checker := NewAPIChecker("github", func(ctx context.Context) error { return downstreamErr{} })

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("expected degraded for downstream failure, got %v", result.Status)
	}
}

func TestAPIChecker_DefaultName(t *testing.T) {
	checker := NewAPIChecker("", func(ctx context.Context) error { return nil })
	if checker.Name() != "github" {
		t.Errorf("expected default name 'github', got %q", checker.Name())
	}
}
