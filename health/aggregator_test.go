package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func healthyChecker(name string) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		return Healthy("ok")
	})
}

func TestAggregator_RegisterAndNames(t *testing.T) {
	agg := NewAggregator()
	agg.Register("breaker", healthyChecker("breaker"))
	agg.Register("ratelimit", healthyChecker("ratelimit"))
	agg.Register("breaker", healthyChecker("breaker")) // replacement, not duplicate

	names := agg.CheckerNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 checkers, got %d: %v", len(names), names)
	}
	if names[0] != "breaker" || names[1] != "ratelimit" {
		t.Errorf("expected registration order preserved, got %v", names)
	}
}

func TestAggregator_Unregister(t *testing.T) {
	agg := NewAggregator()
	agg.Register("breaker", healthyChecker("breaker"))
	agg.Register("ratelimit", healthyChecker("ratelimit"))

	agg.Unregister("breaker")

	names := agg.CheckerNames()
	if len(names) != 1 || names[0] != "ratelimit" {
		t.Errorf("expected only ratelimit, got %v", names)
	}

	if _, err := agg.Check(context.Background(), "breaker"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("expected ErrCheckerNotFound, got %v", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register("ok", healthyChecker("ok"))
	agg.Register("slow", NewCheckerFunc("slow", func(ctx context.Context) Result {
		return Degraded("budget low")
	}))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results["ok"].Status != StatusHealthy {
		t.Errorf("expected ok healthy, got %v", results["ok"].Status)
	}
	if results["slow"].Status != StatusDegraded {
		t.Errorf("expected slow degraded, got %v", results["slow"].Status)
	}
}

func TestAggregator_CheckAllSequential(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Parallel: false, Timeout: time.Second})
	agg.Register("a", healthyChecker("a"))
	agg.Register("b", healthyChecker("b"))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestAggregator_CheckAllEmpty(t *testing.T) {
	agg := NewAggregator()
	results := agg.CheckAll(context.Background())
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
	if agg.OverallStatus(results) != StatusHealthy {
		t.Error("expected healthy overall with no checkers")
	}
}

func TestAggregator_CheckTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register("stuck", NewCheckerFunc("stuck", func(ctx context.Context) Result {
		select {
		case <-time.After(time.Second):
			return Healthy("too late")
		case <-ctx.Done():
			return Unhealthy("canceled", ctx.Err())
		}
	}))

	results := agg.CheckAll(context.Background())
	result := results["stuck"]
	if result.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy on timeout, got %v", result.Status)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator()

	tests := []struct {
		name     string
		results  map[string]Result
		expected Status
	}{
		{
			name: "all healthy",
			results: map[string]Result{
				"a": {Status: StatusHealthy},
				"b": {Status: StatusHealthy},
			},
			expected: StatusHealthy,
		},
		{
			name: "one degraded",
			results: map[string]Result{
				"a": {Status: StatusHealthy},
				"b": {Status: StatusDegraded},
			},
			expected: StatusDegraded,
		},
		{
			name: "unhealthy wins",
			results: map[string]Result{
				"a": {Status: StatusDegraded},
				"b": {Status: StatusUnhealthy},
			},
			expected: StatusUnhealthy,
		},
		{
			name:     "empty",
			results:  map[string]Result{},
			expected: StatusHealthy,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := agg.OverallStatus(tc.results); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestAggregator_CompositeChecker(t *testing.T) {
	inner := NewAggregator()
	inner.Register("a", healthyChecker("a"))
	inner.Register("b", NewCheckerFunc("b", func(ctx context.Context) Result {
		return Degraded("low")
	}))

	composite := inner.Checker()
	if composite.Name() != "aggregate" {
		t.Errorf("expected name 'aggregate', got %q", composite.Name())
	}

	result := composite.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("expected degraded composite, got %v", result.Status)
	}
	if len(result.Details) != 2 {
		t.Errorf("expected 2 detail entries, got %d", len(result.Details))
	}
}
