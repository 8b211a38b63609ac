package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestObserverContract_Noops verifies a disabled observer satisfies the contract.
func TestObserverContract_Noops(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "reviewops"})
	if err != nil {
		t.Fatalf("failed to create observer: %v", err)
	}

	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("observer components must never be nil")
	}

	// Shutdown is idempotent.
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("first shutdown failed: %v", err)
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown failed: %v", err)
	}
}

// TestLoggerContract_WithCall verifies WithCall returns a usable logger.
func TestLoggerContract_WithCall(t *testing.T) {
	logger := NopLogger()
	derived := logger.WithCall(CallMeta{Operation: "get_pull_request"})
	if derived == nil {
		t.Fatal("WithCall must return a non-nil logger")
	}
	derived.Info(context.Background(), "test")
}

// TestMetricsContract_NoPanic verifies the no-op metrics never panic.
func TestMetricsContract_NoPanic(t *testing.T) {
	m := NopMetrics()
	m.RecordCall(context.Background(), CallMeta{}, time.Second, errors.New("x"))
}

// TestTracerContract_NoPanic verifies the no-op tracer never panics.
func TestTracerContract_NoPanic(t *testing.T) {
	tr := NewNoopTracer()
	_, span := tr.StartSpan(context.Background(), CallMeta{Operation: "op"})
	tr.EndSpan(span, errors.New("x"))
}
