package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records pipeline and call metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one logical API call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordQueueWait records how long a caller waited for its turn.
	RecordQueueWait(ctx context.Context, session string, wait time.Duration)

	// RecordRateLimited records a rate-limit rejection.
	RecordRateLimited(ctx context.Context, session string)

	// RecordRetry records one retry of a failed attempt.
	RecordRetry(ctx context.Context, session string, attempt int)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, from, to string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	callTotal     metric.Int64Counter
	callErrors    metric.Int64Counter
	callDuration  metric.Float64Histogram
	queueWait     metric.Float64Histogram
	rateLimited   metric.Int64Counter
	retries       metric.Int64Counter
	breakerMoves  metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	callTotal, err := meter.Int64Counter(
		"github.call.total",
		metric.WithDescription("Total number of outbound API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callErrors, err := meter.Int64Counter(
		"github.call.errors",
		metric.WithDescription("Total number of failed API calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	callDuration, err := meter.Float64Histogram(
		"github.call.duration_ms",
		metric.WithDescription("API call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queueWait, err := meter.Float64Histogram(
		"pipeline.queue.wait_ms",
		metric.WithDescription("Time spent waiting for a queue slot in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	rateLimited, err := meter.Int64Counter(
		"pipeline.ratelimit.rejections",
		metric.WithDescription("Requests rejected by the local rate limiter"),
		metric.WithUnit("{rejection}"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"pipeline.retries",
		metric.WithDescription("Retries of failed attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	breakerMoves, err := meter.Int64Counter(
		"pipeline.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		callTotal:    callTotal,
		callErrors:   callErrors,
		callDuration: callDuration,
		queueWait:    queueWait,
		rateLimited:  rateLimited,
		retries:      retries,
		breakerMoves: breakerMoves,
	}, nil
}

// RecordCall records metrics for one logical API call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("call.operation", meta.Operation),
		attribute.String("call.session", meta.SessionID()),
	}
	opt := metric.WithAttributes(attrs...)

	m.callTotal.Add(ctx, 1, opt)
	if err != nil {
		m.callErrors.Add(ctx, 1, opt)
	}
	m.callDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordQueueWait(ctx context.Context, session string, wait time.Duration) {
	m.queueWait.Record(ctx, float64(wait.Milliseconds()),
		metric.WithAttributes(attribute.String("call.session", session)))
}

func (m *metricsImpl) RecordRateLimited(ctx context.Context, session string) {
	m.rateLimited.Add(ctx, 1,
		metric.WithAttributes(attribute.String("call.session", session)))
}

func (m *metricsImpl) RecordRetry(ctx context.Context, session string, attempt int) {
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("call.session", session),
		attribute.Int("attempt", attempt),
	))
}

func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, from, to string) {
	m.breakerMoves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// NopMetrics returns a metrics implementation that does nothing.
func NopMetrics() Metrics {
	return &noopMetrics{}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(context.Context, CallMeta, time.Duration, error)  {}
func (m *noopMetrics) RecordQueueWait(context.Context, string, time.Duration)      {}
func (m *noopMetrics) RecordRateLimited(context.Context, string)                   {}
func (m *noopMetrics) RecordRetry(context.Context, string, int)                    {}
func (m *noopMetrics) RecordBreakerTransition(context.Context, string, string)     {}
