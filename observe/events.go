package observe

import (
	"context"

	"github.com/jonwraymond/reviewops/resilience"
)

// PipelineEmitter adapts pipeline lifecycle events into metrics and logs.
// It implements resilience.Emitter.
type PipelineEmitter struct {
	metrics Metrics
	logger  Logger
}

// NewPipelineEmitter creates an emitter feeding the given metrics and logger.
// Nil components are replaced with no-ops.
func NewPipelineEmitter(metrics Metrics, logger Logger) *PipelineEmitter {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &PipelineEmitter{
		metrics: metrics,
		logger:  logger,
	}
}

// EmitterFromObserver wires an observer's meter and logger into a
// pipeline emitter.
func EmitterFromObserver(obs Observer) (*PipelineEmitter, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewPipelineEmitter(metrics, obs.Logger()), nil
}

// Emit records one pipeline event.
func (e *PipelineEmitter) Emit(ctx context.Context, ev resilience.Event) {
	switch ev.Kind {
	case resilience.EventDequeued:
		e.metrics.RecordQueueWait(ctx, ev.CallerID, ev.Wait)
		e.logger.Debug(ctx, "request dequeued",
			Field{Key: "session", Value: ev.CallerID},
			Field{Key: "execution_id", Value: ev.ExecutionID},
			Field{Key: "wait_ms", Value: float64(ev.Wait.Milliseconds())},
		)

	case resilience.EventRateLimited:
		e.metrics.RecordRateLimited(ctx, ev.CallerID)
		e.logger.Warn(ctx, "request rate limited",
			Field{Key: "session", Value: ev.CallerID},
			Field{Key: "execution_id", Value: ev.ExecutionID},
			Field{Key: "retry_after_ms", Value: float64(ev.Wait.Milliseconds())},
		)

	case resilience.EventRetried:
		e.metrics.RecordRetry(ctx, ev.CallerID, ev.Attempt)
		fields := []Field{
			{Key: "session", Value: ev.CallerID},
			{Key: "execution_id", Value: ev.ExecutionID},
			{Key: "attempt", Value: ev.Attempt},
			{Key: "delay_ms", Value: float64(ev.Wait.Milliseconds())},
		}
		if ev.Err != nil {
			fields = append(fields, Field{Key: "error", Value: ev.Err.Error()})
		}
		e.logger.Info(ctx, "attempt failed, retrying", fields...)

	case resilience.EventBreakerStateChange:
		e.metrics.RecordBreakerTransition(ctx, ev.From.String(), ev.To.String())
		e.logger.Warn(ctx, "circuit breaker state changed",
			Field{Key: "from", Value: ev.From.String()},
			Field{Key: "to", Value: ev.To.String()},
		)

	case resilience.EventQueued:
		e.logger.Debug(ctx, "request queued",
			Field{Key: "session", Value: ev.CallerID},
			Field{Key: "execution_id", Value: ev.ExecutionID},
		)
	}
}

// Ensure PipelineEmitter implements resilience.Emitter
var _ resilience.Emitter = (*PipelineEmitter)(nil)
