package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta describes one outbound API call for telemetry purposes.
type CallMeta struct {
	Session   string // Caller session ID (fairness key; may be empty)
	Operation string // API operation name, e.g. "get_pull_request" (required)
	Owner     string // Repository owner (optional)
	Repo      string // Repository name (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: github.call.<operation>
func (m CallMeta) SpanName() string {
	return "github.call." + m.Operation
}

// SessionID returns the session, falling back to "default" when callers
// did not identify themselves.
func (m CallMeta) SessionID() string {
	if m.Session == "" {
		return "default"
	}
	return m.Session
}

// Tracer wraps OpenTelemetry tracing with call-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an outbound call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("call.operation", meta.Operation),
		attribute.String("call.session", meta.SessionID()),
		attribute.Bool("call.error", false), // Will be updated in EndSpan if error
	}

	if meta.Owner != "" {
		attrs = append(attrs, attribute.String("call.owner", meta.Owner))
	}
	if meta.Repo != "" {
		attrs = append(attrs, attribute.String("call.repo", meta.Repo))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
