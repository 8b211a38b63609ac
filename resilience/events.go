package resilience

import (
	"context"
	"time"
)

// EventKind identifies a pipeline lifecycle event.
type EventKind int

const (
	// EventQueued fires when a request enters the queue.
	EventQueued EventKind = iota
	// EventDequeued fires when a request is granted its execution slot.
	EventDequeued
	// EventRateLimited fires when the limiter rejects a request.
	EventRateLimited
	// EventRetried fires before each retry backoff sleep.
	EventRetried
	// EventBreakerStateChange fires on every circuit transition.
	EventBreakerStateChange
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventQueued:
		return "queued"
	case EventDequeued:
		return "dequeued"
	case EventRateLimited:
		return "rate-limited"
	case EventRetried:
		return "retried"
	case EventBreakerStateChange:
		return "breaker-state-change"
	default:
		return "unknown"
	}
}

// Event describes one pipeline lifecycle transition. The pipeline emits
// events to an external sink and never writes to a user-visible channel
// itself.
type Event struct {
	Kind        EventKind
	ExecutionID string
	CallerID    string

	// Wait is the queue wait for EventDequeued, the suggested retry delay
	// for EventRateLimited, and the backoff sleep for EventRetried.
	Wait time.Duration

	// Attempt is the 1-based physical attempt for EventRetried.
	Attempt int

	// Err carries the failure for EventRateLimited and EventRetried.
	Err error

	// From and To carry the transition for EventBreakerStateChange.
	From State
	To   State
}

// Emitter receives pipeline lifecycle events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: emission must be best-effort and must not panic.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// EmitterFunc is an adapter to allow ordinary functions to be used as Emitters.
type EmitterFunc func(ctx context.Context, ev Event)

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// NopEmitter discards all events.
type NopEmitter struct{}

// Emit does nothing.
func (NopEmitter) Emit(context.Context, Event) {}
