package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExecutorConfig configures the pipeline executor.
type ExecutorConfig struct {
	// Queue configures fairness and the downstream concurrency budget.
	Queue QueueConfig

	// RateLimit configures the token bucket.
	RateLimit RateLimiterConfig

	// Breaker configures the circuit breaker.
	Breaker BreakerConfig

	// Retry configures backoff for transient failures.
	Retry RetryConfig

	// DefaultTimeout is the overall deadline applied when the caller's
	// context carries none. It spans queue wait, limiter wait, and all
	// retry attempts.
	// Default: 60 seconds
	DefaultTimeout time.Duration

	// Emitter receives lifecycle events. Default: NopEmitter.
	Emitter Emitter
}

// Executor composes the queue, rate limiter, circuit breaker, and retry
// policy into the single entry point used by every outbound call. It is an
// explicit handle constructed once at startup; there is no package-level
// state.
//
// A request flows: queue (wait for turn) -> rate limiter (wait for tokens)
// -> circuit breaker (fail fast if open) -> retry-wrapped operation. The
// queue slot is held for the entire logical request, including backoff
// sleeps between attempts, which preserves the downstream concurrency
// guarantee at the cost of one slow caller delaying others.
type Executor struct {
	queue   *Queue
	limiter *RateLimiter
	breaker *Breaker
	retry   *Retry

	defaultTimeout time.Duration
	emitter        Emitter
}

// NewExecutor creates an executor from its component configurations.
func NewExecutor(config ExecutorConfig) *Executor {
	// Apply defaults
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 60 * time.Second
	}
	if config.Emitter == nil {
		config.Emitter = NopEmitter{}
	}

	e := &Executor{
		queue:          NewQueue(config.Queue),
		limiter:        NewRateLimiter(config.RateLimit),
		retry:          NewRetry(config.Retry),
		defaultTimeout: config.DefaultTimeout,
		emitter:        config.Emitter,
	}

	breakerCfg := config.Breaker
	userHook := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to State) {
		e.emitter.Emit(context.Background(), Event{
			Kind: EventBreakerStateChange,
			From: from,
			To:   to,
		})
		if userHook != nil {
			userHook(from, to)
		}
	}
	e.breaker = NewBreaker(breakerCfg)

	return e
}

// Execute runs op through the full pipeline on behalf of callerID. The
// context's deadline (or DefaultTimeout when absent) bounds the entire
// logical request; on expiry queued work is dropped, in-flight work is
// abandoned via context cancellation, and the queue slot is released.
//
// Every failure is one of the typed pipeline errors or the operation's own
// terminal error, returned unchanged.
func (e *Executor) Execute(ctx context.Context, callerID string, op func(context.Context) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.defaultTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	enqueuedAt := time.Now()
	e.emit(ctx, Event{Kind: EventQueued, ExecutionID: id, CallerID: callerID})

	release, err := e.queue.Acquire(ctx, callerID)
	if err != nil {
		return err
	}
	defer release()

	e.emit(ctx, Event{
		Kind:        EventDequeued,
		ExecutionID: id,
		CallerID:    callerID,
		Wait:        time.Since(enqueuedAt),
	})

	if err := e.limiter.Acquire(ctx); err != nil {
		ev := Event{Kind: EventRateLimited, ExecutionID: id, CallerID: callerID, Err: err}
		if rl, ok := err.(*RateLimitedError); ok {
			ev.Wait = rl.RetryAfter
		}
		e.emit(ctx, ev)
		return err
	}

	err = e.retry.Do(ctx, e.gated(op), func(attempt int, attemptErr error, delay time.Duration) {
		e.emit(ctx, Event{
			Kind:        EventRetried,
			ExecutionID: id,
			CallerID:    callerID,
			Attempt:     attempt,
			Err:         attemptErr,
			Wait:        delay,
		})
	})
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		// The overall deadline expired mid-attempt; surface the typed
		// timeout rather than a bare context error.
		return ErrTimeout
	}
	return err
}

// Breaker returns the executor's circuit breaker handle.
func (e *Executor) Breaker() *Breaker { return e.breaker }

// RateLimiter returns the executor's token bucket handle.
func (e *Executor) RateLimiter() *RateLimiter { return e.limiter }

// Queue returns the executor's request queue handle.
func (e *Executor) Queue() *Queue { return e.queue }

// Reset restores the breaker and limiter to their initial state. Intended
// for test isolation.
func (e *Executor) Reset() {
	e.breaker.Reset()
	e.limiter.Reset()
}

// Close shuts down the queue; pending waiters fail with ErrQueueClosed.
func (e *Executor) Close() {
	e.queue.Close()
}

// gated wraps op so every physical attempt consults the breaker first and
// reports its outcome after. Breaker rejections are terminal for the retry
// loop since they carry no Retryable marker.
func (e *Executor) gated(op func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := e.breaker.Allow(); err != nil {
			return err
		}
		err := op(ctx)
		e.breaker.Record(err)
		return err
	}
}

func (e *Executor) emit(ctx context.Context, ev Event) {
	e.emitter.Emit(ctx, ev)
}
