// Package resilience mediates every outbound call to the downstream GitHub
// API behind one execution pipeline.
//
// The downstream API enforces strict, low rate limits and serializes
// requests, while callers are many: concurrent tool invocations from
// several independent review sessions. The pipeline guarantees the API is
// never called beyond its budget, recovers transparently from transient
// failures, stops traffic to an API that is clearly down, and services
// independent callers fairly.
//
// # Components
//
//   - Queue: grants execution slots round-robin across caller IDs, FIFO
//     within a caller, bounded by the downstream concurrency budget.
//
//   - RateLimiter: a lazily refilled token bucket bounding throughput to a
//     fixed number of tokens per window.
//
//   - Breaker: a consecutive-failure circuit breaker that fails fast while
//     the API is down and recovers through a single half-open probe.
//
//   - Retry: classifies failures and retries transient ones with
//     exponential backoff, jitter, and server-supplied retry-after hints.
//
//   - Executor: composes the above into one Execute entry point with a
//     single deadline spanning queue wait, limiter wait, and all attempts.
//
// # Usage
//
//	exec := resilience.NewExecutor(resilience.ExecutorConfig{
//	    Queue:     resilience.QueueConfig{Concurrency: 1},
//	    RateLimit: resilience.RateLimiterConfig{Capacity: 60, Window: time.Minute},
//	    Breaker:   resilience.BreakerConfig{FailureThreshold: 5, Cooldown: 30 * time.Second},
//	    Retry:     resilience.RetryConfig{MaxAttempts: 3},
//	})
//
//	err := exec.Execute(ctx, sessionID, func(ctx context.Context) error {
//	    return callGitHub(ctx)
//	})
//
// Failures surface as typed errors (RateLimitedError, ErrCircuitOpen,
// ErrCircuitHalfOpenBusy, ErrTimeout) or as the operation's own terminal
// error, unchanged. Translating them into user-facing text is the caller's
// job.
package resilience
