// Package health reports the health of the outbound GitHub pipeline.
//
// A Checker reports the state of one component: the circuit breaker, the
// local rate limiter, the credential source, or the GitHub API itself.
// The Aggregator combines registered checkers into a composite status and
// the HTTP handlers expose liveness, readiness, and detailed endpoints.
//
// # Basic Usage
//
//	agg := health.NewAggregator()
//	agg.Register("breaker", health.NewBreakerChecker(exec.Breaker()))
//	agg.Register("ratelimit", health.NewLimiterChecker(exec.RateLimiter(), 0.1))
//	agg.Register("credentials", health.NewTokenChecker(tokens))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// This registers /healthz (liveness), /readyz (readiness), and /health
// (detailed JSON).
package health
