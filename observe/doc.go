// Package observe provides telemetry for the outbound GitHub pipeline:
// OpenTelemetry tracing and metrics, structured JSON logging with secret
// redaction, and an event adapter that turns pipeline lifecycle events
// (queueing, rate limiting, retries, breaker transitions) into metrics
// and logs.
//
// # Usage
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//		ServiceName: "reviewops",
//		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer obs.Shutdown(ctx)
//
//	emitter, err := observe.EmitterFromObserver(obs)
package observe
