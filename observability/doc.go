// Package observability provides OpenTelemetry tracing and metrics for the
// cache server, the cache stores and the build engine.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("rulekit-cache"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanCacheGet)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("rulekit"))
//	metrics.RecordCacheLookup(ctx, "disk", true)
//	metrics.RecordNode(ctx, "compile", "ok", duration)
//
// Health:
//
//	health := observability.NewServiceHealth("rulekit-cache", version.Short())
//	health.Check(ctx, store)
package observability
