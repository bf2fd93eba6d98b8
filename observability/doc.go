// Package observability provides OpenTelemetry tracing and metrics for the
// resolution engine.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "resolve.database")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-service"))
//	metrics.RecordConstruction(ctx, "database", "app", "ok", duration)
package observability
