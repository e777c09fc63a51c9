// Package observability wires OpenTelemetry tracing and metrics for pipeline
// runs.
//
// Exporters are only created when an OTLP endpoint is configured; otherwise
// the global no-op providers stay in place and spans and instruments cost
// nothing.
//
//	shutdown, err := observability.Setup(ctx, cfg.Tracing, "pipekit", version.Version)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStep)
//	defer span.End()
package observability
