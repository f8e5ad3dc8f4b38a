package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartTrialSpan opens a span covering one concurrency-level trial.
func StartTrialSpan(ctx context.Context, tracer trace.Tracer, operation string, threadCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("trial threads=%d", threadCount),
		trace.WithAttributes(
			attribute.String("fsbench.operation", operation),
			attribute.Int("fsbench.threads", threadCount),
		),
	)
}

// EndTrialSpan records the trial outcome and closes the span.
func EndTrialSpan(span trace.Span, ioBytes int64, errorCount int, mbps float64) {
	span.SetAttributes(
		attribute.Int64("fsbench.io_bytes", ioBytes),
		attribute.Int("fsbench.errors", errorCount),
		attribute.Float64("fsbench.throughput_mbps", mbps),
	)
	if errorCount > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d workers reported errors", errorCount))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
