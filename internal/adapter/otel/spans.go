package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "verigate"

// StartIngestSpan starts a span covering scoring, routing and persistence of
// one submitted document.
func StartIngestSpan(ctx context.Context, filename string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("document.filename", filename),
		),
	)
}

// StartDecideSpan starts a span for a human decision on a case.
func StartDecideSpan(ctx context.Context, caseID, outcome string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decide",
		trace.WithAttributes(
			attribute.String("case.id", caseID),
			attribute.String("decision.outcome", outcome),
		),
	)
}
