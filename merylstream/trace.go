package merylstream

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startSpan starts a span on tracer, or returns a no-op span when tracing
// is not configured.
func startSpan(tracer trace.Tracer, name string, attrs ...attribute.KeyValue) trace.Span {
	if tracer == nil {
		return trace.SpanFromContext(context.Background())
	}
	_, span := tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))
	return span
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
