package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("x")}})
	require.NotEmpty(t, HeaderValue(headers, TraceparentHeader))
	assert.Equal(t, "x", HeaderValue(headers, "event_type"))
	assert.Equal(t, Traceparent(ctx), HeaderValue(headers, TraceparentHeader))

	extracted := ExtractKafkaHeaders(context.Background(), headers)
	sc := trace.SpanContextFromContext(extracted)
	assert.Equal(t, span.SpanContext().TraceID(), sc.TraceID())
}

func TestHeaderValueMissing(t *testing.T) {
	assert.Empty(t, HeaderValue(nil, "traceparent"))
	assert.Empty(t, Traceparent(context.Background()))
}
