package tracing

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestMessageAttributesRoundTripTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "send")
	defer span.End()

	attrs := InjectMessageAttributes(ctx, nil)
	require.Contains(t, attrs, "traceparent")
	assert.Equal(t, "String", aws.ToString(attrs["traceparent"].DataType))

	received := map[string]string{"traceparent": aws.ToString(attrs["traceparent"].StringValue)}
	extracted := ExtractMessageAttributes(context.Background(), received)

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceID(extracted))
}

func TestExtractMessageAttributes_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ExtractMessageAttributes(ctx, nil))
	assert.Equal(t, "", TraceID(ctx))
}
