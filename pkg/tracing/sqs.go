package tracing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sqsbackoff"

// InjectMessageAttributes writes the current trace context into SQS message
// attributes. SQS allows at most 10 attributes per message, so existing keys
// are kept and only propagation keys are added.
func InjectMessageAttributes(ctx context.Context, attrs map[string]sqstypes.MessageAttributeValue) map[string]sqstypes.MessageAttributeValue {
	if attrs == nil {
		attrs = make(map[string]sqstypes.MessageAttributeValue)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		attrs[k] = sqstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}

	return attrs
}

// ExtractMessageAttributes reads a trace context from string message attributes.
func ExtractMessageAttributes(ctx context.Context, attrs map[string]string) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(attrs))
}

func StartBatchSpan(ctx context.Context, queue string, size int) (context.Context, trace.Span) {
	return GetTracer(tracerName).Start(ctx, "sqs.batch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "aws_sqs"),
			attribute.String("messaging.destination.name", queue),
			attribute.Int("messaging.batch.message_count", size),
		),
	)
}

// StartMessageSpan continues the producer's trace when the message carries one.
func StartMessageSpan(ctx context.Context, messageID string, attrs map[string]string) (context.Context, trace.Span) {
	ctx = ExtractMessageAttributes(ctx, attrs)
	return GetTracer(tracerName).Start(ctx, "sqs.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.message.id", messageID),
		),
	)
}

// TraceID returns the hex trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
