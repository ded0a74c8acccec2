package logging

import (
	"context"
)

type ctxKey string

const (
	TraceIDKey      = "trace_id"
	MessageIDKey    = "message_id"
	ServiceNameKey  = "service_name"
	QueueKey        = "queue"
	ReceiveCountKey = "receive_count"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey(TraceIDKey), traceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, ctxKey(MessageIDKey), messageID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ctxKey(ServiceNameKey), serviceName)
}

func WithQueue(ctx context.Context, queue string) context.Context {
	return context.WithValue(ctx, ctxKey(QueueKey), queue)
}

func WithReceiveCount(ctx context.Context, count int) context.Context {
	return context.WithValue(ctx, ctxKey(ReceiveCountKey), count)
}

func stringValue(ctx context.Context, key string) string {
	if v, ok := ctx.Value(ctxKey(key)).(string); ok {
		return v
	}
	return ""
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func GetMessageID(ctx context.Context) string {
	return stringValue(ctx, MessageIDKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func GetQueue(ctx context.Context) string {
	return stringValue(ctx, QueueKey)
}

// GetReceiveCount returns 0 when no count was attached.
func GetReceiveCount(ctx context.Context) int {
	if v, ok := ctx.Value(ctxKey(ReceiveCountKey)).(int); ok {
		return v
	}
	return 0
}

// GetLogFields flattens the context values into zap key/value pairs.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 10)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, TraceIDKey, traceID)
	}

	if messageID := GetMessageID(ctx); messageID != "" {
		fields = append(fields, MessageIDKey, messageID)
	}

	if count := GetReceiveCount(ctx); count > 0 {
		fields = append(fields, ReceiveCountKey, count)
	}

	if queue := GetQueue(ctx); queue != "" {
		fields = append(fields, QueueKey, queue)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, ServiceNameKey, serviceName)
	}

	return fields
}
