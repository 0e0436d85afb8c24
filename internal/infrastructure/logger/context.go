package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	tenantIDKey
	userIDKey
)

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx with trace_id and span_id of
// the active span, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok || l == nil {
		return zap.NewNop()
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// WithRequestID records the request id and adds it to the context logger.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withField(ctx, requestIDKey, "request_id", requestID)
}

// WithTenantID records the tenant id and adds it to the context logger.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return withField(ctx, tenantIDKey, "tenant_id", tenantID)
}

// WithUserID records the user id and adds it to the context logger.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withField(ctx, userIDKey, "user_id", userID)
}

func withField(ctx context.Context, key ctxKey, field, value string) context.Context {
	ctx = context.WithValue(ctx, key, value)
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		ctx = WithContext(ctx, l.With(zap.String(field, value)))
	}
	return ctx
}

func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }
func TenantID(ctx context.Context) string  { return stringValue(ctx, tenantIDKey) }
func UserID(ctx context.Context) string    { return stringValue(ctx, userIDKey) }

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
