package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TraceIDContextKey carries the id shared by every log line, span and
	// processing log entry of one request or file pass.
	TraceIDContextKey contextKey = "trace_id"

	// FileContextKey carries the base name of the workbook being processed.
	FileContextKey contextKey = "file"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDContextKey)
}

// EnsureTraceID ensures the context has a trace ID, generating one if needed
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}

// WithFile tags the context with the workbook a pass is working on.
func WithFile(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, FileContextKey, name)
}

// FileFromContext returns the workbook name set by WithFile.
func FileFromContext(ctx context.Context) string {
	return stringValue(ctx, FileContextKey)
}

// PassContext derives the context of one file pass: it keeps the caller's
// values but not its cancellation, and carries a trace id and the file name.
func PassContext(ctx context.Context, file string) context.Context {
	return WithFile(EnsureTraceID(context.WithoutCancel(ctx)), file)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
