package logger

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying the request ID so loggers deeper
// in the call chain (SQL tracing in particular) can correlate their output
// with the originating HTTP request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID extracts the request ID from the context, or "" when absent.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
