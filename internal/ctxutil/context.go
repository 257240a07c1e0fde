// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import "context"

type contextKey string

const requestIDKey contextKey = "ctxutil.requestID"

// WithRequestID adds a request ID to the context for tracing.
// One ID is generated per webhook delivery for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}
