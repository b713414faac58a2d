package wampmiddleware

import "context"

type contextKey int

const methodInfoKey contextKey = iota

// MethodInfo holds extracted information from the context passed into a
// method handler.
type MethodInfo struct {
	// OpAttempt: Some operations retry over disconnections. This is the
	// attempt number, starting at 0. Will be -1 if this is not an operation
	// that is re-tried.
	OpAttempt int
}

// WithMethodInfo returns a context carrying info for handlers further down
// the chain. The session sets this before running an operation.
func WithMethodInfo(ctx context.Context, info MethodInfo) context.Context {
	return context.WithValue(ctx, methodInfoKey, info)
}

// GetMethodInfo extracts method info from a middleware context.
func GetMethodInfo(ctx context.Context) (info MethodInfo) {
	if found, ok := ctx.Value(methodInfoKey).(MethodInfo); ok {
		return found
	}

	info.OpAttempt = -1
	return info
}
