// Package requestctx carries per-request identity through context.
package requestctx

import "context"

type ctxKey string

const callerKey ctxKey = "caller_id"

// SetCallerID stores the authenticated caller name in the context.
func SetCallerID(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerID returns the authenticated caller name, or "" if not set.
func CallerID(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey).(string); ok {
		return v
	}
	return ""
}
