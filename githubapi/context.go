package githubapi

import "context"

// Context keys for request-scoped values.
type contextKey int

const sessionKey contextKey = iota

// DefaultSession is used when no session is attached to the context.
// All such callers share one fairness bucket.
const DefaultSession = "default"

// WithSession returns a new context carrying the caller's session ID.
// The executor uses it as the fairness key for queueing.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionFromContext retrieves the session ID from the context.
// Returns DefaultSession if none is present.
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	if s == "" {
		return DefaultSession
	}
	return s
}
