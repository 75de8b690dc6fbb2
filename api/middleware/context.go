package middleware

import (
	"context"

	"github.com/mesaboardhq/mesaboard-backend/internal/session"
)

type contextKey string

const sessionStateKey contextKey = "session_state"

// WithSessionState attaches the reconciled state to the request context.
func WithSessionState(ctx context.Context, st session.State) context.Context {
	return context.WithValue(ctx, sessionStateKey, st)
}

// SessionStateFromContext returns the state attached by the guard.
func SessionStateFromContext(ctx context.Context) (session.State, bool) {
	st, ok := ctx.Value(sessionStateKey).(session.State)
	return st, ok
}
