package middleware

import (
	"net/http"

	"github.com/mesaboardhq/mesaboard-backend/api/responses"
	"github.com/mesaboardhq/mesaboard-backend/internal/session"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	pkgerrors "github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
	"github.com/mesaboardhq/mesaboard-backend/pkg/metrics"
)

const (
	// LoginPath receives operators with no valid session.
	LoginPath = "/login"
	// UnauthorizedPath receives authenticated operators lacking the route's role.
	UnauthorizedPath = "/unauthorized"
)

// SessionSource is the reconciler surface the guard depends on.
type SessionSource interface {
	Current() session.State
	Subscribe() (<-chan session.State, func())
}

// Guard protects a route subtree. It waits for the reconciler to settle
// before deciding, bounded by the request context: no decision is ever
// made on a loading state. Roles match exactly; there is no hierarchy,
// and an empty role list admits any authenticated operator.
func Guard(src SessionSource, m *metrics.SessionMetrics, logg *logger.Logger, allowed ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			st, ok := settledState(r, src)
			if !ok {
				m.IncGuardDecision("timeout")
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSessionFetchTimeout, "session lookup timed out"))
				return
			}

			if !st.Authenticated() {
				m.IncGuardDecision("redirect_login")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if !roleAllowed(st.Profile.Role, allowed) {
				m.IncGuardDecision("redirect_unauthorized")
				if logg != nil {
					logg.Warn(logg.WithActorRole(ctx, string(st.Profile.Role)), "route denied for role")
				}
				http.Redirect(w, r, UnauthorizedPath, http.StatusSeeOther)
				return
			}

			m.IncGuardDecision("allow")
			next.ServeHTTP(w, r.WithContext(WithSessionState(ctx, st)))
		})
	}
}

// settledState blocks until the reconciler publishes a non-loading state
// or the request context ends.
func settledState(r *http.Request, src SessionSource) (session.State, bool) {
	st := src.Current()
	if settled(st) {
		return st, true
	}

	ch, cancel := src.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return session.State{}, false
		case st, open := <-ch:
			if !open {
				return session.State{}, false
			}
			if settled(st) {
				return st, true
			}
		}
	}
}

func settled(st session.State) bool {
	if st.Loading {
		return false
	}
	return st.Status == session.StatusAuthenticated || st.Status == session.StatusUnauthenticated
}

func roleAllowed(role enums.Role, allowed []enums.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}
