package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/internal/session"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

type fakeSource struct {
	current session.State
	updates chan session.State
}

func (f *fakeSource) Current() session.State {
	return f.current
}

func (f *fakeSource) Subscribe() (<-chan session.State, func()) {
	ch := make(chan session.State, 1)
	ch <- f.current
	if f.updates != nil {
		go func() {
			for st := range f.updates {
				select {
				case <-ch:
				default:
				}
				ch <- st
			}
		}()
	}
	return ch, func() {}
}

func authenticatedState(role enums.Role) session.State {
	authID := uuid.New()
	return session.State{
		Status: session.StatusAuthenticated,
		Identity: &identity.Identity{
			SubjectID:     authID,
			Email:         "operator@mesaboard.test",
			EmailVerified: true,
		},
		Profile: &models.Profile{
			ID:       uuid.New(),
			AuthID:   authID,
			Role:     role,
			IsActive: true,
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func runGuard(t *testing.T, src SessionSource, req *http.Request, allowed ...enums.Role) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	var reachedNext bool
	handler := Guard(src, nil, testLogger(), allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reachedNext = true
		if _, ok := SessionStateFromContext(r.Context()); !ok {
			t.Error("expected session state in request context")
		}
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reachedNext
}

func TestGuardRedirectsSignedOutToLogin(t *testing.T) {
	src := &fakeSource{current: session.State{Status: session.StatusUnauthenticated}}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	rec, reached := runGuard(t, src, req, enums.RoleKitchenOwner)
	if reached {
		t.Fatalf("handler must not run for signed-out operator")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Fatalf("expected redirect to %s, got %s", LoginPath, loc)
	}
}

func TestGuardRoleMismatchRedirectsToUnauthorized(t *testing.T) {
	// a signed-in kitchen owner hitting an admin route is denied, not
	// sent back to login
	src := &fakeSource{current: authenticatedState(enums.RoleKitchenOwner)}
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)

	rec, reached := runGuard(t, src, req, enums.RoleSuperAdmin)
	if reached {
		t.Fatalf("handler must not run for mismatched role")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != UnauthorizedPath {
		t.Fatalf("expected redirect to %s, got %s", UnauthorizedPath, loc)
	}
}

func TestGuardExactRoleMatchOnly(t *testing.T) {
	// no hierarchy: super_admin does not inherit kitchen routes
	src := &fakeSource{current: authenticatedState(enums.RoleSuperAdmin)}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	rec, reached := runGuard(t, src, req, enums.RoleKitchenOwner, enums.RoleManager)
	if reached {
		t.Fatalf("super admin must not pass a kitchen-only guard")
	}
	if loc := rec.Header().Get("Location"); loc != UnauthorizedPath {
		t.Fatalf("expected redirect to %s, got %s", UnauthorizedPath, loc)
	}
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	src := &fakeSource{current: authenticatedState(enums.RoleManager)}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	rec, reached := runGuard(t, src, req, enums.RoleKitchenOwner, enums.RoleManager)
	if !reached {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
}

func TestGuardEmptyRoleListAdmitsAnyAuthenticated(t *testing.T) {
	src := &fakeSource{current: authenticatedState(enums.RoleStaff)}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)

	_, reached := runGuard(t, src, req)
	if !reached {
		t.Fatalf("empty role list must admit any authenticated operator")
	}
}

func TestGuardWaitsForLoadingToSettle(t *testing.T) {
	updates := make(chan session.State, 1)
	src := &fakeSource{
		current: session.State{Status: session.StatusInitializing, Loading: true},
		updates: updates,
	}
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		updates <- authenticatedState(enums.RoleKitchenOwner)
	}()

	_, reached := runGuard(t, src, req, enums.RoleKitchenOwner)
	if !reached {
		t.Fatalf("guard must wait out the loading state and then admit")
	}
}

func TestGuardTimesOutWithRequestContext(t *testing.T) {
	src := &fakeSource{current: session.State{Status: session.StatusInitializing, Loading: true}}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx)

	rec, reached := runGuard(t, src, req, enums.RoleKitchenOwner)
	if reached {
		t.Fatalf("handler must not run when the session never settles")
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
}
