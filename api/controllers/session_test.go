package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/internal/session"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	pkgerrors "github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

type stubReconciler struct {
	signInFn   func(ctx context.Context, email, password string) (session.State, error)
	signOutErr error
	refreshFn  func(ctx context.Context) (session.State, error)
	current    session.State
}

func (s *stubReconciler) Current() session.State {
	return s.current
}

func (s *stubReconciler) SignIn(ctx context.Context, email, password string) (session.State, error) {
	if s.signInFn == nil {
		return session.State{}, nil
	}
	return s.signInFn(ctx, email, password)
}

func (s *stubReconciler) SignOut(ctx context.Context) error {
	return s.signOutErr
}

func (s *stubReconciler) Refresh(ctx context.Context) (session.State, error) {
	if s.refreshFn == nil {
		return session.State{}, nil
	}
	return s.refreshFn(ctx)
}

func authenticatedTestState(role enums.Role, email string) session.State {
	authID := uuid.New()
	return session.State{
		Status: session.StatusAuthenticated,
		Identity: &identity.Identity{
			SubjectID:     authID,
			Email:         email,
			EmailVerified: true,
		},
		Profile: &models.Profile{
			ID:       uuid.New(),
			AuthID:   authID,
			Email:    email,
			Role:     role,
			IsActive: true,
		},
	}
}

func controllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestSessionSignInSuccess(t *testing.T) {
	want := authenticatedTestState(enums.RoleKitchenOwner, "owner@mesaboard.test")
	rec := &stubReconciler{
		signInFn: func(ctx context.Context, email, password string) (session.State, error) {
			if email != "owner@mesaboard.test" {
				t.Fatalf("unexpected email: %s", email)
			}
			return want, nil
		},
	}
	handler := SessionSignIn(rec, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-in", strings.NewReader(`{"email":"owner@mesaboard.test","password":"supersecret"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload stateView
	env := decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if payload.Status != session.StatusAuthenticated {
		t.Fatalf("expected authenticated, got %s", payload.Status)
	}
	if payload.Profile == nil || payload.Profile.Email != "owner@mesaboard.test" {
		t.Fatalf("unexpected profile payload: %+v", payload.Profile)
	}
	if payload.LandingPath != "/dashboard" {
		t.Fatalf("expected kitchen owner landing path /dashboard, got %s", payload.LandingPath)
	}
}

func TestSessionSignInSuperAdminLandingPath(t *testing.T) {
	rec := &stubReconciler{
		signInFn: func(ctx context.Context, email, password string) (session.State, error) {
			return authenticatedTestState(enums.RoleSuperAdmin, "admin@mesaboard.test"), nil
		},
	}
	handler := SessionSignIn(rec, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-in", strings.NewReader(`{"email":"admin@mesaboard.test","password":"supersecret"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload stateView
	env := decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if payload.LandingPath != "/admin" {
		t.Fatalf("expected super admin landing path /admin, got %s", payload.LandingPath)
	}
}

func TestSessionSignInInvalidCredentials(t *testing.T) {
	rec := &stubReconciler{
		signInFn: func(ctx context.Context, email, password string) (session.State, error) {
			return session.State{Status: session.StatusUnauthenticated}, pkgerrors.New(pkgerrors.CodeInvalidCredentials, "login rejected")
		},
	}
	handler := SessionSignIn(rec, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-in", strings.NewReader(`{"email":"owner@mesaboard.test","password":"wrongpassword"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error.Code != string(pkgerrors.CodeInvalidCredentials) {
		t.Fatalf("unexpected code: %s", env.Error.Code)
	}
}

func TestSessionSignInRejectsMalformedBody(t *testing.T) {
	handler := SessionSignIn(&stubReconciler{}, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-in", strings.NewReader(`{"email":"not-an-email"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code: %s", env.Error.Code)
	}
}

func TestSessionSignOutReportsRemoteFailure(t *testing.T) {
	rec := &stubReconciler{signOutErr: pkgerrors.New(pkgerrors.CodeSignOutFailure, "revocation failed")}
	handler := SessionSignOut(rec, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-out", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error.Code != string(pkgerrors.CodeSignOutFailure) {
		t.Fatalf("unexpected code: %s", env.Error.Code)
	}
}

func TestSessionSignOutSuccess(t *testing.T) {
	handler := SessionSignOut(&stubReconciler{}, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sign-out", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSessionRefreshTimeout(t *testing.T) {
	rec := &stubReconciler{
		refreshFn: func(ctx context.Context) (session.State, error) {
			return session.State{}, pkgerrors.New(pkgerrors.CodeSessionFetchTimeout, "session lookup timed out")
		},
	}
	handler := SessionRefresh(rec, controllerLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/refresh", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", w.Code)
	}
}

func TestSessionCurrentReturnsPublishedState(t *testing.T) {
	rec := &stubReconciler{current: session.State{Status: session.StatusUnauthenticated}}
	handler := SessionCurrent(rec, controllerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload stateView
	env := decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if payload.Status != session.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", payload.Status)
	}
	if payload.Identity != nil || payload.Profile != nil {
		t.Fatalf("unauthenticated state must not carry identity or profile")
	}
}
