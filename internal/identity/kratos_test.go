package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

const testSubjectID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

func newTestClient(publicURL, adminURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return New(config.KratosConfig{
		PublicURL: publicURL,
		AdminURL:  adminURL,
		Timeout:   timeout,
	}, logger.New(logger.Options{ServiceName: "test"}))
}

func sessionPayload(active bool, verified bool) map[string]any {
	return map[string]any{
		"id":         "session-123",
		"active":     active,
		"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"identity": map[string]any{
			"id":         testSubjectID,
			"schema_id":  "default",
			"schema_url": "http://kratos/schemas/default",
			"state":      "active",
			"traits": map[string]any{
				"email": "owner@mesaboard.test",
			},
			"verifiable_addresses": []map[string]any{
				{
					"id":       "addr-1",
					"value":    "owner@mesaboard.test",
					"verified": verified,
					"via":      "email",
					"status":   "completed",
				},
			},
		},
	}
}

func loginFlowPayload(serverURL string) map[string]any {
	now := time.Now().UTC().Format(time.RFC3339)
	return map[string]any{
		"id":          "flow-1",
		"type":        "api",
		"expires_at":  time.Now().Add(10 * time.Minute).UTC().Format(time.RFC3339),
		"issued_at":   now,
		"request_url": serverURL + "/self-service/login/api",
		"state":       "choose_method",
		"ui": map[string]any{
			"action": serverURL + "/self-service/login?flow=flow-1",
			"method": "POST",
			"nodes":  []any{},
		},
	}
}

func TestSignInWithPassword(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/self-service/login/api":
			json.NewEncoder(w).Encode(loginFlowPayload(server.URL))
		case r.Method == http.MethodPost && r.URL.Path == "/self-service/login":
			if r.URL.Query().Get("flow") != "flow-1" {
				t.Errorf("expected flow id in query, got %q", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"session_token": "token-abc",
				"session":       sessionPayload(true, true),
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 0)
	token, ident, err := client.SignInWithPassword(context.Background(), "owner@mesaboard.test", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "token-abc" {
		t.Fatalf("expected session token, got %q", token)
	}
	if ident.SubjectID.String() != testSubjectID {
		t.Fatalf("unexpected subject id %s", ident.SubjectID)
	}
	if ident.Email != "owner@mesaboard.test" {
		t.Fatalf("unexpected email %q", ident.Email)
	}
	if !ident.EmailVerified {
		t.Fatalf("expected verified email")
	}
	if ident.SessionExpiresAt == nil {
		t.Fatalf("expected session expiry")
	}
}

func TestSignInWithPasswordRejected(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(loginFlowPayload(server.URL))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "credentials invalid"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 0)
	_, _, err := client.SignInWithPassword(context.Background(), "owner@mesaboard.test", "wrong")
	if !errors.Is(err, errors.CodeInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestSessionByToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/whoami" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Session-Token"); got != "token-abc" {
			t.Errorf("expected session token header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessionPayload(true, false))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 0)
	ident, err := client.SessionByToken(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ident.EmailVerified {
		t.Fatalf("expected unverified email to carry through")
	}
}

func TestSessionByTokenUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "no session"}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 0)
	if _, err := client.SessionByToken(context.Background(), "expired"); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSessionByTokenInactive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessionPayload(false, true))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 0)
	if _, err := client.SessionByToken(context.Background(), "token"); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for inactive session, got %v", err)
	}
}

func TestSessionByTokenEmptyToken(t *testing.T) {
	client := newTestClient("http://unused", "", 0)
	if _, err := client.SessionByToken(context.Background(), ""); !errors.Is(err, errors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty token, got %v", err)
	}
}

func TestSessionByTokenTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.SessionByToken(ctx, "token"); !errors.Is(err, errors.CodeSessionFetchTimeout) {
		t.Fatalf("expected fetch timeout, got %v", err)
	}
}

func TestSignOut(t *testing.T) {
	t.Run("revokes session", func(t *testing.T) {
		var called bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if r.URL.Path != "/self-service/logout/api" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", 0)
		if err := client.SignOut(context.Background(), "token"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Fatalf("expected logout call")
		}
	})

	t.Run("already revoked counts as success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", 0)
		if err := client.SignOut(context.Background(), "token"); err != nil {
			t.Fatalf("expected success on 401, got %v", err)
		}
	})

	t.Run("server failure surfaces sign-out failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(server.URL, "", 0)
		if err := client.SignOut(context.Background(), "token"); !errors.Is(err, errors.CodeSignOutFailure) {
			t.Fatalf("expected sign-out failure, got %v", err)
		}
	})

	t.Run("empty token is a no-op", func(t *testing.T) {
		client := newTestClient("http://unused", "", 0)
		if err := client.SignOut(context.Background(), ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestAdminSurfaceRequiresAdminURL(t *testing.T) {
	client := newTestClient("http://unused", "", 0)
	if _, err := client.ListUsers(context.Background(), 10); !errors.Is(err, errors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := client.CreateUser(context.Background(), "a@b.c", "pw"); !errors.Is(err, errors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/identities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":         testSubjectID,
				"schema_id":  "default",
				"schema_url": "http://kratos/schemas/default",
				"state":      "active",
				"traits":     map[string]any{"email": "owner@mesaboard.test"},
			},
			{
				"id":         "not-a-uuid",
				"schema_id":  "default",
				"schema_url": "http://kratos/schemas/default",
				"state":      "active",
				"traits":     map[string]any{"email": "broken@mesaboard.test"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient("http://unused", server.URL, 0)
	users, err := client.ListUsers(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected malformed identity skipped, got %d users", len(users))
	}
	if users[0].Email != "owner@mesaboard.test" {
		t.Fatalf("unexpected email %q", users[0].Email)
	}
}
