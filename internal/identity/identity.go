package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the credential-store view of one operator account.
type Identity struct {
	SubjectID        uuid.UUID  `json:"subject_id"`
	Email            string     `json:"email"`
	EmailVerified    bool       `json:"email_verified"`
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`
}

// Store is the credential-store surface the session reconciler depends on.
// A password sign-in mints a session token; the token is the only handle
// the rest of the system holds on the remote session.
type Store interface {
	SignInWithPassword(ctx context.Context, email, password string) (string, *Identity, error)
	SessionByToken(ctx context.Context, token string) (*Identity, error)
	SignOut(ctx context.Context, token string) error
}

// Admin is the management surface used by provisioning and back-office flows.
type Admin interface {
	ListUsers(ctx context.Context, pageSize int64) ([]Identity, error)
	CreateUser(ctx context.Context, email, password string) (*Identity, error)
}
