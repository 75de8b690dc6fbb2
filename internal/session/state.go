package session

import (
	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
)

// Status is the reconciler's lifecycle phase.
type Status string

const (
	StatusUninitialized   Status = "uninitialized"
	StatusInitializing    Status = "initializing"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// State is one published snapshot of the reconciled session. Identity and
// Profile are either both set (authenticated) or both nil; there is no
// half-authenticated state.
type State struct {
	Status   Status
	Loading  bool
	Identity *identity.Identity
	Profile  *models.Profile
}

// Authenticated reports whether the state carries a validated session.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil && s.Profile != nil
}

func unauthenticated(loading bool) State {
	return State{Status: StatusUnauthenticated, Loading: loading}
}

func authenticated(ident *identity.Identity, profile *models.Profile) State {
	return State{
		Status:   StatusAuthenticated,
		Loading:  false,
		Identity: ident,
		Profile:  profile,
	}
}
