package session

import (
	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
)

// validate applies the account policy to a fetched identity+profile pair.
// Email confirmation is required for everyone. Activation is required for
// everyone except super admins, whose accounts are born active.
func validate(ident *identity.Identity, profile *models.Profile) error {
	if ident == nil || profile == nil {
		return errors.New(errors.CodeInternal, "validation requires identity and profile")
	}
	if !ident.EmailVerified {
		return errors.New(errors.CodeEmailNotVerified, "email address not confirmed")
	}
	if !profile.IsActive && profile.Role != enums.RoleSuperAdmin {
		return errors.New(errors.CodeAccountPendingApproval, "profile not yet activated")
	}
	return nil
}
