package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mesaboardhq/mesaboard-backend/api/responses"
	"github.com/mesaboardhq/mesaboard-backend/api/validators"
	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/internal/session"
	pkgerrors "github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

// SessionReconciler is the reconciler surface the session endpoints use.
type SessionReconciler interface {
	Current() session.State
	SignIn(ctx context.Context, email, password string) (session.State, error)
	SignOut(ctx context.Context) error
	Refresh(ctx context.Context) (session.State, error)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type identityView struct {
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type stateView struct {
	Status      session.Status `json:"status"`
	Loading     bool           `json:"loading"`
	Identity    *identityView  `json:"identity,omitempty"`
	Profile     *profiles.View `json:"profile,omitempty"`
	LandingPath string         `json:"landing_path,omitempty"`
}

func stateViewFrom(st session.State) stateView {
	view := stateView{Status: st.Status, Loading: st.Loading}
	if st.Identity != nil {
		view.Identity = &identityView{
			Email:         st.Identity.Email,
			EmailVerified: st.Identity.EmailVerified,
			ExpiresAt:     st.Identity.SessionExpiresAt,
		}
	}
	if st.Profile != nil {
		profile := profiles.ToView(st.Profile)
		view.Profile = &profile
		view.LandingPath = st.Profile.Role.LandingPath()
	}
	return view
}

// SessionSignIn authenticates an operator and settles the reconciled state.
func SessionSignIn(rec SessionReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rec == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session reconciler unavailable"))
			return
		}

		var body signInRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		st, err := rec.SignIn(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stateViewFrom(st))
	}
}

// SessionSignOut ends the session. The local state and snapshot are cleared
// even when the remote revocation fails; the failure is still reported.
func SessionSignOut(rec SessionReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rec == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session reconciler unavailable"))
			return
		}

		if err := rec.SignOut(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}

// SessionRefresh revalidates the current session against the credential store.
func SessionRefresh(rec SessionReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rec == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session reconciler unavailable"))
			return
		}

		st, err := rec.Refresh(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stateViewFrom(st))
	}
}

// SessionCurrent returns the reconciler's published state without touching
// the network.
func SessionCurrent(rec SessionReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rec == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session reconciler unavailable"))
			return
		}

		responses.WriteSuccess(w, stateViewFrom(rec.Current()))
	}
}
