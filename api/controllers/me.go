package controllers

import (
	"net/http"

	"github.com/mesaboardhq/mesaboard-backend/api/middleware"
	"github.com/mesaboardhq/mesaboard-backend/api/responses"
	pkgerrors "github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

// Me returns the signed-in operator's reconciled identity and profile. The
// guard settles the state before this handler runs.
func Me(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, ok := middleware.SessionStateFromContext(r.Context())
		if !ok || !st.Authenticated() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		responses.WriteSuccess(w, stateViewFrom(st))
	}
}
