package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/api/middleware"
	"github.com/mesaboardhq/mesaboard-backend/api/responses"
	"github.com/mesaboardhq/mesaboard-backend/api/validators"
	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/internal/restaurants"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	pkgerrors "github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

type restaurantRegisterRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
	Slug string `json:"slug" validate:"required,min=2,max=64,lowercase"`
}

type staffActivationRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// sessionProfile pulls the guard-attached profile out of the request context.
func sessionProfile(r *http.Request) (*models.Profile, error) {
	st, ok := middleware.SessionStateFromContext(r.Context())
	if !ok || !st.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing")
	}
	return st.Profile, nil
}

// KitchenRestaurantRegister creates a pending restaurant owned by the
// signed-in kitchen owner. The restaurant stays pending until a platform
// admin approves it.
func KitchenRestaurantRegister(svc restaurants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		owner, err := sessionProfile(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body restaurantRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Register(r.Context(), restaurants.RegisterInput{
			Name:           strings.TrimSpace(body.Name),
			Slug:           strings.TrimSpace(body.Slug),
			OwnerProfileID: owner.ID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, restaurants.ToView(created))
	}
}

// KitchenRestaurant returns the restaurant owned by the signed-in operator.
func KitchenRestaurant(svc restaurants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		owner, err := sessionProfile(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.GetByOwner(r.Context(), owner.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, restaurants.ToView(restaurant))
	}
}

// KitchenStaffList returns the profiles attached to the operator's restaurant.
func KitchenStaffList(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		actor, err := sessionProfile(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if actor.RestaurantID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no restaurant attached to this profile"))
			return
		}

		rows, err := svc.ListStaff(r.Context(), *actor.RestaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profiles.ToViews(rows))
	}
}

// KitchenStaffActivation flips a staff profile's activation flag. Only
// profiles attached to the actor's own restaurant can be changed, and
// owners cannot deactivate themselves.
func KitchenStaffActivation(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		actor, err := sessionProfile(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.RestaurantID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no restaurant attached to this profile"))
			return
		}

		rawID := strings.TrimSpace(chi.URLParam(r, "profileId"))
		profileID, err := uuid.Parse(rawID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profile id"))
			return
		}

		var body staffActivationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := svc.GetByID(r.Context(), profileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if target.RestaurantID == nil || *target.RestaurantID != *actor.RestaurantID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "profile belongs to another restaurant"))
			return
		}
		if target.ID == actor.ID && actor.Role == enums.RoleKitchenOwner && !*body.Active {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "owners cannot deactivate themselves"))
			return
		}

		if err := svc.SetActive(r.Context(), target.ID, *body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target.IsActive = *body.Active
		responses.WriteSuccess(w, profiles.ToView(target))
	}
}
