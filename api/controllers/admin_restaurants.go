package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/api/responses"
	"github.com/mesaboardhq/mesaboard-backend/internal/restaurants"
	pkgerrors "github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

func restaurantIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "restaurantId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id")
	}
	return id, nil
}

// AdminRestaurantList returns every registered restaurant.
func AdminRestaurantList(svc restaurants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, restaurants.ToViews(rows))
	}
}

// AdminRestaurantPending returns restaurants awaiting approval.
func AdminRestaurantPending(svc restaurants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		rows, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, restaurants.ToViews(rows))
	}
}

// AdminRestaurantApprove activates a pending restaurant and its owner.
func AdminRestaurantApprove(svc restaurants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		id, err := restaurantIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approved, err := svc.Approve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, restaurants.ToView(approved))
	}
}

// AdminRestaurantSuspend suspends a restaurant and deactivates its owner.
func AdminRestaurantSuspend(svc restaurants.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "restaurant service unavailable"))
			return
		}

		id, err := restaurantIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		suspended, err := svc.Suspend(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, restaurants.ToView(suspended))
	}
}
