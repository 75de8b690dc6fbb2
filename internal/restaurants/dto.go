package restaurants

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
)

// RegisterInput creates a pending restaurant for an existing owner profile.
type RegisterInput struct {
	Name           string    `json:"name" validate:"required,min=2,max=120"`
	Slug           string    `json:"slug" validate:"required,min=2,max=64,lowercase"`
	OwnerProfileID uuid.UUID `json:"owner_profile_id" validate:"required"`
}

// View is the restaurant shape returned to API clients.
type View struct {
	ID         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	Slug       string                 `json:"slug"`
	Status     enums.RestaurantStatus `json:"status"`
	ApprovedAt *time.Time             `json:"approved_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ToView converts a restaurant row into its API shape.
func ToView(r *models.Restaurant) View {
	return View{
		ID:         r.ID,
		Name:       r.Name,
		Slug:       r.Slug,
		Status:     r.Status,
		ApprovedAt: r.ApprovedAt,
		CreatedAt:  r.CreatedAt,
	}
}

// ToViews converts a slice of restaurant rows.
func ToViews(rows []models.Restaurant) []View {
	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, ToView(&rows[i]))
	}
	return out
}
