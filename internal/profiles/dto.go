package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
)

// View is the profile shape returned to API clients.
type View struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         enums.Role `json:"role"`
	RestaurantID *uuid.UUID `json:"restaurant_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToView converts a profile row into its API shape.
func ToView(p *models.Profile) View {
	return View{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         p.Role,
		RestaurantID: p.RestaurantID,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
	}
}

// ToViews converts a slice of profile rows.
func ToViews(rows []models.Profile) []View {
	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, ToView(&rows[i]))
	}
	return out
}
