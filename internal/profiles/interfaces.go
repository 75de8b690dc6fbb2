package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
)

// Repository defines persistence operations for the profiles table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByAuthID(ctx context.Context, authID uuid.UUID) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Profile, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	AssignRestaurant(ctx context.Context, id uuid.UUID, restaurantID uuid.UUID) error
}

// Service exposes profile lookups with the error taxonomy the session
// reconciler and controllers expect.
type Service interface {
	GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	ListStaff(ctx context.Context, restaurantID uuid.UUID) ([]models.Profile, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
