package restaurants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
)

// Repository defines persistence operations for the restaurants table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, restaurant *models.Restaurant) (*models.Restaurant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindByOwner(ctx context.Context, ownerProfileID uuid.UUID) (*models.Restaurant, error)
	List(ctx context.Context) ([]models.Restaurant, error)
	ListByStatus(ctx context.Context, status enums.RestaurantStatus) ([]models.Restaurant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// Service exposes the tenant lifecycle: registration lands a pending
// restaurant, approval activates the owner's profile in the same commit.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Restaurant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	GetByOwner(ctx context.Context, ownerProfileID uuid.UUID) (*models.Restaurant, error)
	List(ctx context.Context) ([]models.Restaurant, error)
	ListPending(ctx context.Context) ([]models.Restaurant, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	Suspend(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}
