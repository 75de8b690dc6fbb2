package restaurants

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

type service struct {
	gdb      *gorm.DB
	repo     Repository
	profiles profiles.Repository
	logg     *logger.Logger
}

// NewService wires the restaurants service. Approval spans the restaurants
// and profiles tables, so the service holds the DB handle for transactions.
func NewService(gdb *gorm.DB, repo Repository, profileRepo profiles.Repository, logg *logger.Logger) Service {
	return &service{gdb: gdb, repo: repo, profiles: profileRepo, logg: logg}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Restaurant, error) {
	owner, err := s.profiles.FindByID(ctx, input.OwnerProfileID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeProfileNotFound, err, "owner profile not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "looking up owner profile")
	}
	if owner.Role != enums.RoleKitchenOwner {
		return nil, errors.New(errors.CodeValidation, "only kitchen owners can register a restaurant")
	}

	restaurant := &models.Restaurant{
		ID:             uuid.New(),
		Name:           input.Name,
		Slug:           input.Slug,
		OwnerProfileID: input.OwnerProfileID,
		Status:         enums.RestaurantStatusPending,
	}

	err = s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, restaurant); err != nil {
			return err
		}
		return s.profiles.WithTx(tx).AssignRestaurant(ctx, owner.ID, restaurant.ID)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errors.Wrap(errors.CodeConflict, err, "restaurant slug already taken")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "registering restaurant")
	}

	ctx = s.logg.WithRestaurantID(ctx, restaurant.ID.String())
	s.logg.Info(ctx, "restaurant registered pending approval")
	return restaurant, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, err, "restaurant not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "looking up restaurant")
	}
	return restaurant, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerProfileID uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindByOwner(ctx, ownerProfileID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, err, "no restaurant for this owner")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "looking up restaurant by owner")
	}
	return restaurant, nil
}

func (s *service) List(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing restaurants")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.RestaurantStatusPending)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing pending restaurants")
	}
	return rows, nil
}

// Approve flips the restaurant to approved and activates the owner profile
// in the same transaction. Either both land or neither does.
func (s *service) Approve(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant.Status == enums.RestaurantStatusApproved {
		return restaurant, nil
	}

	now := time.Now().UTC()
	err = s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":      enums.RestaurantStatusApproved,
			"approved_at": now,
		}
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, id, updates); err != nil {
			return err
		}
		return s.profiles.WithTx(tx).SetActive(ctx, restaurant.OwnerProfileID, true)
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "approving restaurant")
	}

	restaurant.Status = enums.RestaurantStatusApproved
	restaurant.ApprovedAt = &now

	ctx = s.logg.WithRestaurantID(ctx, restaurant.ID.String())
	s.logg.Info(ctx, "restaurant approved")
	return restaurant, nil
}

// Suspend parks the restaurant and deactivates the owner profile.
func (s *service) Suspend(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": enums.RestaurantStatusSuspended}
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, id, updates); err != nil {
			return err
		}
		return s.profiles.WithTx(tx).SetActive(ctx, restaurant.OwnerProfileID, false)
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "suspending restaurant")
	}

	restaurant.Status = enums.RestaurantStatusSuspended
	s.logg.Info(s.logg.WithRestaurantID(ctx, restaurant.ID.String()), "restaurant suspended")
	return restaurant, nil
}
