package profiles

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the profiles service.
func NewService(repo Repository, logg *logger.Logger) Service {
	return &service{repo: repo, logg: logg}
}

func (s *service) GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindByAuthID(ctx, authID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeProfileNotFound, err, "no profile for auth subject")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "looking up profile by auth id")
	}
	return profile, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(errors.CodeProfileNotFound, err, "profile not found")
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "looking up profile")
	}
	return profile, nil
}

func (s *service) ListStaff(ctx context.Context, restaurantID uuid.UUID) ([]models.Profile, error) {
	rows, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "listing restaurant staff")
	}
	return rows, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "updating profile activation")
	}
	return nil
}
