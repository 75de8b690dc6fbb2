package restaurants

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

func setupRestaurantsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	profilesTable := `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  auth_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  restaurant_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	restaurantsTable := `
CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  owner_profile_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  approved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(profilesTable).Error)
	require.NoError(t, db.Exec(restaurantsTable).Error)
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB, profiles.Repository) {
	t.Helper()
	db := setupRestaurantsTestDB(t)
	profileRepo := profiles.NewRepository(db)
	svc := NewService(db, NewRepository(db), profileRepo, logger.New(logger.Options{ServiceName: "test"}))
	return svc, db, profileRepo
}

func seedOwner(t *testing.T, db *gorm.DB, role enums.Role) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		ID:       uuid.New(),
		AuthID:   uuid.New(),
		Email:    fmt.Sprintf("%s@mesaboard.test", uuid.NewString()),
		FullName: "Owner",
		Role:     role,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestRegisterCreatesPendingRestaurant(t *testing.T) {
	svc, db, profileRepo := newTestService(t)
	owner := seedOwner(t, db, enums.RoleKitchenOwner)

	restaurant, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Casa Milpa",
		Slug:           fmt.Sprintf("casa-milpa-%s", uuid.NewString()[:8]),
		OwnerProfileID: owner.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RestaurantStatusPending, restaurant.Status)
	assert.Nil(t, restaurant.ApprovedAt)

	// registration links the owner profile to the new tenant
	linked, err := profileRepo.FindByID(context.Background(), owner.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.RestaurantID)
	assert.Equal(t, restaurant.ID, *linked.RestaurantID)
	assert.False(t, linked.IsActive)
}

func TestRegisterRejectsNonOwnerRole(t *testing.T) {
	svc, db, _ := newTestService(t)
	staff := seedOwner(t, db, enums.RoleStaff)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Nope",
		Slug:           fmt.Sprintf("nope-%s", uuid.NewString()[:8]),
		OwnerProfileID: staff.ID,
	})
	if !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterUnknownOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Ghost Kitchen",
		Slug:           fmt.Sprintf("ghost-%s", uuid.NewString()[:8]),
		OwnerProfileID: uuid.New(),
	})
	if !errors.Is(err, errors.CodeProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestApproveActivatesOwnerProfile(t *testing.T) {
	svc, db, profileRepo := newTestService(t)
	owner := seedOwner(t, db, enums.RoleKitchenOwner)

	restaurant, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Taller de Tacos",
		Slug:           fmt.Sprintf("taller-%s", uuid.NewString()[:8]),
		OwnerProfileID: owner.ID,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RestaurantStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	activated, err := profileRepo.FindByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)
}

func TestApproveIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedOwner(t, db, enums.RoleKitchenOwner)

	restaurant, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Fonda Norte",
		Slug:           fmt.Sprintf("fonda-%s", uuid.NewString()[:8]),
		OwnerProfileID: owner.ID,
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), restaurant.ID)
	require.NoError(t, err)
	again, err := svc.Approve(context.Background(), restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RestaurantStatusApproved, again.Status)
}

func TestApproveUnknownRestaurant(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Approve(context.Background(), uuid.New())
	if !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSuspendDeactivatesOwnerProfile(t *testing.T) {
	svc, db, profileRepo := newTestService(t)
	owner := seedOwner(t, db, enums.RoleKitchenOwner)

	restaurant, err := svc.Register(context.Background(), RegisterInput{
		Name:           "La Breve",
		Slug:           fmt.Sprintf("breve-%s", uuid.NewString()[:8]),
		OwnerProfileID: owner.ID,
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), restaurant.ID)
	require.NoError(t, err)

	suspended, err := svc.Suspend(context.Background(), restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RestaurantStatusSuspended, suspended.Status)

	deactivated, err := profileRepo.FindByID(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
}

func TestListPendingFiltersByStatus(t *testing.T) {
	svc, db, _ := newTestService(t)
	owner := seedOwner(t, db, enums.RoleKitchenOwner)
	other := seedOwner(t, db, enums.RoleKitchenOwner)

	pending, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Pendiente",
		Slug:           fmt.Sprintf("pendiente-%s", uuid.NewString()[:8]),
		OwnerProfileID: owner.ID,
	})
	require.NoError(t, err)

	approved, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Aprobada",
		Slug:           fmt.Sprintf("aprobada-%s", uuid.NewString()[:8]),
		OwnerProfileID: other.ID,
	})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), approved.ID)
	require.NoError(t, err)

	rows, err := svc.ListPending(context.Background())
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	assert.Contains(t, ids, pending.ID)
	assert.NotContains(t, ids, approved.ID)
}
