package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/errors"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	return NewService(repo, logger.New(logger.Options{ServiceName: "test"})), repo
}

func TestServiceGetByAuthIDMapsMissingRow(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByAuthID(context.Background(), uuid.New())
	if !errors.Is(err, errors.CodeProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestServiceGetByAuthIDReturnsRow(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, logger.New(logger.Options{ServiceName: "test"}))

	seeded := newProfile(t, db, enums.RoleSuperAdmin, nil)

	found, err := svc.GetByAuthID(context.Background(), seeded.AuthID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != seeded.ID {
		t.Fatalf("expected seeded profile, got %s", found.ID)
	}
}

func TestServiceSetActiveUnknownProfile(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetActive(context.Background(), uuid.New(), true)
	if !errors.Is(err, errors.CodeProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}
