package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mesaboardhq/mesaboard-backend/internal/identity"
	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db/models"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
)

// provision creates a credential-store identity and its matching profile
// row. Super admins come out active immediately; everyone else stays
// inactive until the approval flow flips them.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "provision"})

	_ = godotenv.Load()

	email := flag.String("email", "", "operator email")
	password := flag.String("password", "", "initial password")
	fullName := flag.String("name", "", "operator full name")
	role := flag.String("role", string(enums.RoleSuperAdmin), "profile role: super_admin|kitchen_owner|manager|staff")
	flag.Parse()

	if strings.TrimSpace(*email) == "" || strings.TrimSpace(*password) == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required")
		os.Exit(1)
	}

	parsedRole, err := enums.ParseRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid role: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "provision",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	kratosClient := identity.New(cfg.Kratos, logg)
	profileRepo := profiles.NewRepository(dbClient.DB())

	ident, err := ensureIdentity(ctx, kratosClient, strings.TrimSpace(*email), *password)
	requireResource(ctx, logg, "identity", err)

	if existing, err := profileRepo.FindByAuthID(ctx, ident.SubjectID); err == nil {
		fmt.Printf("profile already provisioned for %s (%s)\n", existing.Email, existing.Role)
		return
	}

	profile, err := profileRepo.Create(ctx, &models.Profile{
		AuthID:   ident.SubjectID,
		Email:    ident.Email,
		FullName: strings.TrimSpace(*fullName),
		Role:     parsedRole,
		IsActive: parsedRole == enums.RoleSuperAdmin,
	})
	requireResource(ctx, logg, "profile", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"auth_id":    ident.SubjectID.String(),
		"profile_id": profile.ID.String(),
		"role":       string(profile.Role),
		"is_active":  profile.IsActive,
	})
	logg.Info(ctx, "operator provisioned")
	fmt.Printf("provisioned %s (%s)\n", profile.Email, profile.Role)
}

const identityPageSize = 500

// ensureIdentity reuses an existing credential-store identity for the email
// before minting a new one, so rerunning provision is safe.
func ensureIdentity(ctx context.Context, admin identity.Admin, email, password string) (*identity.Identity, error) {
	existing, err := admin.ListUsers(ctx, identityPageSize)
	if err == nil {
		for i := range existing {
			if strings.EqualFold(existing[i].Email, email) {
				return &existing[i], nil
			}
		}
	}
	return admin.CreateUser(ctx, email, password)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
