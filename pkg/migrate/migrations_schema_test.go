package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesaboardhq/mesaboard-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestProfilesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_profiles.sql")

	checks := []string{
		"CREATE TABLE profiles",
		"CREATE UNIQUE INDEX idx_profiles_auth_id",
		"CREATE UNIQUE INDEX idx_profiles_email",
		"is_active boolean NOT NULL DEFAULT false",
		"DROP TABLE profiles",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRestaurantsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_restaurants.sql")

	checks := []string{
		"CREATE TABLE restaurants",
		"CREATE UNIQUE INDEX idx_restaurants_slug",
		"status text NOT NULL DEFAULT 'pending'",
		"DROP TABLE restaurants",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
