package database

import (
	"context"
	"embed"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// withTestMigrations points the migration runner at the testdata files
// for the duration of one test.
func withTestMigrations(t *testing.T) {
	t.Helper()

	origFS := MigrationsFS
	origDir := MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})

	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"
}

func TestMigrate(t *testing.T) {
	withTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_units'",
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("table test_units not created: %v", err)
	}

	var applied int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations",
	).Scan(&applied); err != nil {
		t.Fatalf("reading schema_migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied migrations = %d, want 1", applied)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	withTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("Migrate() run %d error = %v", i+1, err)
		}
	}

	var applied int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations",
	).Scan(&applied); err != nil {
		t.Fatalf("reading schema_migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied migrations after rerun = %d, want 1", applied)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantOK      bool
	}{
		{"20260815_120000_initial_schema.up.sql", "20260815_120000", true},
		{"20260815_120000_initial_schema.down.sql", "", false},
		{"notes.txt", "", false},
		{"bare.up.sql", "", false},
	}

	for _, tt := range tests {
		version, ok := parseMigrationFilename(tt.name)
		if version != tt.wantVersion || ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) = (%q, %v), want (%q, %v)",
				tt.name, version, ok, tt.wantVersion, tt.wantOK)
		}
	}
}

func TestMigrationName(t *testing.T) {
	if got := migrationName("20260815_120000_initial_schema.up.sql"); got != "initial_schema" {
		t.Errorf("migrationName() = %q, want initial_schema", got)
	}
}
