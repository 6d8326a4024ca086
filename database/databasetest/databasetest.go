// Package databasetest provides migrated in-memory databases for tests.
package databasetest

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"leaddesk/backend/database"
	"leaddesk/backend/migrations"
)

// SetupTestDB opens a migrated in-memory database for a test.
func SetupTestDB(t testing.TB) (*sqlx.DB, func()) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db, func() { db.Close() }
}
