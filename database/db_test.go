package database

import (
	"path/filepath"
	"testing"

	"leaddesk/backend/migrations"
)

func TestInitDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaddesk.db")

	if err := InitDB(path); err != nil {
		t.Fatalf("Error initializing database: %v", err)
	}
	defer Close()

	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('sessions', 'saved_filters', 'migrations')")
	if err != nil {
		t.Fatalf("Error checking tables: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 tables, got %d", count)
	}

	exists, err := migrations.ColumnExists(DB, "sessions", "last_seen_at")
	if err != nil {
		t.Fatalf("Error checking column: %v", err)
	}
	if !exists {
		t.Error("Expected sessions.last_seen_at to exist")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaddesk.db")

	if err := InitDB(path); err != nil {
		t.Fatalf("Error initializing database: %v", err)
	}
	if err := migrations.RunMigrations(DB); err != nil {
		t.Fatalf("Error re-running migrations: %v", err)
	}
	defer Close()

	applied, err := migrations.Applied(DB)
	if err != nil {
		t.Fatalf("Error listing migrations: %v", err)
	}
	expected := []string{"create_sessions", "create_saved_filters", "add_session_last_seen"}
	if len(applied) != len(expected) {
		t.Fatalf("Expected %d applied migrations, got %v", len(expected), applied)
	}
	for i, name := range expected {
		if applied[i] != name {
			t.Errorf("Expected migration %d to be %s, got %s", i, name, applied[i])
		}
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Error opening in-memory database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE scratch (id INTEGER)"); err != nil {
		t.Fatalf("Error creating table: %v", err)
	}
}
