package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"leaddesk/backend/logger"
)

type migration struct {
	name string
	fn   func(*sqlx.DB) error
}

// all lists migrations in the order they are applied
var all = []migration{
	{"create_sessions", CreateSessions},
	{"create_saved_filters", CreateSavedFilters},
	{"add_session_last_seen", AddSessionLastSeen},
}

// RunMigrations executes all migrations that have not been applied yet
func RunMigrations(db *sqlx.DB) error {
	log := logger.For("migrations")
	log.Info("Running migrations...")

	// Create migrations table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range all {
		var count int
		if err := db.Get(&count, "SELECT COUNT(*) FROM migrations WHERE name = ?", m.name); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if count > 0 {
			log.WithField("migration", m.name).Debug("Skipping already applied migration")
			continue
		}

		log.WithField("migration", m.name).Info("Applying migration")
		if err := m.fn(db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}
		if _, err := db.Exec("INSERT INTO migrations (name) VALUES (?)", m.name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
	}

	log.Info("All migrations completed successfully")
	return nil
}

// Applied returns the names of applied migrations in application order.
func Applied(db *sqlx.DB) ([]string, error) {
	var names []string
	err := db.Select(&names, "SELECT name FROM migrations ORDER BY id")
	return names, err
}
