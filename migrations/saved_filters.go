package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSavedFilters adds the saved_filters table. criteria holds the JSON encoded FilterCriteria.
func CreateSavedFilters(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_filters (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			criteria TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(employee_id, name)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create saved_filters table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_saved_filters_employee ON saved_filters (employee_id);`)
	if err != nil {
		return fmt.Errorf("failed to create saved_filters index: %w", err)
	}
	return nil
}
