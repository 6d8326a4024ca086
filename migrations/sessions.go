package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSessions adds the sessions table. Tokens are stored encrypted and looked up by hash.
func CreateSessions(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			token_hash TEXT NOT NULL UNIQUE,
			encrypted_token TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			employee_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at);`)
	if err != nil {
		return fmt.Errorf("failed to create sessions index: %w", err)
	}
	return nil
}

// AddSessionLastSeen tracks when a session last authenticated a request.
func AddSessionLastSeen(db *sqlx.DB) error {
	if err := AddColumn(db, "sessions", "last_seen_at", "TIMESTAMP"); err != nil {
		return fmt.Errorf("failed to add last_seen_at: %w", err)
	}
	return nil
}
