package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"leaddesk/backend/migrations"
)

// DB is the process-wide handle opened by InitDB.
var DB *sqlx.DB

// Open connects to the sqlite database at path (":memory:" for tests).
func Open(path string) (*sqlx.DB, error) {
	// Add connection parameters to better handle concurrency
	dsn := path + "?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	memory := path == ":memory:"
	if memory {
		dsn = path
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return db, nil
}

// InitDB opens the database at path into DB and applies migrations.
func InitDB(path string) error {
	db, err := Open(path)
	if err != nil {
		return err
	}
	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return err
	}
	DB = db
	return nil
}

// Close closes DB if it is open.
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
