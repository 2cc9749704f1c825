// Package db provides the SQLite connection and schema for the transition ledger.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Append-only history of duty-cycle transitions and device failures.
	// Never read back to restore state.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cycle_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			run_id TEXT NOT NULL,
			cycle INTEGER NOT NULL,
			light_id TEXT,
			payload TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_cycle_ledger_type_ts ON cycle_ledger(event_type, timestamp);
		CREATE INDEX IF NOT EXISTS idx_cycle_ledger_run ON cycle_ledger(run_id, id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create cycle_ledger table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
