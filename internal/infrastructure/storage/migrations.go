package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "archive_records",
		Up:      migration001ArchiveRecords,
	},
	{
		Version: 2,
		Name:    "recon_runs",
		Up:      migration002ReconRuns,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func migration001ArchiveRecords(tx *sql.Tx) error {
	query := `
	CREATE TABLE archive_records (
		side TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		date_text TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL,
		display_amount REAL NOT NULL DEFAULT 0,
		display_present INTEGER NOT NULL DEFAULT 0,
		ref TEXT NOT NULL DEFAULT '',
		descr TEXT NOT NULL DEFAULT '',
		imported_at TEXT NOT NULL,
		PRIMARY KEY (side, fingerprint)
	)`

	_, err := tx.Exec(query)
	return err
}

func migration002ReconRuns(tx *sql.Tx) error {
	query := `
	CREATE TABLE recon_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		tolerance_days INTEGER NOT NULL DEFAULT 0,
		require_ref INTEGER NOT NULL DEFAULT 0,
		bank_count INTEGER NOT NULL DEFAULT 0,
		book_count INTEGER NOT NULL DEFAULT 0,
		match_count INTEGER NOT NULL DEFAULT 0,
		unmatched_bank INTEGER NOT NULL DEFAULT 0,
		unmatched_book INTEGER NOT NULL DEFAULT 0
	)`

	_, err := tx.Exec(query)
	return err
}
