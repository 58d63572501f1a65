package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migration is one forward-only schema step. Steps run inside a transaction
// and must be safe on databases created before version tracking existed.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

var migrations = []migration{
	{1, "save journal", migrateSaveEvent},
	{2, "save journal lookup by outcome", migrateSaveEventOutcomeIndex},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
// PRE: db is a valid database connection
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration in order.
// PRE: db is a valid database connection; dbPath is its file path or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion(); a file database is copied
// to <dbPath>.bak-v<N> before migrating from a non-zero version N
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && dbPath != "" && !strings.Contains(dbPath, ":memory:") {
		backup := fmt.Sprintf("%s.bak-v%d", dbPath, current)
		if _, err := db.Exec(`VACUUM INTO ?`, backup); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
		slog.Info("storage_event", "event", "schema_backup", "path", backup)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		slog.Info("storage_event", "event", "schema_migrated", "version", m.version, "description", m.description)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	if err := m.apply(tx); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`,
		m.version, m.description, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	return tx.Commit()
}

func migrateSaveEvent(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS save_event (
		id TEXT PRIMARY KEY,
		session_id INTEGER NOT NULL,
		group_code TEXT NOT NULL,
		outcome TEXT NOT NULL,
		phase TEXT NOT NULL DEFAULT '',
		deleted INTEGER NOT NULL DEFAULT 0,
		upserted INTEGER NOT NULL DEFAULT 0,
		present INTEGER NOT NULL DEFAULT 0,
		justified INTEGER NOT NULL DEFAULT 0,
		absent INTEGER NOT NULL DEFAULT 0,
		not_set INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_save_event_session ON save_event (session_id, at);
	`)
	return err
}

func migrateSaveEventOutcomeIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_save_event_outcome ON save_event (outcome, at)`)
	return err
}
