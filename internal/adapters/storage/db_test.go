package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// one connection so every query sees the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getSchemaSQL returns sorted, whitespace-normalised CREATE statements.
func getSchemaSQL(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT sql FROM sqlite_master WHERE name NOT LIKE 'sqlite_%' AND sql IS NOT NULL")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("failed to scan sql: %v", err)
		}
		out = append(out, strings.Join(strings.Fields(s), " "))
	}
	sort.Strings(out)
	return out
}

var expectedTables = []string{"save_event", "schema_version"}

// TestMigrateDB_Fresh verifies all migrations apply cleanly to an empty database.
func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed on fresh db: %v", err)
	}
	version, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if strings.Join(tables, ",") != strings.Join(expectedTables, ",") {
		t.Errorf("tables = %v, want %v", tables, expectedTables)
	}
}

// TestMigrateDB_Idempotent verifies that running MigrateDB twice is a no-op.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	before := getSchemaSQL(t, db)
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}
	after := getSchemaSQL(t, db)
	if strings.Join(before, "\n") != strings.Join(after, "\n") {
		t.Errorf("schema changed on second run")
	}
	var rows int
	db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows)
	if rows != LatestSchemaVersion() {
		t.Errorf("schema_version rows = %d, want %d", rows, LatestSchemaVersion())
	}
}

// TestMigrateDB_VersionProgression verifies SchemaVersion before and after.
func TestMigrateDB_VersionProgression(t *testing.T) {
	db := openTestDB(t)
	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 0 {
		t.Errorf("initial version = %d, want 0", v)
	}
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	if v, _ := SchemaVersion(db); v != LatestSchemaVersion() {
		t.Errorf("post-migration version = %d, want %d", v, LatestSchemaVersion())
	}
}

// TestMigrateDB_ExistingTable verifies an untracked database with data is upgraded in place.
func TestMigrateDB_ExistingTable(t *testing.T) {
	db := openTestDB(t)
	tx := mustTx(t, db)
	if err := migrateSaveEvent(tx); err != nil {
		t.Fatalf("pre-create: %v", err)
	}
	// the single pooled connection stays with tx until it commits
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	_, err := db.Exec(`INSERT INTO save_event (id, session_id, group_code, outcome, at) VALUES ('e1', 7, 'ASS', 'ok', '2025-03-15T18:00:00Z')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	var outcome string
	if err := db.QueryRow(`SELECT outcome FROM save_event WHERE id = 'e1'`).Scan(&outcome); err != nil {
		t.Fatalf("data lost: %v", err)
	}
	if outcome != "ok" {
		t.Errorf("outcome = %q", outcome)
	}
}

// TestMigrateDB_BackupBeforeUpgrade verifies a file database is copied before a pending step.
func TestMigrateDB_BackupBeforeUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swimtrack.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	// simulate a database left at version 1
	if _, err := db.Exec(`CREATE TABLE schema_version (version INTEGER PRIMARY KEY, description TEXT NOT NULL, applied_at TEXT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := applyMigration(db, migrations[0]); err != nil {
		t.Fatalf("apply v1: %v", err)
	}

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	if _, err := os.Stat(path + ".bak-v1"); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func mustTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { tx.Rollback() })
	return tx
}
