// Package services implements the durable collaborators the room core calls
// out to: classroom membership, inventories, equipment, currency balances,
// container claims, and tasks. Each service owns its own consistency; the
// room never coordinates transactions across them.
package services

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is the shared SQLite handle. A single connection is enough for the
// per-room call rate and sidesteps writer contention entirely.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-heavy claim/grant workload.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS classroom_members (
			user_id TEXT NOT NULL,
			classroom_id TEXT NOT NULL,
			PRIMARY KEY (user_id, classroom_id)
		);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			instance_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			definition_id TEXT NOT NULL,
			quantity INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_user ON inventory_items(user_id);`,
		`CREATE TABLE IF NOT EXISTS equipment (
			user_id TEXT NOT NULL,
			slot TEXT NOT NULL,
			instance_id TEXT NOT NULL,
			definition_id TEXT NOT NULL,
			PRIMARY KEY (user_id, slot)
		);`,
		`CREATE TABLE IF NOT EXISTS currency_balances (
			user_id TEXT NOT NULL,
			currency TEXT NOT NULL,
			balance INTEGER NOT NULL,
			PRIMARY KEY (user_id, currency)
		);`,
		`CREATE TABLE IF NOT EXISTS container_claims (
			object_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			nonce TEXT NOT NULL,
			result_json TEXT NOT NULL,
			claimed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS player_tasks (
			user_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (user_id, task_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
