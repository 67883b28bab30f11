package library

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS library_entry (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id   INTEGER REFERENCES library_entry(id) ON DELETE CASCADE,
	variant     TEXT NOT NULL,
	name        TEXT NOT NULL,
	sort_key    INTEGER NOT NULL DEFAULT 0,
	played_at   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS track_source (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	library_entry_id INTEGER NOT NULL REFERENCES library_entry(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	url              TEXT,
	file             BLOB,
	spotify_id       TEXT,
	spotify_type     TEXT
);

CREATE TABLE IF NOT EXISTS system_config (
	id     INTEGER PRIMARY KEY CHECK (id = 1),
	volume INTEGER NOT NULL DEFAULT 50
);

CREATE TABLE IF NOT EXISTS spotify_config (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	client_id     TEXT NOT NULL DEFAULT '',
	secret_key    TEXT NOT NULL DEFAULT '',
	access_token  TEXT,
	refresh_token TEXT,
	expired_at    TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_library_entry_parent ON library_entry(parent_id);
CREATE INDEX IF NOT EXISTS idx_track_source_entry ON track_source(library_entry_id);
`

// Open opens (or creates) the jukebox database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the library and config tables and seeds the two
// single-row config tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO system_config (id) VALUES (1)`); err != nil {
		return fmt.Errorf("seed system_config: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO spotify_config (id) VALUES (1)`); err != nil {
		return fmt.Errorf("seed spotify_config: %w", err)
	}
	return nil
}
