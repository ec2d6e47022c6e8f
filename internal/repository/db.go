package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// pragmas applied on every open: WAL and a generous busy timeout keep
// concurrent pipeline runs from failing on writer contention.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    original_filename TEXT NOT NULL,
    file_size         INTEGER NOT NULL,
    width             INTEGER NOT NULL,
    height            INTEGER NOT NULL,
    storage_name      TEXT NOT NULL,
    room_type         TEXT,
    description       TEXT,
    upload_time       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_user ON images(user_id);

CREATE TABLE IF NOT EXISTS processed_images (
    id                TEXT PRIMARY KEY,
    original_image_id TEXT NOT NULL REFERENCES images(id),
    user_id           TEXT NOT NULL,
    color_code        TEXT NOT NULL,
    color_name        TEXT NOT NULL,
    storage_name      TEXT NOT NULL,
    region_data       TEXT NOT NULL,
    surface_type      TEXT NOT NULL DEFAULT 'wall',
    blend_mode        TEXT NOT NULL DEFAULT 'normal',
    opacity           REAL NOT NULL DEFAULT 0.8,
    processing_time   REAL NOT NULL DEFAULT 0,
    created_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_user ON processed_images(user_id);
CREATE INDEX IF NOT EXISTS idx_processed_original ON processed_images(original_image_id);

CREATE TABLE IF NOT EXISTS demo_images (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT,
    storage_name   TEXT NOT NULL,
    thumbnail_name TEXT,
    room_type      TEXT NOT NULL,
    style          TEXT,
    width          INTEGER NOT NULL,
    height         INTEGER NOT NULL,
    is_active      INTEGER NOT NULL DEFAULT 1,
    created_at     TIMESTAMP NOT NULL
);
`

// Open connects to the SQLite database at path, applies the production
// pragmas and creates the schema. The parent directory is created when
// missing. Pass ":memory:" for an ephemeral database (tests).
func Open(path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// The pure-Go driver serialises access per connection; a single
	// connection avoids table-lock races and is required for :memory:.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
