// Package store provides SQLite-backed persistence for the park backend.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/xenopark/xenopark/internal/domain"
)

// schemaV1 defines the initial database schema.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS crisis_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	day               INTEGER NOT NULL,
	event_name        TEXT NOT NULL,
	severity          TEXT NOT NULL DEFAULT 'low',
	response          TEXT NOT NULL DEFAULT '',
	timed_out         INTEGER NOT NULL DEFAULT 0,
	consequences_json TEXT NOT NULL DEFAULT '[]',
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crisis_log_day ON crisis_log(day);

CREATE TABLE IF NOT EXISTS audit_records (
	id         TEXT PRIMARY KEY,
	day        INTEGER NOT NULL DEFAULT 0,
	category   TEXT NOT NULL,
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	severity   TEXT NOT NULL DEFAULT 'info',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_category ON audit_records(category, created_at);

CREATE TABLE IF NOT EXISTS saves (
	slot       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'manual',
	label      TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL,
	day        INTEGER NOT NULL DEFAULT 0,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	label      TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL,
	day        INTEGER NOT NULL DEFAULT 0,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, domain.WrapEngineError(domain.ErrStoreInit.Code, "migrate schema", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}
