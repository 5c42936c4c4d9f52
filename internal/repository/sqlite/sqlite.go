// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, cross-compiles
// like any other Go package. The whole store is one file next to the binary
// (or ":memory:" in tests).
//
// ONE CONNECTION:
// SQLite has a single writer anyway, and an in-memory database only exists on
// the connection that created it. The pool is therefore capped at one
// connection, which also makes the PRAGMAs below apply to every query.
// Nothing in this package holds *sql.Rows open while issuing another query.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/students.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers of the file proceed during a write; busy_timeout makes a
	// second process wait instead of failing with SQLITE_BUSY.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. Every statement is idempotent, so it runs on
// every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id                       TEXT PRIMARY KEY,
			name                     TEXT NOT NULL,
			email                    TEXT NOT NULL DEFAULT '',
			university               TEXT NOT NULL DEFAULT '',
			faculty                  TEXT NOT NULL DEFAULT '',
			major                    TEXT NOT NULL DEFAULT '',
			university_id            TEXT NOT NULL DEFAULT '',
			academic_year            TEXT NOT NULL DEFAULT '',
			enrollment_date          TEXT NOT NULL DEFAULT '',
			valid_until              TEXT NOT NULL DEFAULT '',
			status                   TEXT NOT NULL DEFAULT 'active',

			profile_image            TEXT NOT NULL DEFAULT '',
			official_documents_image TEXT NOT NULL DEFAULT '',
			national_id_image        TEXT NOT NULL DEFAULT '',
			university_card_image    TEXT NOT NULL DEFAULT '',
			schedule_image           TEXT NOT NULL DEFAULT '',
			schedule_image_file_name TEXT NOT NULL DEFAULT '',
			certificate1_image       TEXT NOT NULL DEFAULT '',

			github                   TEXT NOT NULL DEFAULT '',
			linkedin                 TEXT NOT NULL DEFAULT '',
			whatsapp                 TEXT NOT NULL DEFAULT '',
			instagram                TEXT NOT NULL DEFAULT '',
			tiktok                   TEXT NOT NULL DEFAULT '',
			youtube                  TEXT NOT NULL DEFAULT '',
			spotify                  TEXT NOT NULL DEFAULT '',
			facebook                 TEXT NOT NULL DEFAULT '',
			x                        TEXT NOT NULL DEFAULT '',
			threads                  TEXT NOT NULL DEFAULT '',
			snapchat                 TEXT NOT NULL DEFAULT '',
			instapay                 TEXT NOT NULL DEFAULT '',
			phone                    TEXT NOT NULL DEFAULT '',

			cv_url                   TEXT NOT NULL DEFAULT '',
			cv_file_name             TEXT NOT NULL DEFAULT '',

			public_link              TEXT NOT NULL UNIQUE,
			private_link             TEXT NOT NULL,
			edit_password            TEXT NOT NULL DEFAULT '',

			visit_count              INTEGER NOT NULL DEFAULT 0 CHECK (visit_count >= 0),
			last_viewed              DATETIME,
			linkedin_clicks          INTEGER NOT NULL DEFAULT 0 CHECK (linkedin_clicks >= 0),
			github_clicks            INTEGER NOT NULL DEFAULT 0 CHECK (github_clicks >= 0),
			instagram_clicks         INTEGER NOT NULL DEFAULT 0 CHECK (instagram_clicks >= 0),
			tiktok_clicks            INTEGER NOT NULL DEFAULT 0 CHECK (tiktok_clicks >= 0),
			youtube_clicks           INTEGER NOT NULL DEFAULT 0 CHECK (youtube_clicks >= 0),

			created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_students_created_at ON students(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating students table: %w", err)
	}

	// The CHECK pins the singleton: a second row cannot exist.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS admin (
			id            INTEGER PRIMARY KEY CHECK (id = 1),
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating admin table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
