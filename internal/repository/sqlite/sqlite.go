// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE?
// SQLite is embedded: the whole database is one file next to the binary, so a
// personal notes server needs no separate database process. ":memory:" gives
// tests a throwaway database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite. No CGo, so cross-compiling the server
// is just `GOOS=... go build`.
//
// DATABASE/SQL RECAP:
//   - sql.DB   is a connection pool, not a single connection
//   - QueryRowContext + Scan for one row, QueryContext + rows.Next for many
//   - ExecContext for INSERT/UPDATE/DELETE; RowsAffected tells us if a row matched
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	// Also registers the "sqlite" driver with database/sql.
	sqlitedriver "modernc.org/sqlite"
)

// fold(x) lowercases text with Go's Unicode tables. SQLite's own lower() and
// LIKE only fold ASCII, so keyword search goes through this instead.
func init() {
	if err := sqlitedriver.RegisterDeterministicScalarFunction("fold", 1, foldFunc); err != nil {
		panic(fmt.Sprintf("sqlite: registering fold(): %v", err))
	}
}

func foldFunc(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return fold(v), nil
	case []byte:
		return fold(string(v)), nil
	default:
		return nil, fmt.Errorf("fold: unsupported argument type %T", v)
	}
}

func fold(s string) string {
	return strings.ToLower(s)
}

// DB wraps a sql.DB connection pool. It implements both
// repository.NoteRepository and repository.UserRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/notekeep.db" → file-based database
//   - ":memory:"         → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// IN-MEMORY GOTCHA:
	// Every new connection to ":memory:" gets its OWN empty database. With a
	// pool of several connections, a table created on one would be missing on
	// another. Pinning the pool to a single connection keeps one database.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the driver options we rely on.
//
// _time_format=sqlite makes the driver write time.Time values as
// "2006-01-02 15:04:05.999999999-07:00". All timestamps are stored in UTC, so
// ORDER BY created_at on that text sorts chronologically.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_time_format=sqlite"
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool. Call it once, at shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it idempotent.
//
// notes.user_id deliberately has no foreign key: ownership is enforced by the
// owner filter on every query, and deleting users is out of scope.
// notes.tags holds a JSON array of strings; queries reach into it with json_each.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT '[]',
			pinned     INTEGER NOT NULL DEFAULT 0,
			color      TEXT NOT NULL DEFAULT 'yellow',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating notes table: %w", err)
	}

	return nil
}
