// Package store is the persistent substrate: an embedded DuckDB database
// holding named tables that survive process restarts. It owns the single
// connection and exposes table-level primitives; query results leave as
// Arrow IPC stream bytes only.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/quarrydata/quarry/internal/dataset"
)

// InMemoryPath is the reported path of a scratch (non-persistent) store.
const InMemoryPath = ":memory:"

// Store wraps one DuckDB connection. The connection is not used
// concurrently; callers serialize access (the session holds the lock).
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens a DuckDB database file at the given path.
func Open(path string) (*Store, error) {
	return open(path, path)
}

// OpenInMemory creates a transient in-memory database for scratch use.
func OpenInMemory() (*Store, error) {
	return open("", InMemoryPath)
}

func open(dsn, reported string) (*Store, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, dataset.Wrap(dataset.CodeStore, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, dataset.Wrap(dataset.CodeStore, err)
	}

	// One writer, one connection: DuckDB serializes writes per database
	// and the session serializes callers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: reported}, nil
}

// configure applies fixed tuning for interactive desktop workloads:
// no progress reporting, and insertion order preserved so previews are
// deterministic.
func configure(db *sql.DB) error {
	settings := []string{
		"SET enable_progress_bar = false",
		"SET preserve_insertion_order = true",
	}
	for _, stmt := range settings {
		if _, err := db.Exec(stmt); err != nil {
			return dataset.Wrap(dataset.CodeStore, fmt.Errorf("apply %q: %w", stmt, err))
		}
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path, or ":memory:" for scratch stores.
func (s *Store) Path() string {
	return s.path
}

// storeErr wraps an engine failure as a STORE_ERROR unless the chain is
// already typed, so underlying messages pass through verbatim exactly once.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var de *dataset.Error
	if errors.As(err, &de) {
		return err
	}
	return dataset.Wrap(dataset.CodeStore, err)
}

// sanitizeTableName maps every rune outside [letter, digit, underscore] to
// an underscore. Entry points accepting raw names (import, run-to-table)
// call this exactly once; every other method interpolates a name assumed
// already sanitized or confirmed to exist via ListTables. That internal
// trust boundary is a documented property of this package.
func sanitizeTableName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// quoteIdent wraps an identifier in double quotes for interpolation.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quotePath escapes a filesystem path for embedding in a SQL string literal.
func quotePath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", "''") + "'"
}
