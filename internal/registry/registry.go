// Package registry tracks recently opened project files in a small SQLite
// database, so the CLI can offer a "recent projects" list across runs.
package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added open_count column
const currentSchemaVersion = 1

// Entry is one recently opened project.
type Entry struct {
	Path         string
	DisplayName  string
	LastOpenedAt time.Time
	OpenCount    int
}

// Registry provides durable storage for the recent projects list.
// Uses SQLite with WAL mode for concurrent read access.
type Registry struct {
	db *sql.DB
}

// Open creates or opens the registry database at the given path.
// Applies required pragmas and migrations automatically; idempotent.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to registry database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Touch records that a project was opened now. New paths are inserted;
// known paths get their timestamp refreshed and open count bumped.
func (r *Registry) Touch(ctx context.Context, projectPath string) error {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recent_projects (path, display_name, first_opened_at, last_opened_at, open_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(path) DO UPDATE SET
			last_opened_at = excluded.last_opened_at,
			open_count = open_count + 1
	`, abs, displayName(abs), now, now)
	if err != nil {
		return fmt.Errorf("touch project %s: %w", abs, err)
	}
	return nil
}

// Recent returns up to limit projects, most recently opened first.
func (r *Registry) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path, display_name, last_opened_at, open_count
		FROM recent_projects
		ORDER BY last_opened_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent projects: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var lastOpened string
		if err := rows.Scan(&e.Path, &e.DisplayName, &lastOpened, &e.OpenCount); err != nil {
			return nil, fmt.Errorf("scan recent project: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, lastOpened); perr == nil {
			e.LastOpenedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent projects: %w", err)
	}
	return entries, nil
}

// Forget removes a project from the registry. Reports whether an entry
// was removed; a path not in the registry is not an error.
func (r *Registry) Forget(ctx context.Context, projectPath string) (bool, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return false, fmt.Errorf("resolve project path: %w", err)
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM recent_projects WHERE path = ?", abs)
	if err != nil {
		return false, fmt.Errorf("forget project %s: %w", abs, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// displayName derives the name shown in listings from the file name
// without its extension.
func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 backfills open_count for databases created before the column
// carried a default. New databases get it from schema.sql directly.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec("UPDATE recent_projects SET open_count = 1 WHERE open_count IS NULL")
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
