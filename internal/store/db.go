// Package store is the Catalog Store (C5, spec §4.5): a single-file,
// concurrent-reader-safe sqlite database plus one repository per entity.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Open opens (and creates, if absent) the sqlite database at path and
// applies any pending migrations. WAL mode is enabled so one writer and
// many concurrent readers can operate on the same file, matching the
// "concurrent-reader-safe" requirement (spec §4.5).
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	// A single connection avoids SQLITE_BUSY under WAL. The cap covers every
	// connection in this pool, so reads and writes from this process take
	// turns on it; readers in other processes are not affected.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	log.Printf("store: opened %s", path)
	return db, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)

	for _, f := range entries {
		name := strings.TrimPrefix(f, "migrations/")
		version := strings.TrimSuffix(name, ".up.sql")

		var exists bool
		if err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		content, err := migrationFiles.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		log.Printf("store: applying migration %s", name)
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
	}

	return nil
}
