// Package sqlitemigrate applies embedded SQL migrations to a SQLite
// database. Each .sql file runs at most once; applied files are tracked in a
// schema_migrations table.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const (
	trackingTable = "schema_migrations"
	upMarker      = "-- +migrate Up"
	downMarker    = "-- +migrate Down"
)

// ApplyMigrations runs the pending .sql files under dir in lexical order.
// An empty dir means the root of the filesystem.
func ApplyMigrations(sqlDB *sql.DB, migrationFS fs.FS, dir string) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}

	files, err := listMigrations(migrationFS, dir)
	if err != nil {
		return err
	}

	if _, err := sqlDB.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`, trackingTable)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range files {
		applied, err := isApplied(sqlDB, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		upSQL := UpSection(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		if err := applyOne(sqlDB, name, upSQL); err != nil {
			return err
		}
	}
	return nil
}

func listMigrations(migrationFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func applyOne(sqlDB *sql.DB, name, upSQL string) error {
	tx, err := sqlDB.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}

	if _, err := tx.Exec(upSQL); err != nil {
		// Re-running DDL that already took effect is not a failure.
		if !isAlreadyExists(err) {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", trackingTable),
		name,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

// UpSection returns the SQL between the up and down markers. Files without
// markers run in full.
func UpSection(content string) string {
	up := strings.Index(content, upMarker)
	if up == -1 {
		return content
	}
	body := content[up+len(upMarker):]
	if down := strings.Index(body, downMarker); down != -1 {
		body = body[:down]
	}
	return body
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}

func isApplied(sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRow("SELECT 1 FROM "+trackingTable+" WHERE name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
