// Package migrate applies numbered schema migrations to a SQL database.
package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Migration is a single forward schema change
type Migration struct {
	Version int
	Name    string
	Up      string
}

// DB represents either a database connection or transaction
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Migrator applies the migrations found in a filesystem, usually an embed.FS
type Migrator struct {
	db    *sql.DB
	files fs.FS
	dir   string
	table string
}

// NewMigrator creates a migrator reading NNN_name.up.sql files from dir
// within files. Applied versions are tracked in table.
func NewMigrator(db *sql.DB, files fs.FS, dir string, table string) *Migrator {
	if table == "" {
		table = "schema_migrations"
	}
	if dir == "" {
		dir = "."
	}
	return &Migrator{db: db, files: files, dir: dir, table: table}
}

// Migrations loads every migration, ordered by version
func (m *Migrator) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.files, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", m.dir, err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := upPattern.FindStringSubmatch(e.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version number in file %s: %w", e.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d defined by both %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(m.files, joinPath(m.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.ReplaceAll(matches[2], "_", " "),
			Up:      string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// CurrentVersion returns the highest applied version, or 0
func (m *Migrator) CurrentVersion() (int, error) {
	if err := m.createTable(); err != nil {
		return 0, err
	}
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.table)
	if err := m.db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// Pending returns the migrations not yet applied
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}
	all, err := m.Migrations()
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range all {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// MigrateUp applies all pending migrations and returns how many ran
func (m *Migrator) MigrateUp() (int, error) {
	pending, err := m.Pending()
	if err != nil {
		return 0, err
	}
	for i, mig := range pending {
		if err := m.apply(mig); err != nil {
			return i, fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
	}
	return len(pending), nil
}

func (m *Migrator) createTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, m.table)
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

func (m *Migrator) apply(mig Migration) error {
	if strings.TrimSpace(mig.Up) == "" {
		return fmt.Errorf("migration %d has no SQL", mig.Version)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(mig.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if err := setVersion(tx, m.table, mig.Version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}

func setVersion(db DB, table string, version int) error {
	query := fmt.Sprintf("INSERT INTO %s (version) VALUES (?)", table)
	if _, err := db.Exec(query, version); err != nil {
		return fmt.Errorf("failed to update migration version: %w", err)
	}
	return nil
}

// fs.FS paths always use forward slashes
func joinPath(dir, name string) string {
	if dir == "." {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
