package persistence

import (
	"blogsmith/internal/logger"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// Migration is one versioned schema file.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus pairs a known migration with whether it has run.
type MigrationStatus struct {
	Version     int
	Description string
	Applied     bool
}

// Migrator applies the embedded schema files for the store's dialect.
type Migrator struct {
	db    *SQLDB
	files fs.FS
	log   *slog.Logger
}

// NewMigrator returns a Migrator over the embedded files.
func NewMigrator(db *SQLDB) *Migrator {
	return &Migrator{db: db, files: migrationFiles, log: logger.Get()}
}

// Up applies every pending migration in version order and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	statuses, all, err := m.plan(ctx)
	if err != nil {
		return 0, err
	}

	ran := 0
	for i, s := range statuses {
		if s.Applied {
			continue
		}
		if err := m.apply(ctx, all[i]); err != nil {
			return ran, fmt.Errorf("migration %03d: %w", s.Version, err)
		}
		ran++
	}
	if ran > 0 {
		m.log.Info("Schema up to date", "driver", m.db.Driver(), "applied", ran)
	}
	return ran, nil
}

// Status lists every embedded migration for the dialect.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	statuses, _, err := m.plan(ctx)
	return statuses, err
}

// plan reads the embedded files and the applied versions. Both results share an index.
func (m *Migrator) plan(ctx context.Context) ([]MigrationStatus, []Migration, error) {
	if _, err := m.db.db.ExecContext(ctx, m.db.dialect.migrationsDDL); err != nil {
		return nil, nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, nil, err
	}
	all, err := readMigrations(m.files, m.db.dialect.migrationsDir)
	if err != nil {
		return nil, nil, err
	}

	statuses := make([]MigrationStatus, len(all))
	for i, mig := range all {
		statuses[i] = MigrationStatus{Version: mig.Version, Description: mig.Description, Applied: applied[mig.Version]}
	}
	return statuses, all, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// apply runs one file and records its version in the same transaction.
func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	m.log.Info("Applying migration", "version", mig.Version, "description", mig.Description)

	tx, err := m.db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return err
	}
	record, args, err := m.db.dialect.builder().
		Insert("schema_migrations").
		Columns("version", "description").
		Values(mig.Version, mig.Description).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// readMigrations loads dir's .sql files sorted by version.
func readMigrations(files fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, description, ok := parseMigrationName(e.Name())
		if !ok {
			continue
		}
		body, err := fs.ReadFile(files, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: version, Description: description, SQL: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// parseMigrationName splits "001_create_articles.sql" into 1 and "create articles".
func parseMigrationName(name string) (int, string, bool) {
	base, ok := strings.CutSuffix(name, ".sql")
	if !ok {
		return 0, "", false
	}
	num, rest, ok := strings.Cut(base, "_")
	if !ok || rest == "" {
		return 0, "", false
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", false
	}
	return version, strings.ReplaceAll(rest, "_", " "), true
}
