package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"

	"tutorattend/internal/store/migrations"
)

const (
	sqliteMigrationTable   = "schema_migrations"
	postgresMigrationTable = "schema_version"
)

// Migrate brings the schema up to date for the DB's dialect.
func (d *DB) Migrate(ctx context.Context) error {
	switch d.Dialect {
	case SQLite:
		sub, err := fs.Sub(migrations.SQLite, "sqlite")
		if err != nil {
			return fmt.Errorf("sqlite migrations subtree: %w", err)
		}
		return applySQLiteMigrations(ctx, d.Client, sub)
	case Postgres:
		return applyPostgresMigrations(ctx, d.url)
	default:
		return fmt.Errorf("unknown dialect %q", d.Dialect)
	}
}

// applySQLiteMigrations executes every *.sql file in lexical order, at most
// once each, recording applied names in schema_migrations.
func applySQLiteMigrations(ctx context.Context, db *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+sqliteMigrationTable+` (
			name       TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		applied, err := isApplied(ctx, db, file)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied {
			continue
		}
		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+sqliteMigrationTable+` (name, applied_at) VALUES (?, ?)`,
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM `+sqliteMigrationTable+` WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// applyPostgresMigrations runs the embedded tern migrations over a dedicated
// connection.
func applyPostgresMigrations(ctx context.Context, connString string) error {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, postgresMigrationTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}
	sub, err := fs.Sub(migrations.Postgres, "postgres")
	if err != nil {
		return fmt.Errorf("postgres migrations subtree: %w", err)
	}
	if err := m.LoadMigrations(sub); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}
	return m.Migrate(ctx)
}
