package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/josh-kwaku/audit-validator/internal/logging"
)

const migrationSuffix = ".up.sql"

// Migrate applies every *.up.sql file in dir that has not been applied yet,
// in file name order. Applied versions are recorded in schema_migrations.
func Migrate(ctx context.Context, db *sql.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("Migrate: read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), migrationSuffix) {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	); err != nil {
		return fmt.Errorf("Migrate: schema_migrations: %w", err)
	}

	log := logging.FromContext(ctx)
	for _, f := range files {
		version := strings.TrimSuffix(f, migrationSuffix)
		applied, err := applyMigration(ctx, db, filepath.Join(dir, f), version)
		if err != nil {
			return fmt.Errorf("Migrate: %w", err)
		}
		if applied {
			log.Info("migration applied", "version", version)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, path, version string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("applyMigration %s: %w", version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("applyMigration %s: %w", version, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`, version,
	)
	if err != nil {
		return false, fmt.Errorf("applyMigration %s: record: %w", version, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("applyMigration %s: rows affected: %w", version, err)
	} else if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return false, fmt.Errorf("applyMigration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("applyMigration %s: commit: %w", version, err)
	}
	return true, nil
}
