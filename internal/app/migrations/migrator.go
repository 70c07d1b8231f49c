package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolroll/internal/pkg/logger"
)

// Migrator applies plain .sql files in filename order and records each
// applied version in schema_migrations.
type Migrator struct {
	db *pgxpool.Pool
}

// NewMigrator creates a new migrator
func NewMigrator(db *pgxpool.Pool) *Migrator {
	return &Migrator{db: db}
}

func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// VersionFromFilename returns the numeric prefix of a migration file
// ("001_init.sql" => "001").
func VersionFromFilename(filename string) string {
	return strings.SplitN(filepath.Base(filename), "_", 2)[0]
}

// MigrateFromFile applies a single migration file inside a transaction.
// It reports whether the file was applied (false when already recorded).
func (m *Migrator) MigrateFromFile(ctx context.Context, filePath string) (bool, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return false, err
	}

	filename := filepath.Base(filePath)
	version := VersionFromFilename(filename)

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return false, err
	}
	if applied {
		logger.Debug().Str("file", filename).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	err = pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", filename, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info().Str("file", filename).Msg("Migration applied")
	return true, nil
}

// SQLFiles lists the .sql files of dirPath in the order they are applied.
func SQLFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(dirPath, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// MigrateFromDirectory applies every pending .sql file in dirPath and returns
// how many were applied.
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dirPath string) (int, error) {
	files, err := SQLFiles(dirPath)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, file := range files {
		applied, err := m.MigrateFromFile(ctx, file)
		if err != nil {
			return count, err
		}
		if applied {
			count++
		}
	}
	return count, nil
}
