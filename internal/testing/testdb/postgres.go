// Package testdb runs a shared PostgreSQL testcontainer for repository
// integration tests.
package testdb

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yigit/schoolroll/internal/app/migrations"
	"github.com/yigit/schoolroll/internal/db"
)

// Tables lists every application table in truncation order.
var Tables = []string{
	"attendances", "subject_teacher", "subject_student", "students",
	"student_groups", "users", "subjects", "departments",
}

var (
	sharedOnce sync.Once
	shared     *db.PostgresDB
	sharedErr  error
)

// MigrationsDir is the repository's migrations directory.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// Shared starts (once per test binary) a PostgreSQL container with every
// migration applied. Tests using it must not run in parallel. It skips under
// -short and when no container runtime is reachable.
func Shared(t *testing.T) *db.PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("schoolroll_test"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		if err != nil {
			sharedErr = err
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			sharedErr = err
			return
		}

		database, err := db.Connect(ctx, dsn, db.PoolOptions{MaxConns: 5})
		if err != nil {
			sharedErr = err
			return
		}

		if _, err := migrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, MigrationsDir()); err != nil {
			sharedErr = err
			return
		}
		shared = database
	})

	require.NoError(t, sharedErr, "failed to start postgres container")
	return shared
}

// Truncate empties every application table and resets sequences.
func Truncate(t *testing.T, database *db.PostgresDB) {
	t.Helper()
	_, err := database.Pool.Exec(context.Background(),
		"TRUNCATE "+strings.Join(Tables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err, "failed to truncate tables")
}
