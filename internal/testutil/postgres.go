// Package testutil starts throwaway PostgreSQL databases for storage tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
)

const (
	postgresImage  = "postgres:16-alpine"
	dbUser         = "stashplan"
	dbPassword     = "stashplan"
	dbName         = "stashplan_test"
	startupTimeout = time.Minute
)

// PostgresContainer is a running database and the pools connected to it.
// Both are torn down when the test ends.
type PostgresContainer struct {
	Pool    *postgres.Pool
	RawPool *pgxpool.Pool
	Config  config.DatabaseConfig
}

// NewPostgresContainer starts an empty database. Tests are skipped under
// -short since Docker is required.
func NewPostgresContainer(t testing.TB) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	start := time.Now()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     dbUser,
				"POSTGRES_PASSWORD": dbPassword,
				"POSTGRES_DB":       dbName,
			},
			// The entrypoint restarts the server once after init.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	require.NoError(t, err, "starting %s", postgresImage)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            dbUser,
		Password:        dbPassword,
		Name:            dbName,
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	}
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err, "connecting to %s:%d", host, port.Int())
	t.Cleanup(pool.Close)

	t.Logf("postgres ready at %s:%d in %s", host, port.Int(), time.Since(start).Round(time.Millisecond))
	return &PostgresContainer{Pool: pool, RawPool: pool.DB(), Config: cfg}
}

// DSN is the container's connection string.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}

// ApplyMigrations brings the container's schema to the latest version.
func (pc *PostgresContainer) ApplyMigrations(t testing.TB) {
	t.Helper()
	res, err := postgres.Migrate(MigrationsDir(), pc.DSN(), postgres.DirectionUp, 0)
	require.NoError(t, err, "applying migrations")
	require.False(t, res.Dirty, "schema left dirty at version %d", res.Version)
}

// NewPool returns a pool on a freshly migrated database.
func NewPool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.RawPool
}

// MigrationsDir is the absolute path of the repository's migrations directory.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
