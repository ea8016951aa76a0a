package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
	"github.com/cory-johannsen/stashplan/internal/testutil"
)

func dbConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            "db.internal",
		Port:            6543,
		User:            "planner",
		Password:        "secret",
		Name:            "stash",
		SSLMode:         "disable",
		MaxConns:        7,
		MinConns:        2,
		MaxConnLifetime: 3 * time.Minute,
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := postgres.PoolConfig(dbConfig())
	require.NoError(t, err)

	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 3*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(6543), pc.ConnConfig.Port)
	assert.Equal(t, "stash", pc.ConnConfig.Database)
	assert.Equal(t, "stashplan", pc.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_BadSSLMode(t *testing.T) {
	cfg := dbConfig()
	cfg.SSLMode = "sometimes"
	_, err := postgres.PoolConfig(cfg)
	assert.ErrorContains(t, err, "parsing database config")
}

func TestNewPool_HealthyAndTagged(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	require.NoError(t, pc.Pool.Health(ctx, time.Second))

	var app string
	require.NoError(t, pc.RawPool.QueryRow(ctx, "SELECT current_setting('application_name')").Scan(&app))
	assert.Equal(t, "stashplan", app)
}
