package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/stashplan/internal/storage/postgres"
	"github.com/cory-johannsen/stashplan/internal/testutil"
)

func TestMigrate_RejectsBadArguments(t *testing.T) {
	_, err := postgres.Migrate(testutil.MigrationsDir(), "postgres://unused", "sideways", 0)
	assert.ErrorContains(t, err, "invalid direction")

	_, err = postgres.Migrate(testutil.MigrationsDir(), "postgres://unused", postgres.DirectionUp, -1)
	assert.ErrorContains(t, err, "steps")
}

func TestMigrate_UpDownUp(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	dir := testutil.MigrationsDir()

	res, err := postgres.Migrate(dir, pc.DSN(), postgres.DirectionUp, 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(1), res.Version)
	assert.False(t, res.Dirty)

	res, err = postgres.Migrate(dir, pc.DSN(), postgres.DirectionUp, 0)
	require.NoError(t, err)
	assert.False(t, res.Changed, "second up is a no-op")

	_, err = postgres.Migrate(dir, pc.DSN(), postgres.DirectionDown, 1)
	require.NoError(t, err)
	var exists bool
	require.NoError(t, pc.RawPool.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'account_settings')`,
	).Scan(&exists))
	assert.False(t, exists)

	res, err = postgres.Migrate(dir, pc.DSN(), postgres.DirectionUp, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), res.Version)
}
