package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubGoose swaps the goose seams for the duration of a test.
func stubGoose(t *testing.T, up, down, status func(context.Context, *sql.DB, string) error) {
	t.Helper()
	origUp, origDown, origStatus := gooseUp, gooseDown, gooseStatus
	t.Cleanup(func() { gooseUp, gooseDown, gooseStatus = origUp, origDown, origStatus })
	if up != nil {
		gooseUp = func(ctx context.Context, db *sql.DB, dir string, _ ...goose.OptionsFunc) error { return up(ctx, db, dir) }
	}
	if down != nil {
		gooseDown = func(ctx context.Context, db *sql.DB, dir string, _ ...goose.OptionsFunc) error { return down(ctx, db, dir) }
	}
	if status != nil {
		gooseStatus = func(ctx context.Context, db *sql.DB, dir string, _ ...goose.OptionsFunc) error { return status(ctx, db, dir) }
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "migrations/00001_create_users_items.sql")
}

func TestMigrate(t *testing.T) {
	var gotDir string
	stubGoose(t, func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}, nil, nil)

	require.NoError(t, Migrate(context.Background(), nil, zap.NewNop().Sugar()))
	assert.Equal(t, migrationsDir, gotDir)
}

func TestMigrate_WrapsError(t *testing.T) {
	boom := errors.New("dirty database")
	stubGoose(t, func(context.Context, *sql.DB, string) error { return boom }, nil, nil)

	err := Migrate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "migrate up")
}

func TestMigrateDownAndStatus(t *testing.T) {
	var calls []string
	stubGoose(t, nil,
		func(context.Context, *sql.DB, string) error { calls = append(calls, "down"); return nil },
		func(context.Context, *sql.DB, string) error { calls = append(calls, "status"); return nil },
	)

	require.NoError(t, MigrateDown(context.Background(), nil, nil))
	require.NoError(t, MigrationStatus(context.Background(), nil, nil))
	assert.Equal(t, []string{"down", "status"}, calls)
}
