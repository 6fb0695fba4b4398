package postgres

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/coinledger/migrations"
)

func TestEmbeddedMigrationsAreSequential(t *testing.T) {
	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	count := 1
	for {
		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, version+1, next)

		down, _, err := src.ReadDown(next)
		require.NoError(t, err, "migration %d has no down file", next)
		_ = down.Close()

		version = next
		count++
	}

	assert.Equal(t, 4, count)
}

func TestNewMigratorMissingDirectory(t *testing.T) {
	_, err := NewMigrator("postgres://invalid:5432/db", "/nonexistent/migrations")
	assert.Error(t, err)

	assert.Error(t, RunMigrations("postgres://invalid:5432/db", "/nonexistent/migrations"))
}
