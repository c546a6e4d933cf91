package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "versobot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestMigrate(t *testing.T) {
	store := newTestStore(t)

	// Running migrations twice must be a no-op.
	require.NoError(t, store.Migrate(context.Background()))

	count, err := store.CountGenerations(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInsertAndListGenerations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := &Generation{
		Style:      "haiku",
		Theme:      "la lluvia",
		Model:      "test/model",
		VerseCount: 3,
		RawText:    "raw",
		PoemText:   "Gotas caen\nEn el techo de zinc\nLa tierra respira",
		DurationMs: 1200,
	}
	id, err := store.InsertGeneration(ctx, first)
	require.NoError(t, err)
	assert.Positive(t, id)

	failed := &Generation{
		Style: "soneto",
		Theme: "el mar",
		Error: "límite de peticiones alcanzado",
	}
	_, err = store.InsertGeneration(ctx, failed)
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		got, err := store.ListGenerations(ctx, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "soneto", got[0].Style)
		assert.Equal(t, "haiku", got[1].Style)
		assert.Equal(t, 3, got[1].VerseCount)
		assert.NotEmpty(t, got[0].Error)
		assert.False(t, got[1].UsedFallback)
	})

	t.Run("limit respected", func(t *testing.T) {
		got, err := store.ListGenerations(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("count", func(t *testing.T) {
		count, err := store.CountGenerations(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE t (id INTEGER);\n\n-- +migrate Down\nDROP TABLE t;\n"
	assert.Equal(t, "CREATE TABLE t (id INTEGER);", extractUpMigration(content))

	// No markers: whole content is the up migration.
	assert.Equal(t, "CREATE TABLE x (id INTEGER);", extractUpMigration("CREATE TABLE x (id INTEGER);"))
}
