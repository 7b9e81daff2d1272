package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanbanlite/model"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	cache, err := OpenSnapshotCache(path)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	c, _ := newTestCollections(t)
	c.Boards.Seed([]model.Board{{ID: 1, Name: "Roadmap"}})
	c.Items.Seed([]model.Item{{ID: 10, BoardID: 1, ColumnID: 2, Title: "Ship v1"}})

	require.NoError(t, c.Save(ctx, cache))

	// a fresh session warms up from the snapshot before any fetch
	c2, _ := newTestCollections(t)
	require.NoError(t, c2.Load(ctx, cache))

	boards := c2.Boards.Rows()
	require.Len(t, boards, 1)
	assert.Equal(t, "Roadmap", boards[0].Name)

	item, ok := c2.Items.Get("10")
	require.True(t, ok)
	assert.Equal(t, "Ship v1", item.Title)
	assert.True(t, c2.Items.Stale(), "seeded data stays stale until a refetch")
}

func TestSnapshotCacheOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	cache, err := OpenSnapshotCache(path)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.save(ctx, "boards", []model.Board{{ID: 1, Name: "old"}}))
	require.NoError(t, cache.save(ctx, "boards", []model.Board{{ID: 1, Name: "new"}, {ID: 2, Name: "second"}}))

	var rows []model.Board
	loaded, err := cache.load(ctx, "boards", &rows)
	require.NoError(t, err)
	require.True(t, loaded)
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0].Name)
}

func TestSnapshotCacheMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	cache, err := OpenSnapshotCache(path)
	require.NoError(t, err)
	defer cache.Close()

	var rows []model.Board
	loaded, err := cache.load(context.Background(), "never-saved", &rows)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Empty(t, rows)
}
