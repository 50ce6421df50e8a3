package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	repo := NewEmbeddingCacheRepo(conn)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "hash", "RETRIEVAL_QUERY", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	item := &EmbeddingCacheItem{
		ModelName:   "hash",
		TaskType:    "RETRIEVAL_QUERY",
		ContentHash: "abc",
		Embedding:   []float32{0.5, 0.25},
		Ctime:       1700000000,
	}
	require.NoError(t, repo.Save(ctx, item))

	got, ok, err := repo.Get(ctx, "hash", "RETRIEVAL_QUERY", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.25}, got)

	// Upsert replaces the stored vector.
	item.Embedding = []float32{1, 1}
	require.NoError(t, repo.Save(ctx, item))
	got, ok, err = repo.Get(ctx, "hash", "RETRIEVAL_QUERY", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 1}, got)
}

func TestEmbeddingCacheDeleteBefore(t *testing.T) {
	conn := openTestDB(t)
	repo := NewEmbeddingCacheRepo(conn)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &EmbeddingCacheItem{
		ModelName: "hash", TaskType: "", ContentHash: "old",
		Embedding: []float32{1}, Ctime: 100,
	}))
	require.NoError(t, repo.Save(ctx, &EmbeddingCacheItem{
		ModelName: "hash", TaskType: "", ContentHash: "new",
		Embedding: []float32{1}, Ctime: 200,
	}))

	deleted, err := repo.DeleteBefore(ctx, 150)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, ok, err := repo.Get(ctx, "hash", "", "new")
	require.NoError(t, err)
	assert.True(t, ok)
}
