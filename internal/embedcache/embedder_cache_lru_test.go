package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.vec, nil
}

func (c *countingEmbedder) ModelName() string { return "hash" }

func TestLRUCachesRepeatedText(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2, 3}}
	e := WrapLRU(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), "same text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "same text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestLRUKeySeparatesTaskTypes(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	e := WrapLRU(inner, 16, time.Minute)

	_, err := e.Embed(context.Background(), "text", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestLRUDoesNotCacheFailures(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	e := WrapLRU(inner, 16, time.Minute)

	_, err := e.Embed(context.Background(), "text", "")
	require.Error(t, err)
	_, err = e.Embed(context.Background(), "text", "")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestLRUReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2}}
	e := WrapLRU(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), "text", "")
	require.NoError(t, err)
	first[0] = 99
	second, err := e.Embed(context.Background(), "text", "")
	require.NoError(t, err)
	assert.Equal(t, float32(1), second[0])
}

func TestWrapLRUDisabled(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	assert.Equal(t, inner, WrapLRU(inner, 0, time.Minute))
	assert.Equal(t, inner, WrapLRU(inner, 16, 0))
	assert.Nil(t, WrapLRU(nil, 16, time.Minute))
}

func TestBuildCacheKey(t *testing.T) {
	keyA, hashA, modelA := buildCacheKey("hash", "RETRIEVAL_QUERY", "text")
	keyB, hashB, _ := buildCacheKey("hash", "RETRIEVAL_QUERY", "text")
	assert.Equal(t, keyA, keyB)
	assert.Equal(t, hashA, hashB)
	assert.Equal(t, "hash", modelA)

	keyC, _, _ := buildCacheKey("other", "RETRIEVAL_QUERY", "text")
	assert.NotEqual(t, keyA, keyC)

	_, _, model := buildCacheKey("  ", "", "text")
	assert.Equal(t, "unknown", model)
}
