package badger

import (
	"context"
	"testing"
	"time"

	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(docID string, index int, vector []float32) *core.Chunk {
	return &core.Chunk{
		ID:         core.ChunkID(docID, index),
		Index:      index,
		DocumentID: docID,
		Text:       "chunk text",
		Vector:     vector,
		Filename:   docID + ".txt",
		UploadedAt: time.Now().UTC(),
	}
}

func TestVectorIndex_UpsertAndGet(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))
	ctx := context.Background()
	chunk := testChunk("d1", 0, []float32{1, 0, 0})

	require.NoError(t, index.UpsertChunks(ctx, chunk))

	got, err := index.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Text, got.Text)
	assert.Equal(t, chunk.Vector, got.Vector)
}

func TestVectorIndex_GetMissing(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))

	_, err := index.GetChunk(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVectorIndex_QueryOrdering(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))
	ctx := context.Background()

	require.NoError(t, index.UpsertChunks(ctx,
		testChunk("d1", 0, []float32{1, 0, 0}),
		testChunk("d1", 1, []float32{0.9, 0.1, 0}),
		testChunk("d1", 2, []float32{0, 1, 0}),
	))

	results, err := index.Query(ctx, []float32{1, 0, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, core.ChunkID("d1", 0), results[0].Chunk.ID)
	assert.Equal(t, core.ChunkID("d1", 1), results[1].Chunk.ID)
	assert.Equal(t, core.ChunkID("d1", 2), results[2].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.0001)
}

func TestVectorIndex_QueryLimitAndFilter(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))
	ctx := context.Background()

	require.NoError(t, index.UpsertChunks(ctx,
		testChunk("d1", 0, []float32{1, 0, 0}),
		testChunk("d1", 1, []float32{1, 0, 0}),
		testChunk("d2", 0, []float32{1, 0, 0}),
	))

	results, err := index.Query(ctx, []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = index.Query(ctx, []float32{1, 0, 0}, 10, "d2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d2", results[0].Chunk.DocumentID)

	_, err = index.Query(ctx, []float32{1, 0, 0}, 0, "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestVectorIndex_ChunkIDsByDocument(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))
	ctx := context.Background()

	// Insert out of order; the index key keeps them sorted.
	require.NoError(t, index.UpsertChunks(ctx,
		testChunk("d1", 2, []float32{1}),
		testChunk("d1", 0, []float32{1}),
		testChunk("d1", 1, []float32{1}),
		testChunk("d2", 0, []float32{1}),
	))

	ids, err := index.ChunkIDsByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		core.ChunkID("d1", 0),
		core.ChunkID("d1", 1),
		core.ChunkID("d1", 2),
	}, ids)

	ids, err = index.ChunkIDsByDocument(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVectorIndex_DeleteChunks(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))
	ctx := context.Background()

	require.NoError(t, index.UpsertChunks(ctx,
		testChunk("d1", 0, []float32{1}),
		testChunk("d1", 1, []float32{1}),
	))

	removed, err := index.DeleteChunks(ctx, core.ChunkID("d1", 0), "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = index.GetChunk(ctx, core.ChunkID("d1", 0))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The per-document index entry is gone too.
	ids, err := index.ChunkIDsByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{core.ChunkID("d1", 1)}, ids)
}

func TestVectorIndex_Count(t *testing.T) {
	index := NewVectorIndex(newTestBackend(t))
	ctx := context.Background()

	count, err := index.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, index.UpsertChunks(ctx,
		testChunk("d1", 0, []float32{1}),
		testChunk("d2", 0, []float32{1}),
	))

	count, err = index.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 0.0001)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 0.0001)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
