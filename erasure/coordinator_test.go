package erasure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/storage"
	storagebadger "github.com/klartext/redakt/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) (storage.DocumentRepository, storage.VectorIndex) {
	t.Helper()
	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return storagebadger.NewDocumentRepository(backend), storagebadger.NewVectorIndex(backend)
}

func seedDocument(t *testing.T, docs storage.DocumentRepository, index storage.VectorIndex, docID string, chunkCount int) {
	t.Helper()
	ctx := context.Background()

	chunks := make([]*core.Chunk, chunkCount)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID(docID, i),
			Index:      i,
			DocumentID: docID,
			Text:       "masked text",
			Vector:     []float32{1, 0},
			UploadedAt: time.Now().UTC(),
		}
	}
	require.NoError(t, index.UpsertChunks(ctx, chunks...))
	require.NoError(t, docs.AddDocument(ctx, &core.Document{
		ID:         docID,
		Filename:   docID + ".txt",
		FileType:   "txt",
		ChunkCount: chunkCount,
		UploadedAt: time.Now().UTC(),
	}))
}

func TestErase_RemovesBothHomes(t *testing.T) {
	docs, index := newTestStores(t)
	seedDocument(t, docs, index, "d1", 3)
	c := NewCoordinator(docs, index)
	ctx := context.Background()

	erased, err := c.Erase(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, erased)

	_, err = docs.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := index.ChunkIDsByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	count, err := index.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestErase_SecondCallReturnsFalse(t *testing.T) {
	docs, index := newTestStores(t)
	seedDocument(t, docs, index, "d1", 2)
	c := NewCoordinator(docs, index)
	ctx := context.Background()

	erased, err := c.Erase(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, erased)

	erased, err = c.Erase(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, erased)
}

func TestErase_UnknownDocument(t *testing.T) {
	docs, index := newTestStores(t)
	c := NewCoordinator(docs, index)

	erased, err := c.Erase(context.Background(), "never-existed")
	require.NoError(t, err)
	assert.False(t, erased)
}

func TestErase_OrphanedMetadataCleanedUp(t *testing.T) {
	docs, index := newTestStores(t)
	ctx := context.Background()

	// Metadata without chunks, as a failed partial erase would leave it.
	require.NoError(t, docs.AddDocument(ctx, &core.Document{
		ID: "orphan", Filename: "o.txt", UploadedAt: time.Now().UTC(),
	}))

	c := NewCoordinator(docs, index)
	erased, err := c.Erase(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, erased)

	_, err = docs.GetDocument(ctx, "orphan")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestErase_EmptyID(t *testing.T) {
	docs, index := newTestStores(t)
	c := NewCoordinator(docs, index)

	_, err := c.Erase(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

// purgeFailIndex fails chunk deletion to exercise partial-failure reporting.
type purgeFailIndex struct {
	storage.VectorIndex
}

func (f *purgeFailIndex) DeleteChunks(ctx context.Context, ids ...string) (int, error) {
	return 0, errors.New("index offline")
}

func TestErase_IndexPurgeFailureRetainsMetadata(t *testing.T) {
	docs, index := newTestStores(t)
	seedDocument(t, docs, index, "d1", 1)
	c := NewCoordinator(docs, &purgeFailIndex{VectorIndex: index})
	ctx := context.Background()

	erased, err := c.Erase(ctx, "d1")
	require.Error(t, err)
	assert.False(t, erased)
	assert.Contains(t, err.Error(), "metadata record retained")

	// The metadata record survives, so the erase can be retried.
	_, err = docs.GetDocument(ctx, "d1")
	assert.NoError(t, err)
}
