package search

import (
	"context"
	"testing"
	"time"

	"github.com/klartext/redakt/ai/mock"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/pii"
	storagebadger "github.com/klartext/redakt/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChunks(t *testing.T, index *storagebadger.VectorIndex, docID string, vectors ...[]float32) {
	t.Helper()
	chunks := make([]*core.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID(docID, i),
			Index:      i,
			DocumentID: docID,
			Text:       "masked chunk",
			Vector:     v,
			UploadedAt: time.Now().UTC(),
		}
	}
	require.NoError(t, index.UpsertChunks(context.Background(), chunks...))
}

func newTestSearcher(t *testing.T) (*Searcher, *storagebadger.VectorIndex, *mock.Embedder) {
	t.Helper()
	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	index := storagebadger.NewVectorIndex(backend)
	embedder := mock.NewEmbedder()
	return NewSearcher(index, embedder, pii.NewDetector()), index, embedder
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	s, index, embedder := newTestSearcher(t)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	seedChunks(t, index, "d1",
		[]float32{0, 1, 0},
		[]float32{1, 0, 0},
		[]float32{0.7, 0.7, 0},
	)

	results, err := s.Search(context.Background(), "zahlungsziel", 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, core.ChunkID("d1", 1), results[0].Chunk.ID)
	assert.Equal(t, core.ChunkID("d1", 2), results[1].Chunk.ID)
	assert.Equal(t, core.ChunkID("d1", 0), results[2].Chunk.ID)
}

func TestSearch_MasksQueryBeforeEmbedding(t *testing.T) {
	s, index, embedder := newTestSearcher(t)

	var embeddedQuery string
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		embeddedQuery = text
		return []float32{1, 0}, nil
	}
	seedChunks(t, index, "d1", []float32{1, 0})

	_, err := s.Search(context.Background(), "Nachricht von max@firma.de", 5, "")
	require.NoError(t, err)

	assert.NotContains(t, embeddedQuery, "max@firma.de")
	assert.Contains(t, embeddedQuery, "[EMAIL]")
}

func TestSearch_DocumentFilter(t *testing.T) {
	s, index, embedder := newTestSearcher(t)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	seedChunks(t, index, "d1", []float32{1, 0})
	seedChunks(t, index, "d2", []float32{1, 0})

	results, err := s.Search(context.Background(), "vertrag", 10, "d2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d2", results[0].Chunk.DocumentID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	s, _, _ := newTestSearcher(t)

	_, err := s.Search(context.Background(), "   ", 5, "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_DefaultLimit(t *testing.T) {
	s, index, embedder := newTestSearcher(t)
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	vectors := make([][]float32, DefaultLimit+3)
	for i := range vectors {
		vectors[i] = []float32{1, 0}
	}
	seedChunks(t, index, "d1", vectors...)

	results, err := s.Search(context.Background(), "vertrag", 0, "")
	require.NoError(t, err)
	assert.Len(t, results, DefaultLimit)
}
