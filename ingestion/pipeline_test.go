package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/klartext/redakt/ai/mock"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/extract"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/storage"
	storagebadger "github.com/klartext/redakt/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	documents storage.DocumentRepository
	index     storage.VectorIndex
	provider  *mock.Provider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return &testEnv{
		documents: storagebadger.NewDocumentRepository(backend),
		index:     storagebadger.NewVectorIndex(backend),
		provider:  mock.NewProvider(),
	}
}

func newTestPipeline(t *testing.T, env *testEnv, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(env.documents, env.index, env.provider, pii.NewDetector(), extract.NewExtractor(), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestIngest_CommitsDocument(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPipeline(t, env)
	ctx := context.Background()

	content := []byte("Kontakt: max@firma.de, Tel: 030 12345678. Weitere Angaben folgen im Anhang.")
	receipt, err := p.Ingest(ctx, "kontakt.txt", content)
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.DocumentID)
	assert.Equal(t, "kontakt.txt", receipt.Filename)
	assert.Equal(t, "txt", receipt.FileType)
	assert.True(t, receipt.PIIDetected)
	assert.Contains(t, receipt.PIISummary, "email")
	assert.Greater(t, receipt.ChunkCount, 0)

	doc, err := env.documents.GetDocument(ctx, receipt.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ChunkCount, doc.ChunkCount)
	assert.Equal(t, core.HashContent(content), doc.ContentHash)

	ids, err := env.index.ChunkIDsByDocument(ctx, receipt.DocumentID)
	require.NoError(t, err)
	assert.Len(t, ids, receipt.ChunkCount)

	// Stored chunk text is masked and carries a vector.
	chunk, err := env.index.GetChunk(ctx, ids[0])
	require.NoError(t, err)
	assert.NotContains(t, chunk.Text, "max@firma.de")
	assert.Contains(t, chunk.Text, "[EMAIL]")
	assert.NotEmpty(t, chunk.Vector)
}

func TestIngest_MasksBeforeEmbedding(t *testing.T) {
	env := newTestEnv(t)

	var mu sync.Mutex
	var embedded []string
	env.provider.Emb.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		embedded = append(embedded, text)
		mu.Unlock()
		return []float32{1, 0}, nil
	}

	p := newTestPipeline(t, env)

	_, err := p.Ingest(context.Background(), "mail.txt", []byte("Bitte an max@firma.de schreiben."))
	require.NoError(t, err)

	require.NotEmpty(t, embedded)
	for _, text := range embedded {
		assert.NotContains(t, text, "max@firma.de")
		assert.Contains(t, text, "[EMAIL]")
	}
}

func TestIngest_EmptyExtraction(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPipeline(t, env)

	_, err := p.Ingest(context.Background(), "leer.txt", []byte("   \n\t  "))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.ErrorIs(t, err, core.ErrEmptyDocument)
}

func TestIngest_UnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPipeline(t, env)

	_, err := p.Ingest(context.Background(), "bild.png", []byte{0x89, 0x50})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)
}

func TestIngest_EmptyFilename(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPipeline(t, env)

	_, err := p.Ingest(context.Background(), "", []byte("inhalt"))
	assert.ErrorIs(t, err, core.ErrEmptyFilename)
}

func TestIngest_EmbedFailureLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	embedErr := errors.New("embedding backend down")
	env.provider.Emb.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, embedErr
	}

	p := newTestPipeline(t, env)
	ctx := context.Background()

	_, err := p.Ingest(ctx, "doc.txt", []byte("Ein Dokument ohne besondere Angaben."))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageEmbed, stageErr.Stage)
	assert.ErrorIs(t, err, embedErr)

	count, err := env.documents.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	chunks, err := env.index.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, chunks)
}

// failingIndex wraps a VectorIndex and fails every upsert.
type failingIndex struct {
	storage.VectorIndex
}

func (f *failingIndex) UpsertChunks(ctx context.Context, chunks ...*core.Chunk) error {
	return errors.New("index unavailable")
}

func TestIngest_IndexFailureLeavesNoMetadata(t *testing.T) {
	env := newTestEnv(t)
	p, err := NewPipeline(env.documents, &failingIndex{VectorIndex: env.index}, env.provider,
		pii.NewDetector(), extract.NewExtractor())
	require.NoError(t, err)
	t.Cleanup(p.Release)
	ctx := context.Background()

	_, err = p.Ingest(ctx, "doc.txt", []byte("Ein Dokument ohne besondere Angaben."))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageIndex, stageErr.Stage)

	count, err := env.documents.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIngest_ChunkOrderPreserved(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPipeline(t, env, WithChunkSize(60), WithChunkOverlap(0), WithPoolSize(4))
	ctx := context.Background()

	var text strings.Builder
	for i := 0; i < 20; i++ {
		text.WriteString("Dies ist ein laengerer Satz mit ausreichend vielen Zeichen. ")
	}

	receipt, err := p.Ingest(ctx, "lang.txt", []byte(text.String()))
	require.NoError(t, err)
	require.Greater(t, receipt.ChunkCount, 1)

	ids, err := env.index.ChunkIDsByDocument(ctx, receipt.DocumentID)
	require.NoError(t, err)
	require.Len(t, ids, receipt.ChunkCount)
	for i, id := range ids {
		assert.Equal(t, core.ChunkID(receipt.DocumentID, i), id)

		chunk, err := env.index.GetChunk(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i, chunk.Index)
	}
}
