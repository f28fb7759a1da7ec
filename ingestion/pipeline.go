// Copyright 2026 Klartext Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/chunker"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/extract"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/storage"
)

// Pipeline orchestrates document ingestion: extraction, chunking, PII
// masking, embedding, indexing and the final metadata commit. Stages run
// strictly in order per document; within the mask and embed stages the
// chunks of a document are processed concurrently.
//
// Ingestion is at-most-once. The first stage failure aborts the document;
// nothing already written by a later stage exists at that point, because
// the vector index is written in one batch and metadata is committed last.
type Pipeline struct {
	documents storage.DocumentRepository
	index     storage.VectorIndex
	detector  *pii.Detector
	extractor *extract.Extractor
	embedder  ai.Embedder

	maskPool  *ants.Pool
	embedPool *ants.Pool

	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Receipt summarizes one committed document.
type Receipt struct {
	DocumentID     string
	Filename       string
	FileType       string
	CharacterCount int
	ChunkCount     int
	PIIDetected    bool
	PIISummary     string
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent chunk processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.maskPool != nil {
			p.maskPool.Release()
		}
		if p.embedPool != nil {
			p.embedPool.Release()
		}

		maskPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		embedPool, err := ants.NewPool(size)
		if err != nil {
			maskPool.Release()
			return err
		}

		p.maskPool = maskPool
		p.embedPool = embedPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks in characters.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap >= 0 {
			p.chunkOverlap = overlap
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	index storage.VectorIndex,
	provider ai.Provider,
	detector *pii.Detector,
	extractor *extract.Extractor,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	maskPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	embedPool, err := ants.NewPool(poolSize)
	if err != nil {
		maskPool.Release()
		return nil, err
	}

	p := &Pipeline{
		documents:    documents,
		index:        index,
		detector:     detector,
		extractor:    extractor,
		embedder:     provider.Embedder(),
		maskPool:     maskPool,
		embedPool:    embedPool,
		chunkSize:    chunker.DefaultTargetSize,
		chunkOverlap: chunker.DefaultOverlapSize,
		logger:       slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest runs one document through the full pipeline and blocks until the
// metadata commit. On failure it returns a *StageError naming the stage;
// a failed document leaves no metadata record behind.
func (p *Pipeline) Ingest(ctx context.Context, filename string, content []byte) (*Receipt, error) {
	if filename == "" {
		return nil, p.fail("", StageExtract, core.ErrEmptyFilename)
	}
	if len(content) == 0 {
		return nil, p.fail("", StageExtract, ErrEmptyContent)
	}

	docID := uuid.NewString()
	fileType := extract.NormalizeFileType(filename)
	uploadedAt := time.Now().UTC()

	p.transition(docID, StateReceived, "filename", filename, "type", fileType, "bytes", len(content))

	// Extract
	text, err := p.extractor.Extract(content, fileType)
	if err != nil {
		return nil, p.fail(docID, StageExtract, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, p.fail(docID, StageExtract, core.ErrEmptyDocument)
	}
	p.transition(docID, StateExtracted, "characters", len(text))

	// Chunk
	chunks := chunker.Chunk(text, p.chunkSize, p.chunkOverlap)
	if len(chunks) == 0 {
		return nil, p.fail(docID, StageChunk, core.ErrEmptyDocument)
	}
	p.transition(docID, StateChunked, "chunks", len(chunks))

	// Mask, one worker per chunk. Detection degrades internally when the
	// recognizer is unavailable, so this stage cannot fail.
	results := p.maskChunks(ctx, chunks)
	merged := pii.Merge(results)
	p.transition(docID, StateMasked, "pii_detected", merged.PIIDetected)

	maskedTexts := make([]string, len(results))
	for i, result := range results {
		maskedTexts[i] = result.MaskedText
	}

	// Embed masked text only. Unmasked chunk text never reaches the
	// embedder or the index.
	vectors, err := p.embedChunks(ctx, maskedTexts)
	if err != nil {
		return nil, p.fail(docID, StageEmbed, err)
	}
	p.transition(docID, StateEmbedded)

	// Index in a single batch.
	records := make([]*core.Chunk, len(maskedTexts))
	for i, masked := range maskedTexts {
		records[i] = &core.Chunk{
			ID:         core.ChunkID(docID, i),
			Index:      i,
			DocumentID: docID,
			Text:       masked,
			Vector:     vectors[i],
			Filename:   filename,
			UploadedAt: uploadedAt,
		}
	}
	if err := p.index.UpsertChunks(ctx, records...); err != nil {
		return nil, p.fail(docID, StageIndex, err)
	}
	p.transition(docID, StateIndexed)

	// Commit metadata last. Its presence marks the document complete.
	doc := &core.Document{
		ID:             docID,
		Filename:       filename,
		FileType:       fileType,
		CharacterCount: len(text),
		ChunkCount:     len(records),
		PIIDetected:    merged.PIIDetected,
		PIISummary:     merged.Summary(),
		ContentHash:    core.HashContent(content),
		UploadedAt:     uploadedAt,
	}
	if err := p.documents.AddDocument(ctx, doc); err != nil {
		return nil, p.fail(docID, StageCommit, err)
	}
	p.transition(docID, StateCommitted, "chunks", len(records))

	return &Receipt{
		DocumentID:     docID,
		Filename:       filename,
		FileType:       fileType,
		CharacterCount: len(text),
		ChunkCount:     len(records),
		PIIDetected:    merged.PIIDetected,
		PIISummary:     merged.Summary(),
	}, nil
}

// maskChunks runs PII detection with masking over all chunks concurrently,
// preserving chunk order in the result.
func (p *Pipeline) maskChunks(ctx context.Context, chunks []string) []*core.PIIResult {
	results := make([]*core.PIIResult, len(chunks))
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		i, chunk := i, chunk
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = p.detector.Detect(ctx, chunk, true)
		}
		if err := p.maskPool.Submit(task); err != nil {
			// Pool rejected the task; run it inline.
			task()
		}
	}
	wg.Wait()

	return results
}

// embedChunks embeds every masked chunk concurrently, preserving order.
// The first failure wins; remaining workers still drain but their results
// are discarded.
func (p *Pipeline) embedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, text := range texts {
		i, text := i, text
		wg.Add(1)
		task := func() {
			defer wg.Done()
			vector, err := p.embedder.EmbedText(ctx, text)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			vectors[i] = vector
		}
		if err := p.embedPool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// transition logs the entry into a pipeline state.
func (p *Pipeline) transition(docID string, state State, args ...any) {
	args = append([]any{"document", docID, "state", state}, args...)
	p.logger.Info("pipeline state", args...)
}

// fail logs the terminal failure of a document and builds its StageError.
func (p *Pipeline) fail(docID string, stage Stage, err error) *StageError {
	p.logger.Error("pipeline state",
		"document", docID, "state", StateFailed, "stage", stage, "err", err)
	return &StageError{Stage: stage, Err: err}
}

// Release releases the worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.maskPool != nil {
		p.maskPool.Release()
	}
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}
