package mock

import (
	"context"
	"hash/fnv"
	"sync"
)

// Embedder is a test double for ai.Embedder. Behavior is overridable per
// function field; without overrides it produces deterministic vectors
// derived from the input text, so equal texts embed equally and different
// texts almost surely do not.
type Embedder struct {
	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions int

	mu        sync.Mutex
	callCount int
}

// NewEmbedder returns a deterministic embedder with 8-dimensional vectors.
func NewEmbedder() *Embedder {
	return &Embedder{Dimensions: 8}
}

func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.callCount++
	e.mu.Unlock()

	if e.EmbedTextFunc != nil {
		return e.EmbedTextFunc(ctx, text)
	}
	return deterministicVector(text, e.dims()), nil
}

func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.callCount++
	e.mu.Unlock()

	if e.EmbedTextsFunc != nil {
		return e.EmbedTextsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, e.dims())
	}
	return vectors, nil
}

// CallCount reports how many embed calls were made.
func (e *Embedder) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

func (e *Embedder) dims() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return 8
}

// deterministicVector hashes text into a fixed-size pseudo-embedding.
func deterministicVector(text string, dims int) []float32 {
	vector := make([]float32, dims)
	h := fnv.New64a()
	for i := range vector {
		h.Write([]byte(text))
		h.Write([]byte{byte(i)})
		vector[i] = float32(h.Sum64()%1000) / 1000.0
	}
	return vector
}
