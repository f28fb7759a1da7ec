package storage

import (
	"context"

	"github.com/klartext/redakt/core"
)

// Repository provides operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository manages document metadata records. A metadata record
// is written exactly once, after the document's chunks are indexed, and
// removed only by whole-document erasure.
type DocumentRepository interface {
	Repository

	// AddDocument writes a document metadata record.
	// Returns ErrDuplicateKey if a record with the same ID already exists.
	AddDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// ListDocuments retrieves all document records, ordered by upload time
	// descending (most recent first).
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document metadata record.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id string) error

	// CountDocuments returns the number of stored document records.
	CountDocuments(ctx context.Context) (int, error)
}

// VectorIndex stores chunk records with their embedding vectors and serves
// similarity queries over them. Together with the DocumentRepository it
// forms the two physical homes of a logical chunk; the erasure coordinator
// is the only caller allowed to remove a chunk from both.
type VectorIndex interface {
	Repository

	// UpsertChunks writes chunk records in a single transaction.
	// Either every chunk of the batch becomes visible or none does.
	UpsertChunks(ctx context.Context, chunks ...*core.Chunk) error

	// Query finds chunks similar to the given vector, ordered by cosine
	// similarity descending, up to limit results. An empty documentID
	// searches all documents; otherwise results are restricted to that
	// document's chunks.
	Query(ctx context.Context, vector []float32, limit int, documentID string) ([]*core.SearchResult, error)

	// ChunkIDsByDocument returns the IDs of all chunks belonging to a
	// document, ordered by chunk index. An unknown document yields an
	// empty slice, not an error.
	ChunkIDsByDocument(ctx context.Context, documentID string) ([]string, error)

	// GetChunk retrieves a single chunk record by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id string) (*core.Chunk, error)

	// DeleteChunks removes chunk records and their per-document index
	// entries. IDs that do not exist are skipped; the count of actually
	// removed chunks is returned.
	DeleteChunks(ctx context.Context, ids ...string) (int, error)

	// CountChunks returns the number of stored chunk records.
	CountChunks(ctx context.Context) (int, error)
}
