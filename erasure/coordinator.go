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


package erasure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/klartext/redakt/storage"
)

// Coordinator removes a document from both of its physical homes: the
// vector index first, then the metadata record. It is the only code path
// allowed to break that duality. Ordering matters: if the index purge
// fails, the metadata record survives and a later erase can retry; the
// reverse order could leave indexed chunks with no record of their origin.
type Coordinator struct {
	documents storage.DocumentRepository
	index     storage.VectorIndex
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewCoordinator creates an erasure coordinator over the two stores.
func NewCoordinator(documents storage.DocumentRepository, index storage.VectorIndex, opts ...Option) *Coordinator {
	c := &Coordinator{
		documents: documents,
		index:     index,
		logger:    slog.Default().With("component", "erasure"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Erase removes every trace of a document. It returns true when chunks
// were actually removed from the index, false when the document had no
// indexed chunks; erasing an already-erased document is a harmless no-op
// that returns false.
//
// A partial failure is reported as an error naming the step that failed;
// whatever was already removed stays removed.
func (c *Coordinator) Erase(ctx context.Context, documentID string) (bool, error) {
	if documentID == "" {
		return false, storage.ErrInvalidQuery
	}

	chunkIDs, err := c.index.ChunkIDsByDocument(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("list chunks of %s: %w", documentID, err)
	}

	if len(chunkIDs) == 0 {
		// No indexed chunks. Clean up an orphaned metadata record if one
		// exists, but report the erase as a no-op either way.
		if err := c.documents.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("delete orphaned metadata of %s: %w", documentID, err)
		}
		c.logger.Info("nothing to erase", "document", documentID)
		return false, nil
	}

	// Index purge strictly before metadata delete.
	removed, err := c.index.DeleteChunks(ctx, chunkIDs...)
	if err != nil {
		return false, fmt.Errorf("purge index of %s: metadata record retained: %w", documentID, err)
	}

	if err := c.documents.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("delete metadata of %s: index already purged: %w", documentID, err)
	}

	c.logger.Info("document erased", "document", documentID, "chunks", removed)
	return true, nil
}
