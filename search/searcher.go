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


package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/storage"
)

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific count.
const DefaultLimit = 5

// Searcher answers similarity queries over the masked chunk index.
//
// Queries are masked with the same detector the ingestion pipeline uses
// before they are embedded. The index holds only masked text, so a query
// carrying raw PII (an email address, say) would otherwise embed far from
// every stored chunk; masking the query maps it into the same space.
type Searcher struct {
	index    storage.VectorIndex
	embedder ai.Embedder
	detector *pii.Detector
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSearcher creates a searcher over the given index.
func NewSearcher(index storage.VectorIndex, embedder ai.Embedder, detector *pii.Detector, opts ...Option) *Searcher {
	s := &Searcher{
		index:    index,
		embedder: embedder,
		detector: detector,
		logger:   slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search retrieves the chunks most similar to the query, best first.
// A limit <= 0 falls back to DefaultLimit; an empty documentID searches
// all documents.
func (s *Searcher) Search(ctx context.Context, query string, limit int, documentID string) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	masked := s.detector.Detect(ctx, query, true).MaskedText

	vector, err := s.embedder.EmbedText(ctx, masked)
	if err != nil {
		s.logger.Error("failed to embed query", "err", err)
		return nil, err
	}

	results, err := s.index.Query(ctx, vector, limit, documentID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search complete", "results", len(results), "limit", limit)
	return results, nil
}
