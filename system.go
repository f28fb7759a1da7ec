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


package redakt

import (
	"log/slog"
	"path/filepath"

	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/ai/openai"
	"github.com/klartext/redakt/analysis"
	"github.com/klartext/redakt/audit"
	"github.com/klartext/redakt/chat"
	"github.com/klartext/redakt/erasure"
	"github.com/klartext/redakt/extract"
	"github.com/klartext/redakt/ingestion"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/search"
	"github.com/klartext/redakt/storage"
	"github.com/klartext/redakt/storage/badger"
)

// System wires the stores, the AI provider and the PII detector
// together. It is the single entry point for embedding redakt into a
// process; the HTTP server, the CLI and the inbox watcher all run on
// top of one System.
type System struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	index     storage.VectorIndex
	provider  ai.Provider
	detector  *pii.Detector
	extractor *extract.Extractor
	trail     *audit.Trail
	logger    *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
	noAudit  bool
}

// WithAIConfig sets the AI service configuration. Ignored when a
// provider is injected with WithProvider.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects an already-built AI provider instead of
// constructing the OpenAI-compatible one from configuration.
func WithProvider(provider ai.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the vector store in memory. The audit trail still
// goes to disk unless disabled.
func WithInMemory() SystemOption {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// WithoutAudit disables the audit trail.
func WithoutAudit() SystemOption {
	return func(o *systemOptions) {
		o.noAudit = true
	}
}

// NewSystem opens the stores under dataDir and builds the shared
// services. Close must be called to release them.
func NewSystem(dataDir string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	storePath := filepath.Join(dataDir, "store")
	if options.inMemory {
		storePath = ""
	}
	backend, err := badger.OpenBackend(storePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	var trail *audit.Trail
	if !options.noAudit {
		trail, err = audit.Open(dataDir)
		if err != nil {
			provider.Close()
			backend.Close()
			return nil, err
		}
	}

	detectorOpts := []pii.Option{}
	if recognizer := provider.EntityRecognizer(); recognizer != nil {
		detectorOpts = append(detectorOpts, pii.WithRecognizer(recognizer))
	}

	return &System{
		backend:   backend,
		documents: badger.NewDocumentRepository(backend),
		index:     badger.NewVectorIndex(backend),
		provider:  provider,
		detector:  pii.NewDetector(detectorOpts...),
		extractor: extract.NewExtractor(),
		trail:     trail,
		logger:    slog.Default(),
	}, nil
}

// Close releases the provider, the audit trail and the store, in that
// order.
func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if s.trail != nil {
		if err := s.trail.Close(); err != nil {
			s.logger.Error("error closing audit trail", "err", err)
		}
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *System) DocumentRepository() storage.DocumentRepository {
	return s.documents
}

func (s *System) VectorIndex() storage.VectorIndex {
	return s.index
}

func (s *System) Detector() *pii.Detector {
	return s.detector
}

func (s *System) AuditTrail() *audit.Trail {
	return s.trail
}

func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.documents, s.index, s.provider, s.detector, s.extractor, opts...)
}

func (s *System) NewEraser(opts ...erasure.Option) *erasure.Coordinator {
	return erasure.NewCoordinator(s.documents, s.index, opts...)
}

func (s *System) NewSearcher(opts ...search.Option) *search.Searcher {
	return search.NewSearcher(s.index, s.provider.Embedder(), s.detector, opts...)
}

func (s *System) NewChat(opts ...chat.Option) *chat.Chat {
	return chat.NewChat(s.NewSearcher(), s.provider.Generator(), s.detector, opts...)
}

func (s *System) NewAnalyzer(opts ...analysis.Option) *analysis.Analyzer {
	return analysis.NewAnalyzer(s.provider.Generator(), s.detector, opts...)
}
