// Package server provides the HTTP API for the redakt service.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klartext/redakt/analysis"
	"github.com/klartext/redakt/audit"
	"github.com/klartext/redakt/chat"
	"github.com/klartext/redakt/erasure"
	"github.com/klartext/redakt/ingestion"
	"github.com/klartext/redakt/search"
	"github.com/klartext/redakt/storage"
)

// maxUploadBytes bounds the size of one uploaded document.
const maxUploadBytes = 32 << 20

// Server is the HTTP server for the redakt API.
type Server struct {
	pipeline  *ingestion.Pipeline
	documents storage.DocumentRepository
	index     storage.VectorIndex
	eraser    *erasure.Coordinator
	searcher  *search.Searcher
	chat      *chat.Chat
	analyzer  *analysis.Analyzer
	trail     *audit.Trail
	logger    *slog.Logger
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAuditTrail attaches an audit trail; API actions are recorded to it.
// Without one, actions are not audited.
func WithAuditTrail(trail *audit.Trail) Option {
	return func(s *Server) {
		s.trail = trail
	}
}

// WithChat enables the chat endpoints. Without one, POST /api/v1/chat
// and POST /api/v1/chat/stream respond 501.
func WithChat(c *chat.Chat) Option {
	return func(s *Server) {
		s.chat = c
	}
}

// WithAnalyzer enables the text analysis endpoints. Without one they
// respond 501.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Server) {
		s.analyzer = a
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipeline *ingestion.Pipeline,
	documents storage.DocumentRepository,
	index storage.VectorIndex,
	eraser *erasure.Coordinator,
	searcher *search.Searcher,
	opts ...Option,
) *Server {
	s := &Server{
		pipeline:  pipeline,
		documents: documents,
		index:     index,
		eraser:    eraser,
		searcher:  searcher,
		logger:    slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/v1/documents", s.handleUpload)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Delete("/api/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/api/v1/documents/{id}/analysis", s.handleDocumentAnalysis)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/chat", s.handleChat)
	r.Post("/api/v1/chat/stream", s.handleChatStream)
	r.Post("/api/v1/analyze", s.handleAnalyzeText)
	r.Get("/api/v1/audit", s.handleAuditLog)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server on addr and blocks until it stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
