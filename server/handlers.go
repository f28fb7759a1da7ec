package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/klartext/redakt/analysis"
	"github.com/klartext/redakt/audit"
	"github.com/klartext/redakt/chat"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/ingestion"
	"github.com/klartext/redakt/search"
	"github.com/klartext/redakt/storage"
)

type documentResponse struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	FileType       string    `json:"file_type"`
	CharacterCount int       `json:"character_count"`
	ChunkCount     int       `json:"chunk_count"`
	PIIDetected    bool      `json:"pii_detected"`
	PIISummary     string    `json:"pii_summary"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

type searchRequest struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
	DocumentID string `json:"document_id"`
}

type searchResultResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Filename   string  `json:"filename"`
	Score      float32 `json:"score"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type analyzeRequest struct {
	Text        string `json:"text"`
	MaxKeywords int    `json:"max_keywords"`
	MaxTopics   int    `json:"max_topics"`
}

type topicResponse struct {
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

type auditEntryResponse struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Details   string         `json:"details,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "expected multipart upload with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	receipt, err := s.pipeline.Ingest(r.Context(), header.Filename, content)
	if err != nil {
		s.logger.Error("ingestion failed", "filename", header.Filename, "error", err)
		s.respondError(w, ingestStatus(err), err.Error())
		return
	}

	s.audit(r.Context(), audit.ActionDocumentProcessed, receipt.Filename, map[string]any{
		"document_id": receipt.DocumentID,
		"chunks":      receipt.ChunkCount,
		"pii":         receipt.PIIDetected,
	})

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"id":              receipt.DocumentID,
		"filename":        receipt.Filename,
		"file_type":       receipt.FileType,
		"character_count": receipt.CharacterCount,
		"chunk_count":     receipt.ChunkCount,
		"pii_detected":    receipt.PIIDetected,
		"pii_summary":     receipt.PIISummary,
	})
}

// ingestStatus maps a pipeline failure to an HTTP status.
func ingestStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyFilename),
		errors.Is(err, core.ErrEmptyDocument),
		errors.Is(err, ingestion.ErrEmptyContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", "document", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	erased, err := s.eraser.Erase(r.Context(), id)
	if err != nil {
		s.logger.Error("erase failed", "document", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !erased {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.audit(r.Context(), audit.ActionDocumentDeleted, id, nil)
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "erased"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.searcher.Search(r.Context(), req.Query, req.Limit, req.DocumentID)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		s.logger.Error("search failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r.Context(), audit.ActionSearch, "", map[string]any{"results": len(results)})

	out := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, searchResultResponse{
			ChunkID:    res.Chunk.ID,
			DocumentID: res.Chunk.DocumentID,
			Text:       res.Chunk.Text,
			Filename:   res.Chunk.Filename,
			Score:      res.Score,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.respondError(w, http.StatusNotImplemented, "chat not enabled")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	answer, err := s.chat.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuestion) {
			s.respondError(w, http.StatusBadRequest, "question is required")
			return
		}
		s.logger.Error("chat failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r.Context(), audit.ActionChat, "", map[string]any{"sources": len(answer.Sources)})

	sources := make([]searchResultResponse, 0, len(answer.Sources))
	for _, res := range answer.Sources {
		sources = append(sources, searchResultResponse{
			ChunkID:    res.Chunk.ID,
			DocumentID: res.Chunk.DocumentID,
			Text:       res.Chunk.Text,
			Filename:   res.Chunk.Filename,
			Score:      res.Score,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"answer": answer.Text, "sources": sources})
}

// handleChatStream answers a question over server-sent events. Each
// generated fragment is sent as a "data:" line carrying a JSON object
// with a "delta" field; a final "done" event carries the sources.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.respondError(w, http.StatusNotImplemented, "chat not enabled")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	answer, err := s.chat.AskStream(r.Context(), req.Question, func(chunk string) error {
		payload, err := json.Marshal(map[string]string{"delta": chunk})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.logger.Error("chat stream failed", "error", err)
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", sseErrorPayload(err))
		flusher.Flush()
		return
	}

	s.audit(r.Context(), audit.ActionChat, "", map[string]any{"sources": len(answer.Sources), "stream": true})

	sources := make([]searchResultResponse, 0, len(answer.Sources))
	for _, res := range answer.Sources {
		sources = append(sources, searchResultResponse{
			ChunkID:    res.Chunk.ID,
			DocumentID: res.Chunk.DocumentID,
			Text:       res.Chunk.Text,
			Filename:   res.Chunk.Filename,
			Score:      res.Score,
		})
	}
	done, err := json.Marshal(map[string]any{"answer": answer.Text, "sources": sources})
	if err != nil {
		s.logger.Error("chat stream: encoding done event failed", "error", err)
		return
	}
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", done)
	flusher.Flush()
}

// sseErrorPayload renders an error as the JSON body of an SSE error event.
func sseErrorPayload(err error) []byte {
	payload, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return payload
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.respondError(w, http.StatusNotImplemented, "analysis not enabled")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.analyzer.AnalyzeText(r.Context(), req.Text, req.MaxKeywords, req.MaxTopics)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, "text is required")
			return
		}
		s.logger.Error("text analysis failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(r.Context(), audit.ActionAnalysis, "", map[string]any{
		"keywords":    len(result.Keywords),
		"topics":      len(result.Topics),
		"text_length": result.TextLength,
	})

	s.respondJSON(w, http.StatusOK, map[string]any{
		"keywords":    keywordList(result.Keywords),
		"topics":      toTopicResponses(result.Topics),
		"summary":     result.Summary,
		"text_length": result.TextLength,
	})
}

func (s *Server) handleDocumentAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.respondError(w, http.StatusNotImplemented, "analysis not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	doc, err := s.documents.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("document analysis: load document failed", "document", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	chunkIDs, err := s.index.ChunkIDsByDocument(ctx, id)
	if err != nil {
		s.logger.Error("document analysis: list chunks failed", "document", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(chunkIDs) == 0 {
		s.respondError(w, http.StatusNotFound, "document has no chunks")
		return
	}

	texts := make([]string, 0, len(chunkIDs))
	for _, chunkID := range chunkIDs {
		chunk, err := s.index.GetChunk(ctx, chunkID)
		if err != nil {
			s.logger.Error("document analysis: load chunk failed", "chunk", chunkID, "error", err)
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		texts = append(texts, chunk.Text)
	}

	result, err := s.analyzer.AnalyzeChunks(ctx, texts, 0, 0)
	if err != nil {
		s.logger.Error("document analysis failed", "document", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.audit(ctx, audit.ActionAnalysis, doc.Filename, map[string]any{
		"document_id": id,
		"chunks":      len(texts),
	})

	s.respondJSON(w, http.StatusOK, map[string]any{
		"document_id":     id,
		"filename":        doc.Filename,
		"keywords":        keywordList(result.Keywords),
		"topics":          toTopicResponses(result.Topics),
		"summary":         result.Summary,
		"analyzed_chunks": len(texts),
	})
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.trail == nil {
		s.respondError(w, http.StatusNotImplemented, "audit not enabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := s.trail.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("audit log read failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Actor:     e.Actor,
			Action:    e.Action,
			Details:   e.Details,
			Metadata:  e.Metadata,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// keywordList guards JSON encoding against a nil slice.
func keywordList(keywords []string) []string {
	if keywords == nil {
		return []string{}
	}
	return keywords
}

func toTopicResponses(topics []analysis.Topic) []topicResponse {
	out := make([]topicResponse, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicResponse{
			Name:        t.Name,
			Confidence:  t.Confidence,
			Description: t.Description,
		})
	}
	return out
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.documents.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("stats: count documents failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.index.CountChunks(ctx)
	if err != nil {
		s.logger.Error("stats: count chunks failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"documents": docCount,
		"chunks":    chunkCount,
	}
	if s.trail != nil {
		auditStats, err := s.trail.Stats(ctx)
		if err != nil {
			s.logger.Warn("stats: audit stats failed", "error", err)
		} else {
			resp["audit"] = map[string]any{
				"total_entries": auditStats.TotalEntries,
				"by_action":     auditStats.ByAction,
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// audit records an API action when a trail is attached. Audit failures
// are logged and never fail the request.
func (s *Server) audit(ctx context.Context, action, details string, metadata map[string]any) {
	if s.trail == nil {
		return
	}
	if _, err := s.trail.Log(ctx, "api", action, details, metadata); err != nil {
		s.logger.Warn("audit write failed", "action", action, "error", err)
	}
}

func toDocumentResponse(doc *core.Document) documentResponse {
	return documentResponse{
		ID:             doc.ID,
		Filename:       doc.Filename,
		FileType:       doc.FileType,
		CharacterCount: doc.CharacterCount,
		ChunkCount:     doc.ChunkCount,
		PIIDetected:    doc.PIIDetected,
		PIISummary:     doc.PIISummary,
		UploadedAt:     doc.UploadedAt,
	}
}
