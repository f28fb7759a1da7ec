// Package ingestion provides pipeline orchestration for document uploads.
//
// The Pipeline type runs each document through a fixed sequence of stages:
// extraction, chunking, PII masking, embedding, batch indexing, and the
// final metadata commit. Masking always precedes embedding, so raw PII
// never reaches the embedder or the index. Within the mask and embed
// stages, the chunks of a document are processed concurrently on worker
// pools.
//
// Ingestion is synchronous and at-most-once: the first stage failure
// aborts the document with a StageError and it is never retried. Because
// chunks are indexed in a single batch and the metadata record is written
// last, a failed document leaves no metadata behind.
package ingestion
