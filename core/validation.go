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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Filename must not be empty
//   - ChunkCount and CharacterCount must not be negative
//
// NOT validated:
//   - PIISummary (empty is valid for documents without PII)
//   - ContentHash (zero is a legal, if unlikely, digest)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocumentID)
	}
	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}
	if doc.ChunkCount < 0 {
		return fmt.Errorf("%w: chunk count cannot be negative", ErrInvalidDocument)
	}
	if doc.CharacterCount < 0 {
		return fmt.Errorf("%w: character count cannot be negative", ErrInvalidDocument)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - Index must not be negative
//   - ID must equal ChunkID(DocumentID, Index)
//
// NOT validated:
//   - Vector (set by the embedding stage, may be empty before it)
//   - Text (an empty masked chunk is legal)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidChunkIndex)
	}
	if chunk.ID != ChunkID(chunk.DocumentID, chunk.Index) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrChunkIDMismatch)
	}
	return nil
}
