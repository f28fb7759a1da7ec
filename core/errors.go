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

import "errors"

// Domain errors
var (
	// ErrUnsupportedFileType indicates an upload with a file type the
	// extractor cannot handle.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyDocument indicates that extraction produced no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyDocumentID indicates a missing document identifier.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyFilename indicates a missing filename.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidChunkIndex indicates a negative chunk index.
	ErrInvalidChunkIndex = errors.New("chunk index cannot be negative")

	// ErrChunkIDMismatch indicates a chunk ID that does not derive from its
	// document ID and index.
	ErrChunkIDMismatch = errors.New("chunk id does not match document id and index")
)
