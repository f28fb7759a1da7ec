// Package extract provides plain-text extraction from uploaded document
// formats.
package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/klartext/redakt/core"
)

// supportedTypes is the closed set of ingestible file types, keyed by
// normalized type name (extension without the dot, lowercase).
var supportedTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"txt":  true,
	"md":   true,
}

// Extractor extracts plain text from document file contents.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		logger: slog.Default().With("component", "extractor"),
	}
}

// Extract returns the text content of a document given its raw bytes and
// normalized file type (see NormalizeFileType). Unsupported types return
// core.ErrUnsupportedFileType.
func (e *Extractor) Extract(content []byte, fileType string) (string, error) {
	switch fileType {
	case "pdf":
		return extractPDF(content)
	case "docx":
		return extractDOCX(content)
	case "txt", "md":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, fileType)
	}
}

// Supported reports whether the normalized file type can be extracted.
func Supported(fileType string) bool {
	return supportedTypes[fileType]
}

// NormalizeFileType derives the normalized type name from a filename:
// the extension, lowercased, without the leading dot.
func NormalizeFileType(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
