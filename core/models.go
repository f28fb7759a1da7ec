package core

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash is a 64-bit digest of a document's raw bytes.
// It is stored in the metadata record so that re-uploads of identical
// content can be recognised without keeping the content itself.
type ContentHash uint64

// HashContent computes a deterministic ContentHash using BLAKE2b.
func HashContent(data []byte) ContentHash {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ContentHash(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the identifier of a chunk from its parent document ID and
// zero-based index. The format is stable and must not change: persisted
// indexes reference chunks by exactly this string.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// Document is the metadata record for one uploaded artifact.
// The record is written exactly once, after all of the document's chunks
// have been indexed, and removed only by whole-document erasure.
type Document struct {
	ID             string
	Filename       string
	FileType       string
	CharacterCount int
	ChunkCount     int
	PIIDetected    bool
	PIISummary     string
	ContentHash    ContentHash
	UploadedAt     time.Time
}

// Chunk is a bounded slice of a document's masked text together with its
// embedding vector. A chunk is never built from unmasked text: masking
// strictly precedes embedding and storage. Chunks are immutable once written
// and are deleted only as part of whole-document erasure.
type Chunk struct {
	ID         string
	Index      int
	DocumentID string
	Text       string
	Vector     []float32

	// Denormalised document fields for retrieval-time display.
	Filename   string
	UploadedAt time.Time
}

// PIIType tags a detected span with the kind of personal data it holds.
type PIIType string

// The closed set of PII types. The first ten are detected by the pattern
// table; the last three come from the entity recognizer.
const (
	PIITypeEmail           PIIType = "email"
	PIITypePhone           PIIType = "phone"
	PIITypeIBAN            PIIType = "iban"
	PIITypeBIC             PIIType = "bic"
	PIITypePostalCode      PIIType = "postal_code"
	PIITypeDate            PIIType = "date"
	PIITypeTaxID           PIIType = "tax_id"
	PIITypeSocialInsurance PIIType = "social_insurance"
	PIITypeCreditCard      PIIType = "credit_card"
	PIITypeIPAddress       PIIType = "ip_address"
	PIITypePerson          PIIType = "person"
	PIITypeOrganization    PIIType = "organization"
	PIITypeLocation        PIIType = "location"
)

// PIIMatch is one detected span. Start and End are half-open byte offsets
// into the exact text that produced the match; they become meaningless once
// any replacement has been applied to that text.
type PIIMatch struct {
	Type        PIIType
	Value       string
	Start       int
	End         int
	Replacement string
}

// PIIResult bundles the outcome of one detection pass over one text unit.
// MaskedText is produced by exactly one masking pass over OriginalText;
// masking MaskedText again yields MaskedText unchanged.
type PIIResult struct {
	OriginalText string
	MaskedText   string
	PIIDetected  bool
	Matches      []PIIMatch
}

// Summary renders a human-readable distribution of the detected PII types,
// e.g. "2x email, 1x phone". Types are listed alphabetically so the output
// is stable.
func (r *PIIResult) Summary() string {
	if len(r.Matches) == 0 {
		return "Keine PII erkannt"
	}

	counts := make(map[PIIType]int)
	for _, m := range r.Matches {
		counts[m.Type]++
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%dx %s", counts[PIIType(t)], t))
	}
	return strings.Join(parts, ", ")
}

// SearchResult is a chunk match from vector similarity search.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}
