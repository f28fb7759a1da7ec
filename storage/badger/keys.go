package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	docRecordPrefix   = "docrec"
	chunkRecordPrefix = "churec"
	chunkDocPrefix    = "chudoc"
)

// makeDocumentKey generates a key for a document metadata record by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", docRecordPrefix, id))
}

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chunkRecordPrefix, id))
}

// makeChunkDocKey generates a composite key for the per-document chunk
// index. Format: prefix:documentID:index, with the index in BigEndian so
// lexicographic iteration yields chunks in document order.
func makeChunkDocKey(documentID string, index int) []byte {
	prefix := fmt.Sprintf("%s:%s:", chunkDocPrefix, documentID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialChunkDocKey generates the iteration prefix covering all chunk
// index entries of one document.
func makePartialChunkDocKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkDocPrefix, documentID))
}
