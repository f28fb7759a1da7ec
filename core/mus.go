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

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ErrNegativeLength indicates a corrupted length prefix in serialized data.
var ErrNegativeLength = errors.New("negative length prefix")

// DocumentMUS serializes Document values in MUS format. Timestamps are
// stored as microseconds since the Unix epoch; sub-microsecond precision
// is not preserved.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.Filename)
	size += ord.String.Size(v.FileType)
	size += varint.Int.Size(v.CharacterCount)
	size += varint.Int.Size(v.ChunkCount)
	size += ord.Bool.Size(v.PIIDetected)
	size += ord.String.Size(v.PIISummary)
	size += varint.Uint64.Size(uint64(v.ContentHash))
	size += varint.Int64.Size(v.UploadedAt.UnixMicro())
	return size
}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += ord.String.Marshal(v.FileType, bs[n:])
	n += varint.Int.Marshal(v.CharacterCount, bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	n += ord.Bool.Marshal(v.PIIDetected, bs[n:])
	n += ord.String.Marshal(v.PIISummary, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.ContentHash), bs[n:])
	n += varint.Int64.Marshal(v.UploadedAt.UnixMicro(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	if v.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.FileType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CharacterCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PIIDetected, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.PIISummary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var hash uint64
	if hash, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.ContentHash = ContentHash(hash)
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.UploadedAt = time.UnixMicro(micros).UTC()
	return v, n, nil
}

// ChunkMUS serializes Chunk values in MUS format. The vector is stored as
// a varint length prefix followed by its elements.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Size(v Chunk) (size int) {
	size = ord.String.Size(v.ID)
	size += varint.Int.Size(v.Index)
	size += ord.String.Size(v.DocumentID)
	size += ord.String.Size(v.Text)
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += varint.Float32.Size(f)
	}
	size += ord.String.Size(v.Filename)
	size += varint.Int64.Size(v.UploadedAt.UnixMicro())
	return size
}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += varint.Int.Marshal(v.Index, bs[n:])
	n += ord.String.Marshal(v.DocumentID, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += varint.Int64.Marshal(v.UploadedAt.UnixMicro(), bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return v, n, err
	}
	if v.Index, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.DocumentID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if count < 0 {
		return v, n, ErrNegativeLength
	}
	if count > 0 {
		v.Vector = make([]float32, count)
		for i := 0; i < count; i++ {
			if v.Vector[i], n1, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
				return v, n + n1, err
			}
			n += n1
		}
	}
	if v.Filename, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.UploadedAt = time.UnixMicro(micros).UTC()
	return v, n, nil
}
