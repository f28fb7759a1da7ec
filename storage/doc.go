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


// Package storage defines the persistence interfaces of the system and the
// binary serialization of its records.
//
// Two repositories share one logical chunk: the DocumentRepository holds
// document metadata, the VectorIndex holds chunk text and embeddings.
// Implementations live in subpackages; see storage/badger for the embedded
// BadgerDB backend.
//
// Records are serialized with the MUS format (github.com/mus-format/mus-go),
// a compact binary encoding without field tags. The encoding is
// position-dependent: fields must be written and read in exactly the order
// the serializers in package core define.
package storage
