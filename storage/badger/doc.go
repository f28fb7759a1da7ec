// Package badger implements the storage interfaces on BadgerDB, an
// embedded key-value store. One Backend carries both repositories:
// document metadata under "docrec:", chunk records under "churec:", and a
// per-document chunk index under "chudoc:". Similarity queries are a full
// scan over the chunk records with cosine scoring, which is adequate for
// the corpus sizes this system targets.
package badger
