// Package mock provides in-memory AI doubles for tests. The embedder
// produces deterministic vectors from input text; recognizer and generator
// return empty or canned responses unless a function field overrides them.
package mock
