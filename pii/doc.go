// Package pii detects and masks personally identifiable information in text.
//
// Detection merges two sources: a fixed table of regular-expression patterns
// tuned for German PII (emails, phone numbers, IBANs, tax IDs, ...) and an
// optional named-entity recognizer for person, organization and location
// mentions. Masking resolves overlaps deterministically by splicing
// replacement tokens from the highest start offset to the lowest.
//
// Masking strictly precedes embedding and storage everywhere in the
// pipeline: no text unit leaves the trust boundary of the raw document
// unmasked.
package pii
