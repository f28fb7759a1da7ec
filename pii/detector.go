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


package pii

import (
	"context"
	"log/slog"
	"slices"

	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/core"
)

// Detector scans text for personally identifiable information using the
// fixed pattern table and, when configured, a named-entity recognizer.
// Detection is pure and lock-free; a single Detector is safe for concurrent
// use across chunks.
type Detector struct {
	patterns   []compiledPattern
	recognizer ai.EntityRecognizer
	logger     *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithRecognizer attaches a named-entity recognizer. Without it, detection
// is pattern-only and person/organization/location spans are not found.
func WithRecognizer(recognizer ai.EntityRecognizer) Option {
	return func(d *Detector) {
		d.recognizer = recognizer
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// NewDetector creates a detector with the fixed pattern table compiled.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		patterns: compilePatterns(),
		logger:   slog.Default().With("component", "pii-detector"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect scans text for PII and, if mask is true, returns a copy with every
// detected span replaced by its redaction token.
//
// Both detection sources run unconditionally over the whole text. The match
// list is unfiltered and may contain overlapping spans; overlap resolution
// applies only to masking. A recognizer failure degrades to pattern-only
// detection and is never fatal.
func (d *Detector) Detect(ctx context.Context, text string, mask bool) *core.PIIResult {
	tokenSpans := maskTokenSpans(text)
	matches := dropWithinTokens(d.patternMatches(text), tokenSpans)
	matches = append(matches, dropWithinTokens(d.entityMatches(ctx, text), tokenSpans)...)

	masked := text
	if mask && len(matches) > 0 {
		masked = applyMask(text, matches)
	}

	return &core.PIIResult{
		OriginalText: text,
		MaskedText:   masked,
		PIIDetected:  len(matches) > 0,
		Matches:      matches,
	}
}

// DetectInChunks runs Detect over multiple text units.
// Results are returned in input order.
func (d *Detector) DetectInChunks(ctx context.Context, chunks []string, mask bool) []*core.PIIResult {
	results := make([]*core.PIIResult, len(chunks))
	for i, chunk := range chunks {
		results[i] = d.Detect(ctx, chunk, mask)
	}
	return results
}

// patternMatches returns every non-overlapping match of every table pattern,
// in table order.
func (d *Detector) patternMatches(text string) []core.PIIMatch {
	var matches []core.PIIMatch
	for _, p := range d.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			matches = append(matches, core.PIIMatch{
				Type:        p.piiType,
				Value:       text[loc[0]:loc[1]],
				Start:       loc[0],
				End:         loc[1],
				Replacement: ReplacementToken(p.piiType),
			})
		}
	}
	return matches
}

// entityMatches asks the recognizer for typed spans. An unavailable
// recognizer is logged and ignored; pattern detection remains authoritative.
func (d *Detector) entityMatches(ctx context.Context, text string) []core.PIIMatch {
	if d.recognizer == nil {
		return nil
	}

	entities, err := d.recognizer.RecognizeEntities(ctx, text)
	if err != nil {
		d.logger.Warn("entity recognition unavailable, continuing with patterns only", "err", err)
		return nil
	}

	matches := make([]core.PIIMatch, 0, len(entities))
	for _, ent := range entities {
		piiType, ok := entityPIIType(ent.Type)
		if !ok {
			continue
		}
		matches = append(matches, core.PIIMatch{
			Type:        piiType,
			Value:       ent.Value,
			Start:       ent.Start,
			End:         ent.End,
			Replacement: ReplacementToken(piiType),
		})
	}
	return matches
}

// entityPIIType maps a recognizer entity type onto the PII type set.
func entityPIIType(t ai.EntityType) (core.PIIType, bool) {
	switch t {
	case ai.EntityPerson:
		return core.PIITypePerson, true
	case ai.EntityOrganization:
		return core.PIITypeOrganization, true
	case ai.EntityLocation:
		return core.PIITypeLocation, true
	default:
		return "", false
	}
}

// dropWithinTokens removes candidates that overlap a replacement token
// already present in the scanned text. Text that was never masked has no
// token spans and passes through untouched.
func dropWithinTokens(matches []core.PIIMatch, tokenSpans [][]int) []core.PIIMatch {
	if len(tokenSpans) == 0 || len(matches) == 0 {
		return matches
	}
	kept := make([]core.PIIMatch, 0, len(matches))
	for _, m := range matches {
		inside := false
		for _, span := range tokenSpans {
			if m.Start < span[1] && span[0] < m.End {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, m)
		}
	}
	return kept
}

// applyMask splices replacement tokens into text. Candidates are processed
// from the highest start offset to the lowest so that earlier replacements
// never shift the offsets still to be processed; a span consumed once
// (exact start/end) is never replaced again. Overlapping but non-identical
// spans both apply, which can nest replacement tokens; that behavior is
// pinned by tests and must not change without migrating persisted data.
func applyMask(text string, matches []core.PIIMatch) string {
	candidates := make([]core.PIIMatch, len(matches))
	copy(candidates, matches)

	// Stable: equal starts keep candidate (table) order.
	slices.SortStableFunc(candidates, func(a, b core.PIIMatch) int {
		return b.Start - a.Start
	})

	type span struct{ start, end int }
	consumed := make(map[span]bool)

	masked := text
	for _, m := range candidates {
		key := span{m.Start, m.End}
		if consumed[key] {
			continue
		}
		start := min(m.Start, len(masked))
		end := min(m.End, len(masked))
		masked = masked[:start] + m.Replacement + masked[end:]
		consumed[key] = true
	}
	return masked
}
