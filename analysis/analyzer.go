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


// Package analysis extracts keywords, topics and a summary from masked
// text using the chat generator in JSON mode. It is a read-only companion
// to ingestion: analysis never stores anything and always runs over masked
// text, so no personal data reaches the model.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/pii"
)

const (
	// minAnalyzableChars is the minimum text length worth sending to the
	// model. Shorter inputs yield an empty result without a model call.
	minAnalyzableChars = 50

	// maxAnalysisChars bounds how much text a single analysis prompt may
	// carry. Longer inputs are truncated at a sentence boundary.
	maxAnalysisChars = 6000

	// DefaultMaxKeywords is the keyword cap used when the caller passes
	// no limit.
	DefaultMaxKeywords = 10

	// DefaultMaxTopics is the topic cap used when the caller passes no
	// limit.
	DefaultMaxTopics = 5

	// defaultTopicConfidence is assumed when the model omits a
	// confidence value.
	defaultTopicConfidence = 0.5
)

// ErrEmptyText is returned when the text to analyze is empty or
// whitespace.
var ErrEmptyText = errors.New("empty analysis text")

// Topic is a high-level theme the model identified in the text.
type Topic struct {
	Name        string
	Confidence  float64
	Description string
}

// Result holds the outcome of one analysis run. TextLength is the rune
// count of the original input, before masking and truncation.
type Result struct {
	Keywords   []string
	Topics     []Topic
	Summary    string
	TextLength int
}

// Analyzer runs keyword, topic and summary extraction over text. Input is
// masked before it reaches the generator, mirroring the chat service's
// handling of questions.
type Analyzer struct {
	generator ai.Generator
	detector  *pii.Detector
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewAnalyzer creates an analyzer over the generator and detector.
func NewAnalyzer(generator ai.Generator, detector *pii.Detector, opts ...Option) *Analyzer {
	a := &Analyzer{
		generator: generator,
		detector:  detector,
		logger:    slog.Default().With("component", "analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// combinedResponse is the JSON shape the model is instructed to return.
// Confidence is a pointer so an omitted value can fall back to the
// default instead of reading as zero.
type combinedResponse struct {
	Keywords []string `json:"keywords"`
	Topics   []struct {
		Name        string   `json:"name"`
		Confidence  *float64 `json:"confidence"`
		Description string   `json:"description"`
	} `json:"topics"`
	Summary string `json:"summary"`
}

// AnalyzeText extracts keywords, topics and a summary from text. Inputs
// shorter than the analyzable minimum return an empty result without
// consulting the model. Non-positive caps fall back to the defaults.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string, maxKeywords, maxTopics int) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}

	length := utf8.RuneCountInString(trimmed)
	if length < minAnalyzableChars {
		a.logger.Debug("text below analyzable minimum", "length", length)
		return &Result{TextLength: length}, nil
	}

	masked := a.detector.Detect(ctx, trimmed, true).MaskedText
	prompt := fmt.Sprintf(combinedPrompt, maxKeywords, maxTopics, truncateText(masked, maxAnalysisChars))

	// Try up to 3 times in case of malformed JSON
	var parsed combinedResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		responseText, err := a.generator.GenerateText(ctx, analysisSystemPrompt, prompt)
		if err != nil {
			a.logger.Error("analysis generation failed", "attempt", attempt+1, "err", err)
			return nil, err
		}

		responseText = ai.StripCodeFences(responseText)
		responseText = ai.RepairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analysis response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", lastErr)
	}

	result := &Result{
		Keywords:   cleanKeywords(parsed.Keywords, maxKeywords),
		Summary:    strings.TrimSpace(parsed.Summary),
		TextLength: length,
	}
	for _, t := range parsed.Topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		confidence := defaultTopicConfidence
		if t.Confidence != nil {
			confidence = *t.Confidence
		}
		result.Topics = append(result.Topics, Topic{
			Name:        name,
			Confidence:  confidence,
			Description: strings.TrimSpace(t.Description),
		})
		if len(result.Topics) >= maxTopics {
			break
		}
	}
	return result, nil
}

// AnalyzeChunks analyzes a document given as chunk texts. Documents larger
// than one prompt are sampled from the beginning, middle and end rather
// than truncated, so the result reflects the whole document.
func (a *Analyzer) AnalyzeChunks(ctx context.Context, texts []string, maxKeywords, maxTopics int) (*Result, error) {
	sampled := sampleChunks(texts, maxAnalysisChars)
	if len(sampled) == 0 {
		return nil, ErrEmptyText
	}
	return a.AnalyzeText(ctx, strings.Join(sampled, "\n\n"), maxKeywords, maxTopics)
}

// cleanKeywords trims, drops empties and caps the keyword list.
func cleanKeywords(keywords []string, max int) []string {
	var cleaned []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		cleaned = append(cleaned, k)
		if len(cleaned) >= max {
			break
		}
	}
	return cleaned
}

// truncateText cuts text to at most maxChars runes, preferring a sentence
// boundary in the final third of the cut.
func truncateText(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	cut := string(runes[:maxChars])
	if idx := strings.LastIndex(cut, ". "); idx > int(0.7*float64(len(cut))) {
		return cut[:idx+1]
	}
	return cut + "..."
}

// sampleChunks selects chunk texts for analysis. When everything fits in
// maxChars all chunks are used; otherwise the first chunk, every
// quarter-step chunk in between and the last chunk are taken, stopping
// once the budget is spent.
func sampleChunks(texts []string, maxChars int) []string {
	if len(texts) == 0 {
		return nil
	}

	total := 0
	for _, t := range texts {
		total += len(t)
	}
	if total <= maxChars {
		return texts
	}

	indices := []int{0}
	if step := len(texts) / 4; step > 0 {
		for i := step; i < len(texts)-1; i += step {
			indices = append(indices, i)
		}
	}
	if len(texts) > 1 {
		indices = append(indices, len(texts)-1)
	}

	var sampled []string
	used := 0
	for _, i := range indices {
		if used+len(texts[i]) > maxChars && len(sampled) > 0 {
			break
		}
		sampled = append(sampled, texts[i])
		used += len(texts[i])
	}
	return sampled
}
