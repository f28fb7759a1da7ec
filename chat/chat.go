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


package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/klartext/redakt/ai"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/search"
)

// DefaultContextChunks is how many retrieved chunks are handed to the
// generator as context.
const DefaultContextChunks = 4

// ErrEmptyQuestion is returned when the question is empty or whitespace.
var ErrEmptyQuestion = errors.New("empty question")

// Answer is a generated response together with the chunks it was
// grounded on.
type Answer struct {
	Text    string
	Sources []*core.SearchResult
}

// Chat answers questions about the ingested corpus. It retrieves the most
// similar masked chunks, hands them to the generator as context, and
// returns the generated answer with its sources. Both the retrieved
// context and the question itself are masked before they reach the model.
type Chat struct {
	searcher  *search.Searcher
	generator ai.Generator
	detector  *pii.Detector
	topK      int
	logger    *slog.Logger
}

// Option configures a Chat.
type Option func(*Chat)

// WithContextChunks sets how many chunks are retrieved as context.
func WithContextChunks(n int) Option {
	return func(c *Chat) {
		if n > 0 {
			c.topK = n
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chat) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewChat creates a chat service over the searcher and generator.
func NewChat(searcher *search.Searcher, generator ai.Generator, detector *pii.Detector, opts ...Option) *Chat {
	c := &Chat{
		searcher:  searcher,
		generator: generator,
		detector:  detector,
		topK:      DefaultContextChunks,
		logger:    slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask retrieves context for the question and generates an answer.
// With no matching chunks the generator is not called at all.
func (c *Chat) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	sources, err := c.searcher.Search(ctx, question, c.topK, "")
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return &Answer{Text: noContextAnswer}, nil
	}

	maskedQuestion := c.detector.Detect(ctx, question, true).MaskedText
	prompt := buildPrompt(maskedQuestion, sources)

	text, err := c.generator.GenerateText(ctx, answerSystemPrompt, prompt)
	if err != nil {
		c.logger.Error("generation failed", "err", err)
		return nil, err
	}

	return &Answer{Text: text, Sources: sources}, nil
}

// AskStream answers like Ask but delivers the generated text through fn
// fragment by fragment. With no matching chunks the canned no-context
// answer is streamed as one fragment and the generator is not called.
// The complete answer is returned once the stream ends.
func (c *Chat) AskStream(ctx context.Context, question string, fn func(chunk string) error) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	sources, err := c.searcher.Search(ctx, question, c.topK, "")
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		if err := fn(noContextAnswer); err != nil {
			return nil, err
		}
		return &Answer{Text: noContextAnswer}, nil
	}

	maskedQuestion := c.detector.Detect(ctx, question, true).MaskedText
	prompt := buildPrompt(maskedQuestion, sources)

	text, err := c.generator.GenerateStream(ctx, answerSystemPrompt, prompt, fn)
	if err != nil {
		c.logger.Error("streaming generation failed", "err", err)
		return nil, err
	}

	return &Answer{Text: text, Sources: sources}, nil
}

// buildPrompt renders the retrieved chunks and the masked question into
// the user prompt.
func buildPrompt(question string, sources []*core.SearchResult) string {
	var b strings.Builder
	b.WriteString("Kontext aus den Dokumenten:\n\n")
	for i, source := range sources {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, source.Chunk.Filename, source.Chunk.Text)
	}
	b.WriteString("Frage: ")
	b.WriteString(question)
	return b.String()
}
