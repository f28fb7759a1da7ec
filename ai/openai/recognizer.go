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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/klartext/redakt/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Recognizer implements ai.EntityRecognizer using OpenAI-compatible chat
// APIs in JSON mode.
type Recognizer struct {
	client llms.Model
	logger *slog.Logger
}

// namedEntity is the JSON shape the model is instructed to return.
type namedEntity struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// recognition is the wrapper structure for the model's JSON response.
type recognition struct {
	Entities []namedEntity `json:"entities"`
}

// newRecognizer is an internal constructor that returns the concrete type.
func newRecognizer(config *ai.Config) (*Recognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.RecognizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Recognizer{
		client: client,
		logger: slog.Default().With("component", "openai-recognizer"),
	}, nil
}

// NewRecognizer creates a new entity recognizer using the provided
// configuration.
func NewRecognizer(config *ai.Config) (ai.EntityRecognizer, error) {
	return newRecognizer(config)
}

// RecognizeEntities asks the model for person, organization and location
// mentions in text. Each occurrence of a returned value becomes one entity
// with byte offsets into the original text; values the model invented that
// do not occur in the text are dropped.
func (r *Recognizer) RecognizeEntities(ctx context.Context, text string) ([]ai.Entity, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(recognitionSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result recognition
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			r.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			r.logger.Debug("no choices returned from model")
			return nil, nil
		}

		responseText := ai.StripCodeFences(response.Choices[0].Content)
		responseText = ai.RepairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			r.logger.Warn("error parsing recognizer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		r.logger.Error("failed to parse recognizer response after retries", "err", lastErr)
		return nil, lastErr
	}

	entities := resolveOffsets(text, result.Entities)
	r.logger.Debug("recognized entities", "returned", len(result.Entities), "resolved", len(entities))
	return entities, nil
}

// resolveOffsets locates every occurrence of each returned value in text.
// Occurrences are found left to right and may repeat per value.
func resolveOffsets(text string, found []namedEntity) []ai.Entity {
	var entities []ai.Entity
	for _, ne := range found {
		entityType, ok := parseEntityType(ne.Type)
		if !ok || ne.Value == "" {
			continue
		}
		offset := 0
		for {
			idx := strings.Index(text[offset:], ne.Value)
			if idx < 0 {
				break
			}
			start := offset + idx
			entities = append(entities, ai.Entity{
				Type:  entityType,
				Value: ne.Value,
				Start: start,
				End:   start + len(ne.Value),
			})
			offset = start + len(ne.Value)
		}
	}
	return entities
}

// parseEntityType maps the model's type strings onto the entity type set.
func parseEntityType(s string) (ai.EntityType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person":
		return ai.EntityPerson, true
	case "organization", "organisation":
		return ai.EntityOrganization, true
	case "location", "ort":
		return ai.EntityLocation, true
	default:
		return "", false
	}
}
