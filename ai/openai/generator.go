package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/klartext/redakt/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new text generator using the provided configuration.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// GenerateText produces a completion for the given system and user prompts.
func (g *Generator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	g.logger.Debug("generating text", "prompt_length", len(prompt))

	response, err := g.client.GenerateContent(ctx, chatMessages(system, prompt), llms.WithTemperature(0.2))
	if err != nil {
		g.logger.Error("failed to generate text", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		return "", errors.New("model returned no choices")
	}

	return response.Choices[0].Content, nil
}

// GenerateStream produces the same completion as GenerateText but hands
// each fragment to fn as it arrives. The assembled text is returned when
// the stream ends.
func (g *Generator) GenerateStream(ctx context.Context, system, prompt string, fn func(chunk string) error) (string, error) {
	g.logger.Debug("generating text stream", "prompt_length", len(prompt))

	var assembled strings.Builder
	_, err := g.client.GenerateContent(ctx, chatMessages(system, prompt),
		llms.WithTemperature(0.2),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			assembled.Write(chunk)
			return fn(string(chunk))
		}))
	if err != nil {
		g.logger.Error("failed to stream text", "err", err)
		return "", err
	}

	return assembled.String(), nil
}

// chatMessages builds the two-message system and user conversation both
// generation paths send.
func chatMessages(system, prompt string) []llms.MessageContent {
	return []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(system),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}
}
