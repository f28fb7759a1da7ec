package chat

import (
	"context"
	"testing"
	"time"

	"github.com/klartext/redakt/ai/mock"
	"github.com/klartext/redakt/core"
	"github.com/klartext/redakt/pii"
	"github.com/klartext/redakt/search"
	storagebadger "github.com/klartext/redakt/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChat(t *testing.T, seed bool) (*Chat, *mock.Generator) {
	t.Helper()
	backend, err := storagebadger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	index := storagebadger.NewVectorIndex(backend)
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	if seed {
		require.NoError(t, index.UpsertChunks(context.Background(), &core.Chunk{
			ID:         core.ChunkID("d1", 0),
			DocumentID: "d1",
			Text:       "Das Zahlungsziel betraegt 30 Tage.",
			Vector:     []float32{1, 0},
			Filename:   "vertrag.pdf",
			UploadedAt: time.Now().UTC(),
		}))
	}

	detector := pii.NewDetector()
	searcher := search.NewSearcher(index, embedder, detector)
	generator := mock.NewGenerator()
	return NewChat(searcher, generator, detector), generator
}

func TestAsk_GroundsAnswerInRetrievedChunks(t *testing.T) {
	c, generator := newTestChat(t, true)
	generator.GenerateTextFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "Das Zahlungsziel betraegt 30 Tage [1].", nil
	}

	answer, err := c.Ask(context.Background(), "Wie lange ist das Zahlungsziel?")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "30 Tage")
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "vertrag.pdf", answer.Sources[0].Chunk.Filename)

	assert.Contains(t, generator.LastPrompt(), "Das Zahlungsziel betraegt 30 Tage.")
	assert.Contains(t, generator.LastPrompt(), "vertrag.pdf")
	assert.Contains(t, generator.LastSystem(), "Kontext")
}

func TestAsk_MasksQuestionInPrompt(t *testing.T) {
	c, generator := newTestChat(t, true)

	_, err := c.Ask(context.Background(), "Was schrieb max@firma.de dazu?")
	require.NoError(t, err)

	assert.NotContains(t, generator.LastPrompt(), "max@firma.de")
	assert.Contains(t, generator.LastPrompt(), "[EMAIL]")
}

func TestAsk_NoContext(t *testing.T) {
	c, generator := newTestChat(t, false)

	answer, err := c.Ask(context.Background(), "Wie lange ist das Zahlungsziel?")
	require.NoError(t, err)

	assert.Equal(t, noContextAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, generator.CallCount())
}

func TestAsk_EmptyQuestion(t *testing.T) {
	c, _ := newTestChat(t, false)

	_, err := c.Ask(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAskStream_DeliversFragments(t *testing.T) {
	c, generator := newTestChat(t, true)
	generator.GenerateStreamFunc = func(ctx context.Context, system, prompt string, fn func(chunk string) error) (string, error) {
		for _, chunk := range []string{"30 Tage ", "laut Vertrag [1]."} {
			if err := fn(chunk); err != nil {
				return "", err
			}
		}
		return "30 Tage laut Vertrag [1].", nil
	}

	var chunks []string
	answer, err := c.AskStream(context.Background(), "Wie lange ist das Zahlungsziel?", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"30 Tage ", "laut Vertrag [1]."}, chunks)
	assert.Equal(t, "30 Tage laut Vertrag [1].", answer.Text)
	require.Len(t, answer.Sources, 1)
}

func TestAskStream_MasksQuestionInPrompt(t *testing.T) {
	c, generator := newTestChat(t, true)

	_, err := c.AskStream(context.Background(), "Was schrieb max@firma.de dazu?", func(string) error { return nil })
	require.NoError(t, err)

	assert.NotContains(t, generator.LastPrompt(), "max@firma.de")
	assert.Contains(t, generator.LastPrompt(), "[EMAIL]")
}

func TestAskStream_NoContext(t *testing.T) {
	c, generator := newTestChat(t, false)

	var chunks []string
	answer, err := c.AskStream(context.Background(), "Wie lange ist das Zahlungsziel?", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{noContextAnswer}, chunks)
	assert.Equal(t, noContextAnswer, answer.Text)
	assert.Equal(t, 0, generator.CallCount())
}
