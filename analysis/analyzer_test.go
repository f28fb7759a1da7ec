package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/klartext/redakt/ai/mock"
	"github.com/klartext/redakt/pii"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const combinedJSON = `{
  "keywords": ["Liefertermin", " Montag ", "", "Kontakt"],
  "topics": [
    {"name": "Logistik", "confidence": 0.9, "description": " Termine und Abwicklung "},
    {"name": "Kommunikation"}
  ],
  "summary": " Ein Liefertermin wird per Mail angekuendigt. "
}`

const fixtureText = "Der Liefertermin wurde auf Montag gelegt, Kontakt bitte per Mail an max@firma.de senden."

func newTestAnalyzer(t *testing.T) (*Analyzer, *mock.Generator) {
	t.Helper()
	generator := mock.NewGenerator()
	generator.GenerateTextFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return combinedJSON, nil
	}
	return NewAnalyzer(generator, pii.NewDetector()), generator
}

func TestAnalyzeText(t *testing.T) {
	a, generator := newTestAnalyzer(t)

	result, err := a.AnalyzeText(context.Background(), fixtureText, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Liefertermin", "Montag", "Kontakt"}, result.Keywords)
	require.Len(t, result.Topics, 2)
	assert.Equal(t, Topic{Name: "Logistik", Confidence: 0.9, Description: "Termine und Abwicklung"}, result.Topics[0])
	assert.Equal(t, "Kommunikation", result.Topics[1].Name)
	assert.Equal(t, 0.5, result.Topics[1].Confidence, "omitted confidence falls back to the default")
	assert.Equal(t, "Ein Liefertermin wird per Mail angekuendigt.", result.Summary)
	assert.Equal(t, len([]rune(fixtureText)), result.TextLength)

	assert.Contains(t, generator.LastSystem(), "Textanalyse")
	assert.Contains(t, generator.LastPrompt(), "Liefertermin")
}

func TestAnalyzeText_MasksInput(t *testing.T) {
	a, generator := newTestAnalyzer(t)

	_, err := a.AnalyzeText(context.Background(), fixtureText, 0, 0)
	require.NoError(t, err)

	assert.NotContains(t, generator.LastPrompt(), "max@firma.de")
	assert.Contains(t, generator.LastPrompt(), "[EMAIL]")
}

func TestAnalyzeText_ShortText(t *testing.T) {
	a, generator := newTestAnalyzer(t)

	result, err := a.AnalyzeText(context.Background(), "Zu kurz fuer eine Auswertung.", 0, 0)
	require.NoError(t, err)

	assert.Empty(t, result.Keywords)
	assert.Empty(t, result.Topics)
	assert.Empty(t, result.Summary)
	assert.Equal(t, 29, result.TextLength)
	assert.Equal(t, 0, generator.CallCount(), "short text must not reach the model")
}

func TestAnalyzeText_EmptyText(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	_, err := a.AnalyzeText(context.Background(), "   \n", 0, 0)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestAnalyzeText_RetriesMalformedJSON(t *testing.T) {
	a, generator := newTestAnalyzer(t)
	calls := 0
	generator.GenerateTextFunc = func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "leider kein JSON", nil
		}
		return "```json\n" + combinedJSON + "\n```", nil
	}

	result, err := a.AnalyzeText(context.Background(), fixtureText, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, generator.CallCount())
	assert.Equal(t, "Ein Liefertermin wird per Mail angekuendigt.", result.Summary)
}

func TestAnalyzeText_AllAttemptsMalformed(t *testing.T) {
	a, generator := newTestAnalyzer(t)
	generator.GenerateTextFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "immer noch kein JSON", nil
	}

	_, err := a.AnalyzeText(context.Background(), fixtureText, 0, 0)
	require.Error(t, err)
	assert.Equal(t, 3, generator.CallCount())
}

func TestAnalyzeText_GeneratorError(t *testing.T) {
	a, generator := newTestAnalyzer(t)
	boom := errors.New("model unreachable")
	generator.GenerateTextFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "", boom
	}

	_, err := a.AnalyzeText(context.Background(), fixtureText, 0, 0)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, generator.CallCount(), "transport errors are not retried")
}

func TestAnalyzeText_CapsKeywordsAndTopics(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	result, err := a.AnalyzeText(context.Background(), fixtureText, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"Liefertermin", "Montag"}, result.Keywords)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, "Logistik", result.Topics[0].Name)
}

func TestAnalyzeChunks(t *testing.T) {
	a, generator := newTestAnalyzer(t)

	texts := []string{
		"Der Liefertermin wurde auf Montag gelegt und per Mail angekuendigt.",
		"Die Ware wird per Kurier an die Filiale in Kiel geliefert.",
	}
	result, err := a.AnalyzeChunks(context.Background(), texts, 0, 0)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Keywords)
	assert.Contains(t, generator.LastPrompt(), "Kurier")
	assert.Contains(t, generator.LastPrompt(), "Liefertermin")
}

func TestAnalyzeChunks_Empty(t *testing.T) {
	a, _ := newTestAnalyzer(t)

	_, err := a.AnalyzeChunks(context.Background(), nil, 0, 0)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{
			name:     "short text untouched",
			text:     "Kurzer Satz.",
			maxChars: 100,
			want:     "Kurzer Satz.",
		},
		{
			name:     "cuts at late sentence boundary",
			text:     strings.Repeat("a", 90) + ". " + strings.Repeat("b", 20),
			maxChars: 100,
			want:     strings.Repeat("a", 90) + ".",
		},
		{
			name:     "no boundary appends ellipsis",
			text:     strings.Repeat("a", 120),
			maxChars: 100,
			want:     strings.Repeat("a", 100) + "...",
		},
		{
			name:     "early boundary is ignored",
			text:     "Hi. " + strings.Repeat("a", 120),
			maxChars: 100,
			want:     "Hi. " + strings.Repeat("a", 96) + "...",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateText(tt.text, tt.maxChars))
		})
	}
}

func TestSampleChunks(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, sampleChunks(nil, 100))
	})

	t.Run("everything fits", func(t *testing.T) {
		texts := []string{"eins", "zwei", "drei"}
		assert.Equal(t, texts, sampleChunks(texts, 100))
	})

	t.Run("samples first middle last", func(t *testing.T) {
		texts := make([]string, 8)
		for i := range texts {
			texts[i] = strings.Repeat(string(rune('a'+i)), 30)
		}
		sampled := sampleChunks(texts, 70)
		require.Len(t, sampled, 2)
		assert.Equal(t, texts[0], sampled[0])
		assert.Equal(t, texts[2], sampled[1])
	})
}
