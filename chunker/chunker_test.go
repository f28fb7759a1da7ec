package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("", 500, 50))
	assert.Nil(t, Chunk("   \n\t  ", 500, 50))
}

func TestChunk_SingleShortText(t *testing.T) {
	chunks := Chunk("Ein kurzer Satz.", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Ein kurzer Satz.", chunks[0])
}

func TestChunk_NormalizesWhitespace(t *testing.T) {
	chunks := Chunk("Erster  Satz.\n\nZweiter\tSatz.", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Erster Satz. Zweiter Satz.", chunks[0])
}

func TestChunk_SplitsAtTargetSize(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("Dieser Satz hat eine feste Laenge von etwa sechzig Zeichen. ")
	}
	chunks := Chunk(sb.String(), 200, 0)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		// Soft bound: one sentence past the target is allowed, a chunk can
		// therefore exceed the target by at most one sentence length.
		assert.Less(t, len(c), 200+80)
	}
}

func TestChunk_PreservesSentenceOrder(t *testing.T) {
	text := "Anna wohnt in Berlin. Bernd arbeitet in Bonn. Clara studiert in Celle. " +
		"Daniel forscht in Dresden. Emma lehrt in Essen. Felix malt in Frankfurt."
	chunks := Chunk(text, 60, 20)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " ")
	sentences := SplitSentences(text)
	pos := 0
	for _, sentence := range sentences {
		idx := strings.Index(joined[pos:], sentence)
		require.GreaterOrEqual(t, idx, 0, "sentence %q missing or out of order", sentence)
		pos += idx + len(sentence)
	}
}

func TestChunk_OverlapBounded(t *testing.T) {
	text := "Eins zwei drei vier fuenf. Sechs sieben acht neun zehn. " +
		"Elf zwoelf dreizehn vierzehn fuenfzehn. Sechzehn siebzehn achtzehn neunzehn zwanzig."
	overlap := 20
	chunks := Chunk(text, 50, overlap)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		// The seed of chunk i is a suffix of the words of chunk i-1 whose
		// cumulative length stays under the overlap size.
		seed, seedLen := overlapSeed(prev, overlap)
		assert.Less(t, seedLen, overlap+1)
		if len(seed) > 0 {
			assert.True(t, strings.HasPrefix(chunks[i], strings.Join(seed, " ")))
			assert.True(t, strings.HasSuffix(prev, strings.Join(seed, " ")))
		}
	}
}

func TestChunk_NoOverlapWhenChunkShorterThanOverlap(t *testing.T) {
	seed, seedLen := overlapSeed("kurz", 50)
	assert.Nil(t, seed)
	assert.Zero(t, seedLen)
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("wort ", 100) // one "sentence", no terminal punctuation
	long = strings.TrimSpace(long)
	chunks := Chunk(long+". Danach ein kurzer Satz.", 50, 10)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Contains(t, chunks[0], long)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "terminal punctuation",
			text: "Erster Satz. Zweiter Satz? Dritter Satz! Vierter",
			want: []string{"Erster Satz.", "Zweiter Satz?", "Dritter Satz!", "Vierter"},
		},
		{
			name: "abbreviation mis-split is accepted",
			text: "Dr. Meier kommt. Um drei Uhr.",
			want: []string{"Dr.", "Meier kommt.", "Um drei Uhr."},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}
