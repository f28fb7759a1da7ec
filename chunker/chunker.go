// Package chunker splits normalized text into overlapping, sentence-bounded
// segments of bounded size, the unit of embedding and retrieval.
package chunker

import "strings"

// Defaults for chunk sizing, in characters.
const (
	DefaultTargetSize  = 500
	DefaultOverlapSize = 50
)

// Chunk splits text into sentence-bounded segments of roughly targetSize
// characters, with consecutive chunks sharing up to overlapSize characters
// of trailing words. Empty input yields nil.
//
// The sentence splitter is a heuristic: terminal punctuation followed by a
// space is treated as a boundary. Abbreviations and decimal numbers will be
// mis-split; that is an accepted limitation, not something to patch around,
// because the chunk boundaries are part of the persisted contract.
//
// targetSize is a soft bound: a single sentence longer than targetSize is
// kept whole in its own chunk rather than split mid-sentence.
func Chunk(text string, targetSize, overlapSize int) []string {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlapSize < 0 {
		overlapSize = DefaultOverlapSize
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		if currentLen+len(sentence) > targetSize && len(current) > 0 {
			closed := strings.Join(current, " ")
			chunks = append(chunks, closed)
			current, currentLen = overlapSeed(closed, overlapSize)
		}
		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// SplitSentences normalizes whitespace and splits text into sentence-like
// units on terminal punctuation followed by a space. Empty units are dropped.
func SplitSentences(text string) []string {
	// Collapse all whitespace runs to single spaces.
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	text = strings.ReplaceAll(text, ". ", ".\n")
	text = strings.ReplaceAll(text, "? ", "?\n")
	text = strings.ReplaceAll(text, "! ", "!\n")

	raw := strings.Split(text, "\n")
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// overlapSeed builds the initial content of the chunk following closed:
// walking backward word-by-word from the end of closed, it accumulates words
// while their cumulative length stays under overlapSize. If closed is not
// longer than overlapSize, the next chunk starts empty.
func overlapSeed(closed string, overlapSize int) ([]string, int) {
	if len(closed) <= overlapSize {
		return nil, 0
	}

	words := strings.Fields(closed)
	var seed []string
	seedLen := 0
	for i := len(words) - 1; i >= 0; i-- {
		word := words[i]
		if seedLen+len(word) >= overlapSize {
			break
		}
		seed = append([]string{word}, seed...)
		seedLen += len(word) + 1
	}
	return seed, seedLen
}
