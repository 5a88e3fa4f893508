package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/chunker"
)

func TestBoundaryChunker_ShortTextIsIdentity(t *testing.T) {
	c := chunker.NewBoundaryChunker()
	for _, text := range []string{"", "short", "exactly ten", "  padded  "} {
		assert.Equal(t, []string{text}, c.Chunk(text, 11), "text %q", text)
	}
}

func TestBoundaryChunker_PrefersSentenceBoundary(t *testing.T) {
	c := chunker.NewBoundaryChunker()

	got := c.Chunk("Sentence one. Sentence two. Sentence three.", 14)

	require.NotEmpty(t, got)
	assert.Equal(t, "Sentence one.", got[0])
	assert.Equal(t, []string{"Sentence one.", "Sentence two.", "Sentence", "three."}, got)
}

func TestBoundaryChunker_IgnoresEarlySentenceEnd(t *testing.T) {
	c := chunker.NewBoundaryChunker()

	// The only ". " sits at index 2, below 30% of maxLen, so the word break wins.
	got := c.Chunk("Hi. there is a long stretch of words here", 20)

	require.NotEmpty(t, got)
	assert.Equal(t, "Hi. there is a long", got[0])
}

func TestBoundaryChunker_HardCutWithoutSpaces(t *testing.T) {
	c := chunker.NewBoundaryChunker()

	got := c.Chunk(strings.Repeat("x", 25), 10)

	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, got)
}

func TestBoundaryChunker_CoversInputWithoutEmptyChunks(t *testing.T) {
	c := chunker.NewBoundaryChunker()
	text := "Retrieval keeps the chat grounded. Each turn is indexed so later prompts can " +
		"refer back to it. Slides are stored with their format and sources. Research " +
		"content is split into bounded pieces before indexing, preferring sentence ends " +
		"and falling back to word breaks."

	for _, maxLen := range []int{15, 40, 80, 120} {
		chunks := c.Chunk(text, maxLen)
		for _, ch := range chunks {
			assert.NotEmpty(t, ch)
			assert.LessOrEqual(t, utf8.RuneCountInString(ch), maxLen)
		}
		assert.Equal(t, text, strings.Join(chunks, " "), "maxLen %d", maxLen)
	}
}

func TestBoundaryChunker_MultibyteRunes(t *testing.T) {
	c := chunker.NewBoundaryChunker()

	chunks := c.Chunk("ééééé ééééé ééééé", 8)

	assert.Equal(t, []string{"ééééé", "ééééé", "ééééé"}, chunks)
}

func TestBoundaryChunker_LongWhitespaceYieldsNoChunks(t *testing.T) {
	c := chunker.NewBoundaryChunker()

	assert.Equal(t, []string{"  "}, c.Chunk("  ", 2))
	assert.Empty(t, c.Chunk("     ", 2))
	assert.Empty(t, c.Chunk(" \n\t  \n ", 3))
}
