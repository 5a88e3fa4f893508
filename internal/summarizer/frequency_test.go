package summarizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/summarizer"
)

func TestFrequencySummarizer_KeepsTopSentencesInOrder(t *testing.T) {
	s := summarizer.NewFrequencySummarizer()
	text := "Coral reefs host fish. The weather was nice. Coral reefs protect coasts."

	got, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.Equal(t, "Coral reefs host fish. Coral reefs protect coasts.", got)
}

func TestFrequencySummarizer_ShortInput(t *testing.T) {
	s := summarizer.NewFrequencySummarizer()

	got, err := s.Summarize("  just some words  ", 0)
	require.NoError(t, err)
	assert.Equal(t, "just some words", got)

	got, err = s.Summarize("", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFrequencySummarizer_NewlinesSplitSentences(t *testing.T) {
	s := summarizer.NewFrequencySummarizer()
	text := "Slide 1 [bullets]: Revenue\n- Revenue grew\n- Revenue margins held\n- Office moved"

	got, err := s.Summarize(text, 10)
	require.NoError(t, err)
	assert.Equal(t, "Slide 1 [bullets]: Revenue - Revenue grew - Revenue margins held - Office moved", got)
}
