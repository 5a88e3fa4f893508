package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"slider/internal/domain"
)

// DefaultMaxSentences is used when Summarize is called with a non-positive limit.
const DefaultMaxSentences = 5

var (
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|\n|$)`)
)

// FrequencySummarizer is the offline extractive summarizer: sentences are
// ranked by the normalised frequency of their non-stopword tokens.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Summarize keeps the maxSentences best-scoring sentences in their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	freq := map[string]float64{}
	tokens := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			if _, stop := s.stopwords[tok]; !stop {
				freq[tok]++
			}
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		sum := 0.0
		for _, tok := range tokens[i] {
			sum += freq[tok]
		}
		// dampen long sentences
		if l := float64(len(tokens[i])); l > 0 {
			sum /= math.Sqrt(l)
		}
		scores[i] = scored{i, sum}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func splitSentences(text string) []string {
	var out []string
	for _, m := range sentencePattern.FindAllString(text, -1) {
		if t := strings.TrimSpace(m); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "slide",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
