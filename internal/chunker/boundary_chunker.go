package chunker

import "strings"

// DefaultMinSentenceRatio is the smallest fraction of maxLen a sentence cut may produce.
const DefaultMinSentenceRatio = 0.3

// BoundaryChunker splits text into chunks of at most maxLen runes, preferring
// sentence ends, then word breaks, then a hard cut.
type BoundaryChunker struct {
	minSentenceRatio float64
}

func NewBoundaryChunker() *BoundaryChunker {
	return &BoundaryChunker{minSentenceRatio: DefaultMinSentenceRatio}
}

// Chunk never returns an empty chunk for non-empty input. Text that already
// fits (including the empty string) comes back as a single chunk. Longer
// whitespace-only text trims away entirely and yields no chunks.
func (c *BoundaryChunker) Chunk(text string, maxLen int) []string {
	remaining := []rune(text)
	if maxLen <= 0 || len(remaining) <= maxLen {
		return []string{text}
	}
	var chunks []string
	for len(remaining) > maxLen {
		cut := c.cutPoint(remaining, maxLen)
		piece := strings.TrimSpace(string(remaining[:cut]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		remaining = []rune(strings.TrimSpace(string(remaining[cut:])))
	}
	if len(remaining) > 0 {
		chunks = append(chunks, string(remaining))
	}
	return chunks
}

// cutPoint returns the exclusive end of the next chunk; always in (0, maxLen].
func (c *BoundaryChunker) cutPoint(r []rune, maxLen int) int {
	minSentence := c.minSentenceRatio * float64(maxLen)
	for i := maxLen - 1; i >= 0; i-- {
		if r[i] == '.' && i+1 < len(r) && r[i+1] == ' ' {
			if float64(i) >= minSentence {
				return i + 1
			}
			break
		}
	}
	for i := maxLen; i > 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return maxLen
}
