package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"slider/internal/domain"
	slidererr "slider/pkg/errors"
)

// DefaultTopK is used when Search is called with a non-positive k.
const DefaultTopK = 5

// Index is an in-memory conversation index using brute-force cosine similarity.
// Add and Search are mutually exclusive; concurrent searches share a read lock.
type Index struct {
	embedder domain.Embedder

	mu        sync.RWMutex
	dimension int
	docs      []domain.Document
}

var _ domain.ConversationIndex = (*Index)(nil)

func NewIndex(embedder domain.Embedder) *Index {
	return &Index{embedder: embedder, dimension: embedder.Dimension()}
}

// Add embeds every candidate and appends them in order. Nothing is stored if
// any embedding fails.
func (s *Index) Add(ctx context.Context, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	vectors, err := s.embed(ctx, texts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	for _, v := range vectors {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim || dim == 0 {
			return slidererr.Errorf(slidererr.CodeIndexDimensionInvalid, "vector dimension mismatch: got %d, want %d", len(v), dim)
		}
	}
	s.dimension = dim
	for i, c := range candidates {
		s.docs = append(s.docs, domain.Document{
			ID:       uuid.NewString(),
			Text:     c.Text,
			Vector:   vectors[i],
			Metadata: c.Metadata,
			Seq:      len(s.docs),
		})
	}
	return nil
}

// Search returns up to k documents ranked by cosine similarity to query.
// Equal scores keep insertion order. An empty index returns no results
// without calling the embedder.
func (s *Index) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if s.Len() == 0 {
		return []domain.SearchResult{}, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vec) != s.dimension {
		return nil, slidererr.Errorf(slidererr.CodeIndexDimensionInvalid, "query dimension mismatch: got %d, want %d", len(vec), s.dimension)
	}
	results := make([]domain.SearchResult, len(s.docs))
	for i := range s.docs {
		results[i] = domain.SearchResult{Document: s.docs[i], Score: cosine(s.docs[i].Vector, vec)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored documents.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Documents returns a copy of the stored documents in insertion order.
func (s *Index) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

func (s *Index) embed(ctx context.Context, texts []string) ([][]float64, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		vectors, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, slidererr.Errorf(slidererr.CodeEmbeddingResponseInvalid, "embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		return vectors, nil
	}
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := s.embedder.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// cosine is 0 when either vector has zero magnitude.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dot, na, nb := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
