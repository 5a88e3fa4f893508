package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"slider/internal/domain"
	"slider/internal/metrics"
	"slider/internal/vectorstore/memory"
	slidererr "slider/pkg/errors"
)

// StoreOptions tunes the retrieval store. Zero values take the defaults.
type StoreOptions struct {
	ResearchChunkSize int
	MinMessageLen     int
	MinResearchLen    int
	SearchTimeout     time.Duration
	Logger            *zap.Logger
	Metrics           *metrics.Collectors
}

// SeedMessage is one historical chat message replayed into a fresh index.
type SeedMessage struct {
	Role    domain.Role    `json:"role"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"metadata,omitempty"`
}

type conversation struct {
	// writeMu serializes indexing and seeding for one conversation.
	writeMu sync.Mutex
	index   *memory.Index
}

// RetrievalStore owns one conversation index per conversation id. It is
// constructed once at startup and handed to request handlers.
type RetrievalStore struct {
	embedder domain.Embedder
	chunker  domain.Chunker
	opts     StoreOptions
	logger   *zap.Logger
	metrics  *metrics.Collectors
	now      func() time.Time

	mu            sync.Mutex
	conversations map[string]*conversation
}

func NewRetrievalStore(embedder domain.Embedder, chunker domain.Chunker, opts StoreOptions) *RetrievalStore {
	if opts.ResearchChunkSize <= 0 {
		opts.ResearchChunkSize = 500
	}
	if opts.MinMessageLen <= 0 {
		opts.MinMessageLen = 10
	}
	if opts.MinResearchLen <= 0 {
		opts.MinResearchLen = 20
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrievalStore{
		embedder:      embedder,
		chunker:       chunker,
		opts:          opts,
		logger:        logger,
		metrics:       opts.Metrics,
		now:           time.Now,
		conversations: make(map[string]*conversation),
	}
}

// IndexMessage stores one chat message. Content shorter than the configured
// minimum is ignored. meta["type"] may name a document kind (qa_answer, edit);
// every other key is kept as extra metadata.
func (s *RetrievalStore) IndexMessage(ctx context.Context, conversationID string, role domain.Role, content string, meta map[string]any) error {
	if utf8.RuneCountInString(content) < s.opts.MinMessageLen {
		return nil
	}
	kind, extra := splitMeta(meta)
	c := s.conversation(conversationID)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return s.add(ctx, conversationID, c, kind, []domain.Candidate{{
		Text:     content,
		Metadata: s.metadata(role, kind, extra),
	}})
}

// IndexSlides stores each slide's canonical text as its own document.
func (s *RetrievalStore) IndexSlides(ctx context.Context, conversationID string, slides []domain.Slide) error {
	if len(slides) == 0 {
		return nil
	}
	candidates := make([]domain.Candidate, len(slides))
	for i, sl := range slides {
		n := i + 1
		candidates[i] = domain.Candidate{
			Text:     sl.Text(n),
			Metadata: s.metadata(domain.RoleAssistant, domain.KindSlide, map[string]any{"slideIndex": n}),
		}
	}
	c := s.conversation(conversationID)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return s.add(ctx, conversationID, c, domain.KindSlide, candidates)
}

// IndexResearchContent chunks content and stores each chunk separately.
func (s *RetrievalStore) IndexResearchContent(ctx context.Context, conversationID string, content string) error {
	if utf8.RuneCountInString(content) < s.opts.MinResearchLen {
		return nil
	}
	chunks := s.chunker.Chunk(content, s.opts.ResearchChunkSize)
	candidates := make([]domain.Candidate, 0, len(chunks))
	for i, ch := range chunks {
		if ch == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Text:     ch,
			Metadata: s.metadata(domain.RoleSystem, domain.KindResearch, map[string]any{"chunkIndex": i}),
		})
	}
	c := s.conversation(conversationID)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return s.add(ctx, conversationID, c, domain.KindResearch, candidates)
}

// RetrieveContext returns up to k labelled snippets ranked by similarity to
// query. A missing or empty conversation yields no snippets and no error.
// Search failures are returned with a retrieval.* code; callers decide how to
// fall back.
func (s *RetrievalStore) RetrieveContext(ctx context.Context, conversationID, query string, k int) ([]string, error) {
	c, ok := s.lookup(conversationID)
	if !ok || c.index.Len() == 0 {
		s.metrics.RetrievalOutcome(metrics.OutcomeEmpty)
		return []string{}, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()
	results, err := c.index.Search(searchCtx, query, k)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			s.metrics.RetrievalOutcome(metrics.OutcomeTimeout)
			return nil, slidererr.Wrap(err, slidererr.CodeRetrievalSearchTimeout, "context search timed out",
				slidererr.FieldConversationID(conversationID))
		}
		s.metrics.RetrievalOutcome(metrics.OutcomeError)
		return nil, slidererr.Wrap(err, slidererr.CodeRetrievalSearchFailure, "context search failed",
			slidererr.FieldConversationID(conversationID))
	}

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = fmt.Sprintf("[%s]: %s", label(r.Document.Metadata), r.Document.Text)
	}
	s.metrics.RetrievalOutcome(metrics.OutcomeHit)
	return out, nil
}

// ContextOrEmpty is RetrieveContext with the no-context fallback applied:
// failures are logged and reported as an empty slice.
func (s *RetrievalStore) ContextOrEmpty(ctx context.Context, conversationID, query string, k int) []string {
	snippets, err := s.RetrieveContext(ctx, conversationID, query, k)
	if err != nil {
		s.logger.Warn("retrieval failed, continuing without context",
			zap.String("conversation_id", conversationID),
			zap.String("code", string(slidererr.CodeOf(err))),
			zap.Error(err))
		return []string{}
	}
	return snippets
}

// SeedConversation indexes historical messages once. It reports false and
// does nothing when the conversation already holds documents.
func (s *RetrievalStore) SeedConversation(ctx context.Context, conversationID string, messages []SeedMessage) (bool, error) {
	c := s.conversation(conversationID)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.index.Len() > 0 {
		return false, nil
	}
	candidates := make([]domain.Candidate, 0, len(messages))
	for _, m := range messages {
		if utf8.RuneCountInString(m.Content) < s.opts.MinMessageLen {
			continue
		}
		kind, extra := splitMeta(m.Meta)
		candidates = append(candidates, domain.Candidate{
			Text:     m.Content,
			Metadata: s.metadata(m.Role, kind, extra),
		})
	}
	// One add stores the whole history or nothing, so a failed seed can be retried.
	if err := s.add(ctx, conversationID, c, domain.KindMessage, candidates); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteConversationStore drops the conversation's index. It reports whether one existed.
// A write already holding the dropped index completes into it and is lost.
func (s *RetrievalStore) DeleteConversationStore(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conversations[conversationID]
	delete(s.conversations, conversationID)
	s.metrics.SetConversations(len(s.conversations))
	return ok
}

// Stats returns the document count for a conversation and whether it exists.
func (s *RetrievalStore) Stats(conversationID string) (int, bool) {
	c, ok := s.lookup(conversationID)
	if !ok {
		return 0, false
	}
	return c.index.Len(), true
}

// Conversations returns how many conversation indexes are held.
func (s *RetrievalStore) Conversations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func (s *RetrievalStore) add(ctx context.Context, conversationID string, c *conversation, kind domain.Kind, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	if err := c.index.Add(ctx, candidates); err != nil {
		s.metrics.IndexFailure(string(kind))
		return slidererr.Wrap(err, slidererr.CodeRetrievalIndexFailure, "indexing "+string(kind)+" failed",
			slidererr.FieldConversationID(conversationID))
	}
	for _, cand := range candidates {
		s.metrics.DocumentsIndexed(string(cand.Metadata.Kind), 1)
	}
	s.logger.Debug("indexed documents",
		zap.String("conversation_id", conversationID),
		zap.String("kind", string(kind)),
		zap.Int("count", len(candidates)))
	return nil
}

func (s *RetrievalStore) conversation(id string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		c = &conversation{index: memory.NewIndex(s.embedder)}
		s.conversations[id] = c
		s.metrics.SetConversations(len(s.conversations))
	}
	return c
}

func (s *RetrievalStore) lookup(id string) (*conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	return c, ok
}

func (s *RetrievalStore) metadata(role domain.Role, kind domain.Kind, extra map[string]any) domain.Metadata {
	if !role.Valid() {
		role = domain.RoleUser
	}
	return domain.Metadata{Role: role, Kind: kind, CreatedAt: s.now(), Extra: extra}
}

func splitMeta(meta map[string]any) (domain.Kind, map[string]any) {
	kind := domain.KindMessage
	if len(meta) == 0 {
		return kind, nil
	}
	extra := make(map[string]any, len(meta))
	for k, v := range meta {
		if k == "type" {
			if s, ok := v.(string); ok && s != "" {
				kind = domain.Kind(s)
				continue
			}
		}
		extra[k] = v
	}
	if len(extra) == 0 {
		extra = nil
	}
	return kind, extra
}

// label is User for user documents, then Slide or Research by kind, else Assistant.
func label(m domain.Metadata) string {
	switch {
	case m.Role == domain.RoleUser:
		return "User"
	case m.Kind == domain.KindSlide:
		return "Slide"
	case m.Kind == domain.KindResearch:
		return "Research"
	default:
		return "Assistant"
	}
}
