package domain

import (
	"context"
	"time"
)

// Role identifies who produced an indexed document.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Kind classifies what an indexed document holds.
type Kind string

const (
	KindMessage  Kind = "message"
	KindSlide    Kind = "slide"
	KindResearch Kind = "research"
	KindQAAnswer Kind = "qa_answer"
	KindEdit     Kind = "edit"
)

// Metadata is attached to every indexed document.
type Metadata struct {
	Role      Role           `json:"role"`
	Kind      Kind           `json:"type"`
	CreatedAt time.Time      `json:"createdAt"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Candidate is a document waiting to be embedded and stored.
type Candidate struct {
	Text     string
	Metadata Metadata
}

// Document is an embedded, immutable entry in a conversation index.
type Document struct {
	ID       string
	Text     string
	Vector   []float64
	Metadata Metadata
	// Seq is the insertion position inside the owning index.
	Seq int
}

// SearchResult represents a matching document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}

// Embedder converts free text into a fixed-length numeric vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed several texts per call.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits long text into bounded-length segments.
type Chunker interface {
	Chunk(text string, maxLen int) []string
}

// ConversationIndex stores embedded documents for one conversation.
type ConversationIndex interface {
	Add(ctx context.Context, candidates []Candidate) error
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
	Len() int
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
