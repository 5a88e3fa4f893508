package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errEmbedDown = errors.New("embedding provider down")

// stubEmbedder gives every vocabulary word its own axis. failOn selects texts
// whose embedding fails; block makes Embed wait for context cancellation.
type stubEmbedder struct {
	vocab  []string
	failOn func(text string) bool
	block  bool

	mu    sync.Mutex
	calls []string
}

func newStubEmbedder(vocab ...string) *stubEmbedder {
	return &stubEmbedder{vocab: vocab}
}

func (e *stubEmbedder) Name() string   { return "stub" }
func (e *stubEmbedder) Dimension() int { return len(e.vocab) }

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	e.mu.Unlock()
	if e.failOn != nil && e.failOn(text) {
		return nil, errEmbedDown
	}
	if e.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	v := make([]float64, len(e.vocab))
	lower := strings.ToLower(text)
	for i, w := range e.vocab {
		v[i] = float64(strings.Count(lower, w))
	}
	return v, nil
}

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

var testVocab = []string{
	"apple", "pie", "recipe", "dessert", "rocket", "engine", "design",
	"coral", "reef", "ocean", "slide", "market", "revenue", "hello",
}
