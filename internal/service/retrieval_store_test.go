package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/chunker"
	"slider/internal/domain"
	"slider/internal/metrics"
	"slider/internal/service"
	slidererr "slider/pkg/errors"
)

func newTestStore(t *testing.T, emb *stubEmbedder) *service.RetrievalStore {
	t.Helper()
	return service.NewRetrievalStore(emb, chunker.NewBoundaryChunker(), service.StoreOptions{
		SearchTimeout: 50 * time.Millisecond,
	})
}

func TestRetrieveContext_UnknownConversation(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	store := newTestStore(t, emb)

	got, err := store.RetrieveContext(context.Background(), "missing", "q", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
	assert.Zero(t, emb.callCount())
}

func TestRetrieveContext_RanksAndLabels(t *testing.T) {
	store := newTestStore(t, newStubEmbedder(testVocab...))
	ctx := context.Background()

	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "apple pie recipe", nil))
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleAssistant, "rocket engine design", nil))

	got, err := store.RetrieveContext(ctx, "c1", "dessert recipe", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "[User]: apple pie recipe", got[0])
	assert.Equal(t, "[Assistant]: rocket engine design", got[1])
}

func TestIndexMessage_ShortContentIsIgnored(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	store := newTestStore(t, emb)
	ctx := context.Background()

	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "hi", nil))
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "", nil))
	n, _ := store.Stats("c1")
	assert.Zero(t, n)
	assert.Zero(t, emb.callCount())

	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "hello there friend", nil))
	n, ok := store.Stats("c1")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestIndexMessage_TypeMetadataSetsKind(t *testing.T) {
	store := newTestStore(t, newStubEmbedder(testVocab...))
	ctx := context.Background()

	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleAssistant, "coral reef answer text", map[string]any{"type": "qa_answer", "slide": 2}))
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleAssistant, "coral research note text", map[string]any{"type": "research"}))

	got, err := store.RetrieveContext(ctx, "c1", "coral", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"[Research]: coral research note text", "[Assistant]: coral reef answer text"}, got)
}

func TestIndexMessage_EmbeddingFailurePropagates(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	emb.failOn = func(string) bool { return true }
	store := newTestStore(t, emb)

	err := store.IndexMessage(context.Background(), "c1", domain.RoleUser, "hello there friend", nil)
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeRetrievalIndexFailure))
	assert.ErrorIs(t, err, errEmbedDown)
}

func TestIndexSlides_RendersEachFormat(t *testing.T) {
	store := newTestStore(t, newStubEmbedder(testVocab...))
	ctx := context.Background()

	slides := []domain.Slide{
		{Title: "Market", Format: domain.Bullets{}, Items: []string{"Revenue up", "Costs flat"}, Sources: []string{"https://example.com/q3"}},
		{Title: "Steps", Format: domain.Numbered{}, Items: []string{"Plan", "Ship"}},
		{Title: "Story", Format: domain.Paragraph{}, Items: []string{"First.", "Second."}},
		{Title: "Big idea", Format: domain.Headline{}, Items: []string{"Ocean", "Reef"}},
	}
	require.NoError(t, store.IndexSlides(ctx, "deck", slides))

	got, err := store.RetrieveContext(ctx, "deck", "market revenue", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "[Slide]: Slide 1 [bullets]: Market\n- Revenue up\n- Costs flat\nSources: https://example.com/q3", got[0])

	got, err = store.RetrieveContext(ctx, "deck", "ocean reef", 1)
	require.NoError(t, err)
	assert.Equal(t, "[Slide]: Slide 4 [headline]: Big idea\nOcean — Reef", got[0])

	n, _ := store.Stats("deck")
	assert.Equal(t, 4, n)
}

func TestIndexResearchContent_ChunksLongContent(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	store := newTestStore(t, emb)
	ctx := context.Background()

	require.NoError(t, store.IndexResearchContent(ctx, "c1", "too short"))
	_, ok := store.Stats("c1")
	assert.False(t, ok)

	sentence := "Coral reefs shelter a quarter of ocean species. "
	content := strings.Repeat(sentence, 25) // ~1200 runes
	require.NoError(t, store.IndexResearchContent(ctx, "c1", content))

	n, _ := store.Stats("c1")
	assert.Equal(t, 3, n)

	got, err := store.RetrieveContext(ctx, "c1", "coral", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.True(t, strings.HasPrefix(s, "[Research]: Coral reefs"), s)
	}
}

func TestRetrieveContext_SearchFailureIsReturnedAndAbsorbed(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	emb.failOn = func(text string) bool { return text == "broken query" }
	store := newTestStore(t, emb)
	ctx := context.Background()
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "hello there friend", nil))

	_, err := store.RetrieveContext(ctx, "c1", "broken query", 5)
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeRetrievalSearchFailure))

	assert.Equal(t, []string{}, store.ContextOrEmpty(ctx, "c1", "broken query", 5))
}

func TestRetrieveContext_Timeout(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	store := newTestStore(t, emb)
	ctx := context.Background()
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "hello there friend", nil))

	emb.block = true
	_, err := store.RetrieveContext(ctx, "c1", "hello", 5)
	require.Error(t, err)
	assert.True(t, slidererr.IsTimeout(err), "got code %s", slidererr.CodeOf(err))
}

func TestSeedConversation_IsIdempotent(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	store := newTestStore(t, emb)
	ctx := context.Background()
	msgs := []service.SeedMessage{
		{Role: domain.RoleUser, Content: "make slides about coral reefs"},
		{Role: domain.RoleAssistant, Content: "here are three slides on coral reefs"},
		{Role: domain.RoleUser, Content: "ok"},
	}

	seeded, err := store.SeedConversation(ctx, "c1", msgs)
	require.NoError(t, err)
	assert.True(t, seeded)
	calls := emb.callCount()

	seeded, err = store.SeedConversation(ctx, "c1", msgs)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, calls, emb.callCount())

	n, _ := store.Stats("c1")
	assert.Equal(t, 2, n)
}

func TestSeedConversation_FailedSeedCanBeRetried(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	emb.failOn = func(text string) bool { return strings.Contains(text, "rocket") }
	store := newTestStore(t, emb)
	ctx := context.Background()
	msgs := []service.SeedMessage{
		{Role: domain.RoleUser, Content: "make slides about coral reefs"},
		{Role: domain.RoleUser, Content: "now a rocket engine deck"},
		{Role: domain.RoleAssistant, Content: "here is the apple pie recipe"},
	}

	seeded, err := store.SeedConversation(ctx, "c1", msgs)
	require.Error(t, err)
	assert.True(t, slidererr.HasCode(err, slidererr.CodeRetrievalIndexFailure))
	assert.False(t, seeded)
	n, _ := store.Stats("c1")
	assert.Zero(t, n)

	emb.failOn = nil
	seeded, err = store.SeedConversation(ctx, "c1", msgs)
	require.NoError(t, err)
	assert.True(t, seeded)
	n, _ = store.Stats("c1")
	assert.Equal(t, 3, n)
}

func TestDeleteConversationStore_StartsFresh(t *testing.T) {
	store := newTestStore(t, newStubEmbedder(testVocab...))
	ctx := context.Background()
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "hello there friend", nil))
	assert.Equal(t, 1, store.Conversations())

	assert.True(t, store.DeleteConversationStore("c1"))
	assert.False(t, store.DeleteConversationStore("c1"))
	assert.Zero(t, store.Conversations())

	got, err := store.RetrieveContext(ctx, "c1", "hello", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	seeded, err := store.SeedConversation(ctx, "c1", []service.SeedMessage{{Role: domain.RoleUser, Content: "hello again friend"}})
	require.NoError(t, err)
	assert.True(t, seeded)
}

func TestDeleteConversationStore_InFlightWriteDoesNotResurrect(t *testing.T) {
	emb := newStubEmbedder(testVocab...)
	emb.block = true
	store := newTestStore(t, emb)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- store.IndexMessage(ctx, "c1", domain.RoleUser, "slides about coral reefs", nil)
	}()
	require.Eventually(t, func() bool { return emb.callCount() > 0 }, time.Second, 5*time.Millisecond)

	assert.True(t, store.DeleteConversationStore("c1"))
	cancel()
	require.Error(t, <-done)

	_, ok := store.Stats("c1")
	assert.False(t, ok)
	assert.Zero(t, store.Conversations())
}

func TestRetrievalStore_ConversationsAreIndependent(t *testing.T) {
	store := newTestStore(t, newStubEmbedder(testVocab...))
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				assert.NoError(t, store.IndexMessage(ctx, id, domain.RoleUser, "rocket engine note "+id, nil))
				_, err := store.RetrieveContext(ctx, id, "rocket", 3)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c"} {
		n, ok := store.Stats(id)
		assert.True(t, ok)
		assert.Equal(t, 10, n)
	}
}

func TestRetrievalStore_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := service.NewRetrievalStore(newStubEmbedder(testVocab...), chunker.NewBoundaryChunker(), service.StoreOptions{
		Metrics: metrics.New(reg),
	})
	ctx := context.Background()

	_, err := store.RetrieveContext(ctx, "c1", "q", 5)
	require.NoError(t, err)
	require.NoError(t, store.IndexMessage(ctx, "c1", domain.RoleUser, "hello there friend", nil))
	_, err = store.RetrieveContext(ctx, "c1", "hello", 5)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "slider_retrieval_context_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count) // empty + hit series
}
