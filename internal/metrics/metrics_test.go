package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slider/internal/metrics"
)

func TestCollectors_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)

	c.DocumentsIndexed("slide", 3)
	c.RetrievalOutcome(metrics.OutcomeHit)
	c.RetrievalOutcome(metrics.OutcomeHit)
	c.IntentClassified("edit")
	c.SetConversations(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4) // index_failures has no samples yet

	count, err := testutil.GatherAndCount(reg, "slider_retrieval_context_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectors_NilIsNoop(t *testing.T) {
	var c *metrics.Collectors
	assert.NotPanics(t, func() {
		c.DocumentsIndexed("message", 1)
		c.IndexFailure("message")
		c.RetrievalOutcome(metrics.OutcomeError)
		c.IntentClassified("generate")
		c.SetConversations(1)
	})
}
