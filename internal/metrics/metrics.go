package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval outcomes recorded by RetrievalOutcome.
const (
	OutcomeHit     = "hit"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Collectors groups the service's prometheus collectors. A nil *Collectors
// is valid and records nothing.
type Collectors struct {
	documentsIndexed *prometheus.CounterVec
	indexFailures    *prometheus.CounterVec
	retrievals       *prometheus.CounterVec
	intents          *prometheus.CounterVec
	conversations    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		documentsIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slider",
			Subsystem: "retrieval",
			Name:      "documents_indexed_total",
			Help:      "Documents added to conversation indexes, by kind.",
		}, []string{"kind"}),
		indexFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slider",
			Subsystem: "retrieval",
			Name:      "index_failures_total",
			Help:      "Indexing calls that failed, by kind.",
		}, []string{"kind"}),
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slider",
			Subsystem: "retrieval",
			Name:      "context_requests_total",
			Help:      "Context retrievals, by outcome.",
		}, []string{"outcome"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slider",
			Subsystem: "intent",
			Name:      "classified_total",
			Help:      "Classified user messages, by resolved action.",
		}, []string{"action"}),
		conversations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "slider",
			Subsystem: "retrieval",
			Name:      "conversations",
			Help:      "Conversation indexes currently held in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.documentsIndexed, c.indexFailures, c.retrievals, c.intents, c.conversations)
	}
	return c
}

func (c *Collectors) DocumentsIndexed(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.documentsIndexed.WithLabelValues(kind).Add(float64(n))
}

func (c *Collectors) IndexFailure(kind string) {
	if c == nil {
		return
	}
	c.indexFailures.WithLabelValues(kind).Inc()
}

func (c *Collectors) RetrievalOutcome(outcome string) {
	if c == nil {
		return
	}
	c.retrievals.WithLabelValues(outcome).Inc()
}

func (c *Collectors) IntentClassified(action string) {
	if c == nil {
		return
	}
	c.intents.WithLabelValues(action).Inc()
}

func (c *Collectors) SetConversations(n int) {
	if c == nil {
		return
	}
	c.conversations.Set(float64(n))
}
