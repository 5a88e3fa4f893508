package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"slider/internal/chunker"
	"slider/internal/config"
	"slider/internal/embedding"
	"slider/internal/llm"
	"slider/internal/metrics"
	"slider/internal/search"
	"slider/internal/service"
	"slider/internal/summarizer"
	slidererr "slider/pkg/errors"
)

// Backend holds the wired chat components.
type Backend struct {
	Store        *service.RetrievalStore
	Orchestrator *service.Orchestrator
	Registry     *prometheus.Registry
}

// WireBackend builds the embedder, store, providers and orchestrator from cfg.
func WireBackend(cfg *config.AppConfig, logger *zap.Logger) (*Backend, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, slidererr.Errorf(slidererr.CodeCLISetupFailure, "creating embedder: %w", err)
	}
	provider, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, slidererr.Errorf(slidererr.CodeCLISetupFailure, "creating llm provider: %w", err)
	}
	searcher, err := search.New(cfg.Search)
	if err != nil {
		return nil, slidererr.Errorf(slidererr.CodeCLISetupFailure, "creating search provider: %w", err)
	}

	store := service.NewRetrievalStore(emb, chunker.NewBoundaryChunker(), service.StoreOptions{
		ResearchChunkSize: cfg.Retrieval.ResearchChunkSize,
		MinMessageLen:     cfg.Retrieval.MinMessageLen,
		MinResearchLen:    cfg.Retrieval.MinResearchLen,
		SearchTimeout:     time.Duration(cfg.Retrieval.TimeoutSecs) * time.Second,
		Logger:            logger.Named("retrieval"),
		Metrics:           m,
	})
	orch := service.NewOrchestrator(store, provider, searcher, summarizer.NewFrequencySummarizer(), service.OrchestratorOptions{
		TopK:              cfg.Retrieval.TopK,
		DefaultSlideCount: cfg.Intent.DefaultSlideCount,
		Logger:            logger.Named("chat"),
		Metrics:           m,
	})

	logger.Info("backend wired",
		zap.String("embedder", emb.Name()),
		zap.Int("dimension", emb.Dimension()),
		zap.String("llm", provider.Name()),
		zap.String("search", cfg.Search.Type))
	return &Backend{Store: store, Orchestrator: orch, Registry: reg}, nil
}
