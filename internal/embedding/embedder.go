package embedding

import (
	"time"

	"slider/internal/config"
	"slider/internal/domain"
	"slider/internal/embedding/hashing"
	"slider/internal/embedding/openai"
	slidererr "slider/pkg/errors"
)

// New builds the embedder selected by cfg.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Dimension), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, slidererr.New(slidererr.CodeConfigValidateInvalidValue, "openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			Dimension: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, slidererr.Errorf(slidererr.CodeConfigValidateInvalidValue, "unknown embedder: %s", cfg.Type)
	}
}
