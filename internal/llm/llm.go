// Package llm holds the chat completion providers used to write slides and answers.
package llm

import (
	"context"
	"time"

	"slider/internal/config"
	"slider/internal/domain"
	slidererr "slider/pkg/errors"
)

// Message is one turn of prior conversation passed to a provider.
type Message struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
}

// Provider completes a prompt given the system instructions and prior turns.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system string, history []Message, prompt string) (string, error)
}

// New builds the provider selected by cfg.Type.
func New(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Type {
	case "", "echo":
		return Echo{}, nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, slidererr.New(slidererr.CodeLLMRequestInvalid, "llm.openai section is required")
		}
		p, err := NewOpenAI(OpenAIOptions{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
			Model:       cfg.OpenAI.Model,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, slidererr.Errorf(slidererr.CodeLLMRequestInvalid, "unknown llm type %q", cfg.Type)
	}
}

// IsOffline reports whether p produces canned output rather than model text.
func IsOffline(p Provider) bool {
	_, ok := p.(Echo)
	return ok
}
