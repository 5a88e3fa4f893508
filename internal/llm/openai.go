package llm

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"slider/internal/domain"
	slidererr "slider/pkg/errors"
)

type OpenAIOptions struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// OpenAI is a chat completion provider for any OpenAI-compatible endpoint.
type OpenAI struct {
	api         *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
	sleep       func(time.Duration)
}

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	key := os.Getenv(opts.APIKeyEnv)
	if key == "" {
		return nil, slidererr.Errorf(slidererr.CodeLLMRequestInvalid, "missing API key in env %s", opts.APIKeyEnv)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4.1-mini"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	cfg := goopenai.DefaultConfig(key)
	cfg.BaseURL = opts.BaseURL
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return &OpenAI{
		api:         goopenai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		maxRetries:  3,
		sleep:       time.Sleep,
	}, nil
}

func (p *OpenAI) Name() string { return "openai" }

// Complete sends system, history and prompt as one chat completion request.
// Rate limits and server errors are retried with backoff.
func (p *OpenAI) Complete(ctx context.Context, system string, history []Message, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", slidererr.New(slidererr.CodeLLMRequestInvalid, "prompt is empty")
	}
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	for _, h := range history {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: chatRole(h.Role), Content: h.Content})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: prompt})

	req := goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		resp, err := p.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil || !retryable(err) || attempt == p.maxRetries {
				break
			}
			p.sleep(retryDelay(attempt))
			continue
		}
		if len(resp.Choices) == 0 {
			return "", slidererr.New(slidererr.CodeLLMResponseInvalid, "completion has no choices", slidererr.FieldProvider("openai"))
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	return "", slidererr.Wrap(lastErr, slidererr.CodeLLMUpstreamFailure, "openai chat completion failed",
		slidererr.FieldProvider("openai"))
}

func chatRole(r domain.Role) string {
	switch r {
	case domain.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	case domain.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	default:
		return goopenai.ChatMessageRoleUser
	}
}

func retryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}

func retryDelay(attempt int) time.Duration {
	d := 250 * time.Millisecond << attempt
	if d > 4*time.Second {
		d = 4 * time.Second
	}
	return d
}
