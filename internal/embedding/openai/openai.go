package openai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	slidererr "slider/pkg/errors"
)

// Client is an OpenAI-compatible embeddings client implementing domain.BatchEmbedder.
type Client struct {
	api        *goopenai.Client
	model      string
	dimension  int
	maxRetries int
	sleep      func(time.Duration)
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// Dimension is the expected vector size; 0 learns it from the first response.
	Dimension int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, slidererr.Errorf(slidererr.CodeEmbeddingRequestInvalid, "missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	clientCfg := goopenai.DefaultConfig(key)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: t}
	return &Client{
		api:        goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		maxRetries: 5,
		sleep:      time.Sleep,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all texts in one request, retrying rate limits and server errors.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := goopenai.EmbeddingRequest{Input: texts, Model: goopenai.EmbeddingModel(c.model)}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.api.CreateEmbeddings(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil || !retryable(err) || attempt == c.maxRetries {
				break
			}
			c.sleep(retryDelay(attempt))
			continue
		}
		return c.collect(resp, len(texts))
	}
	return nil, slidererr.Wrap(lastErr, slidererr.CodeEmbeddingUpstreamFailure, "openai embeddings failed",
		slidererr.FieldProvider("openai"))
}

func (c *Client) collect(resp goopenai.EmbeddingResponse, want int) ([][]float64, error) {
	if len(resp.Data) != want {
		return nil, slidererr.Errorf(slidererr.CodeEmbeddingResponseInvalid, "expected %d embeddings, got %d", want, len(resp.Data))
	}
	out := make([][]float64, want)
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= want {
			idx = i
		}
		if len(d.Embedding) == 0 {
			return nil, slidererr.New(slidererr.CodeEmbeddingResponseInvalid, "empty embedding")
		}
		if c.dimension == 0 {
			c.dimension = len(d.Embedding)
		}
		if len(d.Embedding) != c.dimension {
			return nil, slidererr.Errorf(slidererr.CodeEmbeddingResponseInvalid, "embedding has %d dimensions, want %d", len(d.Embedding), c.dimension)
		}
		v := make([]float64, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float64(x)
		}
		out[idx] = v
	}
	return out, nil
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
	// transport errors
	return true
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
