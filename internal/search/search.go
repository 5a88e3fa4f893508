// Package search queries a web search endpoint for current-events research.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"slider/internal/config"
	slidererr "slider/pkg/errors"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider runs a web search.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// New builds the provider selected by cfg.Type.
func New(cfg config.SearchConfig) (Provider, error) {
	switch cfg.Type {
	case "", "none":
		return Disabled{}, nil
	case "http":
		return NewHTTP(HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIKey:     os.Getenv(cfg.APIKeyEnv),
			MaxResults: cfg.MaxResults,
			CacheTTL:   time.Duration(cfg.CacheTTLSecs) * time.Second,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		})
	default:
		return nil, slidererr.Errorf(slidererr.CodeSearchRequestInvalid, "unknown search type %q", cfg.Type)
	}
}

// Disabled is used when no search backend is configured.
type Disabled struct{}

func (Disabled) Search(context.Context, string, int) ([]Result, error) {
	return nil, slidererr.New(slidererr.CodeSearchDisabled, "web search is not configured")
}

type HTTPOptions struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	CacheTTL   time.Duration
	Timeout    time.Duration
	Client     *http.Client
}

// HTTP calls a JSON search endpoint with GET ?q=<query>&count=<n> and expects
// {"results":[{"title","url","snippet"}]}. Results are cached per query.
type HTTP struct {
	base       *url.URL
	apiKey     string
	maxResults int
	client     *http.Client
	cache      *cache.Cache
}

func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, slidererr.Errorf(slidererr.CodeSearchRequestInvalid, "invalid search base url %q", opts.BaseURL)
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{
		base:       base,
		apiKey:     opts.APIKey,
		maxResults: opts.MaxResults,
		client:     client,
		cache:      cache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}, nil
}

func (h *HTTP) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, slidererr.New(slidererr.CodeSearchRequestInvalid, "search query is empty")
	}
	if maxResults <= 0 {
		maxResults = h.maxResults
	}
	key := fmt.Sprintf("%d:%s", maxResults, strings.ToLower(query))
	if v, ok := h.cache.Get(key); ok {
		return v.([]Result), nil
	}

	u := *h.base
	params := u.Query()
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, slidererr.Wrap(err, slidererr.CodeSearchRequestInvalid, "building search request")
	}
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, slidererr.Wrap(err, slidererr.CodeSearchUpstreamFailure, "search request failed")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, slidererr.Wrap(err, slidererr.CodeSearchUpstreamFailure, "reading search response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, slidererr.Errorf(slidererr.CodeSearchUpstreamFailure, "search returned status %d", resp.StatusCode)
	}

	var payload struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, slidererr.Wrap(err, slidererr.CodeSearchUpstreamFailure, "decoding search response")
	}
	results := payload.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	h.cache.Set(key, results, cache.DefaultExpiration)
	return results, nil
}

// Format renders results as research text, one block per hit.
func Format(results []Result) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s (%s). %s", strings.TrimSpace(r.Title), r.URL, strings.TrimSpace(r.Snippet))
	}
	return b.String()
}
