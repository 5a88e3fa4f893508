package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	slidererr "slider/pkg/errors"
)

// OpenAIConfig holds connection details for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string        `yaml:"type"`
	Dimension int           `yaml:"dimension"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
}

// RetrievalConfig tunes the per-conversation retrieval store.
type RetrievalConfig struct {
	TopK              int `yaml:"top_k"`
	ResearchChunkSize int `yaml:"research_chunk_size"`
	MinMessageLen     int `yaml:"min_message_len"`
	MinResearchLen    int `yaml:"min_research_len"`
	TimeoutSecs       int `yaml:"timeout_secs"`
}

// LLMConfig selects the generation provider.
type LLMConfig struct {
	Type        string        `yaml:"type"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// SearchConfig configures the web search provider.
type SearchConfig struct {
	Type         string `yaml:"type"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	MaxResults   int    `yaml:"max_results"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen           string   `yaml:"listen"`
	CORSOrigins      []string `yaml:"cors_origins"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Production bool   `yaml:"production"`
}

// IntentConfig holds classifier defaults applied by callers.
type IntentConfig struct {
	DefaultSlideCount int `yaml:"default_slide_count"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Intent    IntentConfig    `yaml:"intent"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, slidererr.Errorf(slidererr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data and fills in defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, slidererr.Errorf(slidererr.CodeConfigParseInvalidFormat, "parsing config: %w", err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/slider/config.yaml.
// If neither exists, it writes defaults to ~/.config/slider/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", slidererr.Wrap(err, slidererr.CodeConfigLoadReadFailure, "resolving home directory")
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return slidererr.Wrap(err, slidererr.CodeConfigLoadReadFailure, "creating config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return slidererr.Wrap(err, slidererr.CodeConfigParseInvalidFormat, "encoding config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return slidererr.Wrap(err, slidererr.CodeConfigLoadReadFailure, "writing config")
	}
	return nil
}

// Validate checks enumerated fields and collects every problem found.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Embedder.Type {
	case "hashing", "openai":
	default:
		errs = append(errs, errors.New("embedder.type must be hashing or openai"))
	}
	switch c.LLM.Type {
	case "echo", "openai":
	default:
		errs = append(errs, errors.New("llm.type must be echo or openai"))
	}
	switch c.Search.Type {
	case "none", "http":
	default:
		errs = append(errs, errors.New("search.type must be none or http"))
	}
	if c.Search.Type == "http" && c.Search.BaseURL == "" {
		errs = append(errs, errors.New("search.base_url is required for http search"))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, errors.New("retrieval.top_k must be positive"))
	}
	if c.Intent.DefaultSlideCount < 1 || c.Intent.DefaultSlideCount > 10 {
		errs = append(errs, errors.New("intent.default_slide_count must be within 1..10"))
	}
	if len(errs) > 0 {
		return slidererr.Errorf(slidererr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "slider", "config.yaml"), nil
}

// Default returns the built-in configuration: offline embedder and echo LLM.
func Default() *AppConfig {
	cfg := &AppConfig{
		Server:   ServerConfig{Listen: "127.0.0.1:8787", CORSOrigins: []string{"https://localhost:3000"}},
		Embedder: EmbedderConfig{Type: "hashing", Dimension: 512},
		LLM:      LLMConfig{Type: "echo"},
		Search:   SearchConfig{Type: "none"},
		Logging:  LoggingConfig{Level: "info"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8787"
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 30
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = 120
	}
	cfg.Embedder.Type = strings.ToLower(cfg.Embedder.Type)
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Type == "hashing" && cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 512
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small")
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ResearchChunkSize == 0 {
		cfg.Retrieval.ResearchChunkSize = 500
	}
	if cfg.Retrieval.MinMessageLen == 0 {
		cfg.Retrieval.MinMessageLen = 10
	}
	if cfg.Retrieval.MinResearchLen == 0 {
		cfg.Retrieval.MinResearchLen = 20
	}
	if cfg.Retrieval.TimeoutSecs == 0 {
		cfg.Retrieval.TimeoutSecs = 5
	}
	cfg.LLM.Type = strings.ToLower(cfg.LLM.Type)
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "echo"
	}
	if cfg.LLM.Type == "openai" {
		if cfg.LLM.OpenAI == nil {
			cfg.LLM.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.LLM.OpenAI, "gpt-4.1-mini")
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}
	cfg.Search.Type = strings.ToLower(cfg.Search.Type)
	if cfg.Search.Type == "" {
		cfg.Search.Type = "none"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.CacheTTLSecs == 0 {
		cfg.Search.CacheTTLSecs = 600
	}
	if cfg.Search.TimeoutSecs == 0 {
		cfg.Search.TimeoutSecs = 15
	}
	if cfg.Search.APIKeyEnv == "" {
		cfg.Search.APIKeyEnv = "SEARCH_API_KEY"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Intent.DefaultSlideCount == 0 {
		cfg.Intent.DefaultSlideCount = 3
	}
}

func applyOpenAIDefaults(o *OpenAIConfig, model string) {
	if o.BaseURL == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = "OPENAI_API_KEY"
	}
	if o.Model == "" {
		o.Model = model
	}
	if o.TimeoutSecs == 0 {
		o.TimeoutSecs = 30
	}
}
