package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avion00/medicare-backend/pkg/config"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	APIURL   string
	// MaxTokens caps completions when a call does not pass Options.MaxTokens.
	MaxTokens int
	// Timeout bounds one HTTP round trip including the streamed body.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt for
	// transient failures (network errors, 429, 5xx).
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// Default model per provider when LLM_MODEL is unset.
var defaultModels = map[string]string{
	"openai":    "gpt-3.5-turbo",
	"anthropic": "claude-3-5-haiku-latest",
	"ollama":    defaultOllamaModel,
}

func LoadConfig() Config {
	provider := config.GetEnv("LLM_PROVIDER", "openai")
	return Config{
		Provider:   provider,
		Model:      config.GetEnv("LLM_MODEL", defaultModels[strings.ToLower(provider)]),
		APIKey:     config.GetEnv("LLM_API_KEY", config.GetEnv("OPENAI_API_KEY", "")),
		APIURL:     config.GetEnv("LLM_API_URL", ""),
		MaxTokens:  config.GetEnvInt("LLM_MAX_TOKENS", 0),
		Timeout:    config.GetEnvSeconds("LLM_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries: config.GetEnvInt("LLM_MAX_RETRIES", 2),
	}
}

func (c Config) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (c Config) retry() retryConfig {
	return newRetryConfig(c.MaxRetries, c.RetryBaseDelay, c.RetryMaxDelay)
}

func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
