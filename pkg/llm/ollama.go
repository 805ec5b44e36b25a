package llm

import "strings"

const (
	defaultOllamaURL   = "http://localhost:11434/v1"
	defaultOllamaModel = "llama3.1"
)

// OllamaProvider runs against a local Ollama server through its
// OpenAI-compatible API. No API key is needed.
type OllamaProvider struct {
	*OpenAIProvider
}

func NewOllamaProvider(cfg Config) *OllamaProvider {
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = defaultOllamaURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultOllamaModel
	}
	return &OllamaProvider{OpenAIProvider: NewOpenAIProvider(cfg)}
}
