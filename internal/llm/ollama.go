package llm

import (
	"fmt"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/config"
)

const defaultOllamaURL = "http://localhost:11434"

// NewOllamaClient talks to Ollama through its OpenAI-compatible /v1 API.
func NewOllamaClient(cfg config.LLMConfig, dimensions int) *OpenAIClient {
	cfg.BaseURL = ollamaBaseURL(cfg.BaseURL)
	if cfg.APIKey == "" {
		// Ignored by Ollama, required by the client.
		cfg.APIKey = "ollama"
	}
	return NewOpenAIClient(cfg, dimensions)
}

func ollamaBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL
	}
	return fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
}
