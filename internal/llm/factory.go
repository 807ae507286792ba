package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/config"
)

// NewProvider builds the client for cfg.Provider. dimensions is forwarded to
// embedding endpoints that can shorten their output.
func NewProvider(ctx context.Context, cfg config.LLMConfig, dimensions int, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg, dimensions)
		return &Provider{Name: provider, LLM: c, Embedder: c, Speech: c, Image: c}, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		return &Provider{Name: provider, LLM: c, Embedder: c}, nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return &Provider{Name: provider, LLM: c}, nil

	case "ollama":
		c := NewOllamaClient(cfg, dimensions)
		logger.Info("initializing ollama via openai-compatible api", "base_url", c.baseURL)
		return &Provider{Name: provider, LLM: c, Embedder: c}, nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
