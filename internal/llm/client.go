package llm

import (
	"context"

	"github.com/agenthands/vectordb-crud/internal/core/model"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type SpeechClient interface {
	Synthesize(ctx context.Context, text string) (model.Media, error)
}

type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (model.Media, error)
}

// Provider bundles what one configured backend can do. Nil fields are
// capabilities the backend does not offer.
type Provider struct {
	Name     string
	LLM      LLMClient
	Embedder EmbedderClient
	Speech   SpeechClient
	Image    ImageClient
}
