// Package inference wires the configured providers into the capabilities the
// record service depends on.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/agenthands/vectordb-crud/internal/core/extraction"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/core/summary"
	"github.com/agenthands/vectordb-crud/internal/huggingface"
	"github.com/agenthands/vectordb-crud/internal/llm"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLength int) (model.Summary, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (model.Media, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (model.Media, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) ([]model.Label, error)
}

// Suite holds one implementation per capability.
type Suite struct {
	Embedder   Embedder
	Summarizer Summarizer
	Speech     SpeechSynthesizer
	Image      ImageGenerator
	Classifier Classifier
}

const (
	ProviderHuggingFace = "huggingface"
	ProviderLLM         = "llm"
)

// NewSuite builds the suite described by cfg.Inference. Provider clients are
// only constructed when a capability selects them.
func NewSuite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Suite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &builder{ctx: ctx, cfg: cfg, logger: logger}
	suite := &Suite{}
	var errs []error

	choices := cfg.Inference
	for _, c := range []struct {
		name     string
		provider string
		assign   func() error
	}{
		{"embedder", choices.Embedder, func() (err error) { suite.Embedder, err = b.embedder(choices.Embedder); return }},
		{"summarizer", choices.Summarizer, func() (err error) { suite.Summarizer, err = b.summarizer(choices.Summarizer); return }},
		{"speech", choices.Speech, func() (err error) { suite.Speech, err = b.speech(choices.Speech); return }},
		{"image", choices.Image, func() (err error) { suite.Image, err = b.image(choices.Image); return }},
		{"classifier", choices.Classifier, func() (err error) { suite.Classifier, err = b.classifier(choices.Classifier); return }},
	} {
		if err := c.assign(); err != nil {
			errs = append(errs, fmt.Errorf("inference.%s: %w", c.name, err))
			continue
		}
		logger.Info("inference capability configured", "capability", c.name, "provider", strings.ToLower(c.provider))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return suite, nil
}

type builder struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger

	hf  *huggingface.Client
	llm *llm.Provider
}

func (b *builder) huggingFace() (*huggingface.Client, error) {
	if b.hf != nil {
		return b.hf, nil
	}

	hfc := b.cfg.HuggingFace
	c, err := huggingface.NewClient(hfc.Token, hfc.BaseURL, huggingface.Models{
		Embedding:      hfc.EmbeddingModel,
		Summarization:  hfc.SummarizationModel,
		Speech:         hfc.SpeechModel,
		Image:          hfc.ImageModel,
		Classification: hfc.ClassificationModel,
	},
		huggingface.WithTimeout(hfc.Timeout()),
		huggingface.WithRateLimit(b.cfg.Inference.RequestsPerSecond),
	)
	if err != nil {
		return nil, err
	}
	if hfc.Token == "" {
		b.logger.Warn("HF_TOKEN is not set; hugging face requests are anonymous")
	}

	b.hf = c
	return c, nil
}

func (b *builder) provider() (*llm.Provider, error) {
	if b.llm != nil {
		return b.llm, nil
	}

	p, err := llm.NewProvider(b.ctx, b.cfg.LLM, b.cfg.VectorStore.Dimension, b.logger)
	if err != nil {
		return nil, err
	}

	b.llm = p
	return p, nil
}

func unsupported(provider, capability string) error {
	return fmt.Errorf("llm provider %q does not support %s", provider, capability)
}

func unknown(provider string) error {
	return fmt.Errorf("unknown inference provider %q", provider)
}

func (b *builder) embedder(provider string) (Embedder, error) {
	switch strings.ToLower(provider) {
	case ProviderHuggingFace:
		return b.huggingFace()
	case ProviderLLM:
		p, err := b.provider()
		if err != nil {
			return nil, err
		}
		if p.Embedder == nil {
			return nil, unsupported(p.Name, "embeddings")
		}
		return p.Embedder, nil
	}
	return nil, unknown(provider)
}

func (b *builder) summarizer(provider string) (Summarizer, error) {
	switch strings.ToLower(provider) {
	case ProviderHuggingFace:
		return b.huggingFace()
	case ProviderLLM:
		p, err := b.provider()
		if err != nil {
			return nil, err
		}
		return summary.NewSummarizer(p.LLM, b.cfg.Prompts.Summarize), nil
	}
	return nil, unknown(provider)
}

func (b *builder) speech(provider string) (SpeechSynthesizer, error) {
	switch strings.ToLower(provider) {
	case ProviderHuggingFace:
		return b.huggingFace()
	case ProviderLLM:
		p, err := b.provider()
		if err != nil {
			return nil, err
		}
		if p.Speech == nil {
			return nil, unsupported(p.Name, "speech")
		}
		return p.Speech, nil
	}
	return nil, unknown(provider)
}

func (b *builder) image(provider string) (ImageGenerator, error) {
	switch strings.ToLower(provider) {
	case ProviderHuggingFace:
		return b.huggingFace()
	case ProviderLLM:
		p, err := b.provider()
		if err != nil {
			return nil, err
		}
		if p.Image == nil {
			return nil, unsupported(p.Name, "images")
		}
		return p.Image, nil
	}
	return nil, unknown(provider)
}

func (b *builder) classifier(provider string) (Classifier, error) {
	switch strings.ToLower(provider) {
	case ProviderHuggingFace:
		return b.huggingFace()
	case ProviderLLM:
		p, err := b.provider()
		if err != nil {
			return nil, err
		}
		return extraction.NewClassifier(p.LLM, b.cfg.Prompts.Classify), nil
	}
	return nil, unknown(provider)
}
