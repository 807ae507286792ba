package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/agenthands/vectordb-crud/internal/config"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client         *openai.Client
	baseURL        string
	model          string
	embeddingModel string
	dimensions     int
	speechModel    string
	voice          string
	imageModel     string
}

func NewOpenAIClient(cfg config.LLMConfig, dimensions int) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	c := &OpenAIClient{
		client:         openai.NewClientWithConfig(clientCfg),
		baseURL:        clientCfg.BaseURL,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     dimensions,
		speechModel:    cfg.SpeechModel,
		voice:          cfg.SpeechVoice,
		imageModel:     cfg.ImageModel,
	}
	if c.embeddingModel == "" {
		c.embeddingModel = string(openai.SmallEmbedding3)
	}
	if c.speechModel == "" {
		c.speechModel = string(openai.TTSModel1)
	}
	if c.voice == "" {
		c.voice = string(openai.VoiceAlloy)
	}
	if c.imageModel == "" {
		c.imageModel = openai.CreateImageModelDallE3
	}
	return c
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("no response choices")
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(c.embeddingModel),
		Dimensions: c.dimensions,
	}
	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) > 0 {
		return resp.Data[0].Embedding, nil
	}
	return nil, fmt.Errorf("no embedding data")
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text string) (model.Media, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.speechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return model.Media{}, err
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return model.Media{}, err
	}
	if len(data) == 0 {
		return model.Media{}, fmt.Errorf("no audio data")
	}
	return model.Media{Data: data, ContentType: "audio/mpeg"}, nil
}

func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (model.Media, error) {
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.imageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return model.Media{}, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return model.Media{}, fmt.Errorf("no image data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return model.Media{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return model.Media{Data: data, ContentType: http.DetectContentType(data)}, nil
}
