package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agenthands/vectordb-crud/internal/core/model"
)

// Embed runs feature extraction. Token-level outputs are mean-pooled into a
// single sentence vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, _, err := c.post(ctx, c.models.Embedding, "application/json", request{Inputs: text})
	if err != nil {
		return nil, err
	}

	vec, err := decodeEmbedding(body)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrEmptyResult
	}
	return vec, nil
}

func decodeEmbedding(body []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil {
		return flat, nil
	}

	var tokens [][]float32
	if err := json.Unmarshal(body, &tokens); err == nil {
		return meanPool(tokens), nil
	}

	var batch [][][]float32
	if err := json.Unmarshal(body, &batch); err == nil {
		if len(batch) == 0 {
			return nil, nil
		}
		return meanPool(batch[0]), nil
	}

	return nil, fmt.Errorf("huggingface: unexpected feature-extraction payload")
}

func meanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}

	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		for i := 0; i < len(out) && i < len(tok); i++ {
			out[i] += tok[i]
		}
	}

	n := float32(len(tokens))
	for i := range out {
		out[i] /= n
	}
	return out
}

func (c *Client) Summarize(ctx context.Context, text string, maxLength int) (model.Summary, error) {
	in := request{Inputs: text}
	if maxLength > 0 {
		in.Parameters = map[string]any{"max_length": maxLength}
	}

	body, _, err := c.post(ctx, c.models.Summarization, "application/json", in)
	if err != nil {
		return model.Summary{}, err
	}

	var out []model.Summary
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Summary{}, fmt.Errorf("huggingface: decode summary: %w", err)
	}
	if len(out) == 0 || out[0].SummaryText == "" {
		return model.Summary{}, ErrEmptyResult
	}
	return out[0], nil
}

func (c *Client) Synthesize(ctx context.Context, text string) (model.Media, error) {
	return c.binary(ctx, c.models.Speech, "audio/mpeg", text)
}

func (c *Client) GenerateImage(ctx context.Context, prompt string) (model.Media, error) {
	return c.binary(ctx, c.models.Image, "image/jpeg", prompt)
}

func (c *Client) binary(ctx context.Context, modelID, accept, text string) (model.Media, error) {
	body, contentType, err := c.post(ctx, modelID, accept, request{Inputs: text})
	if err != nil {
		return model.Media{}, err
	}
	if len(body) == 0 {
		return model.Media{}, ErrEmptyResult
	}
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return model.Media{Data: body, ContentType: contentType}, nil
}

// Classify returns labels ordered as the model returned them.
func (c *Client) Classify(ctx context.Context, text string) ([]model.Label, error) {
	body, _, err := c.post(ctx, c.models.Classification, "application/json", request{Inputs: text})
	if err != nil {
		return nil, err
	}

	var nested [][]model.Label
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 || len(nested[0]) == 0 {
			return nil, ErrEmptyResult
		}
		return nested[0], nil
	}

	var flat []model.Label
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("huggingface: decode labels: %w", err)
	}
	if len(flat) == 0 {
		return nil, ErrEmptyResult
	}
	return flat, nil
}
