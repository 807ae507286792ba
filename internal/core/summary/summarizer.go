package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/vectordb-crud/internal/core/common"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/llm"
)

// Summarizer produces record summaries with a prompted LLM.
type Summarizer struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewSummarizer(llmClient llm.LLMClient, prompt string) *Summarizer {
	return &Summarizer{
		LLM:    llmClient,
		Prompt: prompt,
	}
}

// Summarize asks for at most maxLength words. A reply that is not JSON is
// accepted as the summary itself.
func (s *Summarizer) Summarize(ctx context.Context, text string, maxLength int) (model.Summary, error) {
	prompt := fmt.Sprintf(s.Prompt, maxLength, text)

	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to generate summary: %w", err)
	}

	result, err := common.ParseJSON[model.Summary](response)
	if err == nil && result.SummaryText != "" {
		return result, nil
	}

	if plain := strings.TrimSpace(response); plain != "" && !strings.HasPrefix(plain, "{") {
		return model.Summary{SummaryText: plain}, nil
	}

	return model.Summary{}, fmt.Errorf("failed to parse summary result: empty summary")
}
