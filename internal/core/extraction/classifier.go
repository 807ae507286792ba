package extraction

import (
	"context"
	"fmt"
	"sort"

	"github.com/agenthands/vectordb-crud/internal/core/common"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/llm"
)

// Classifier extracts labelled features from text with a prompted LLM.
type Classifier struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewClassifier(llmClient llm.LLMClient, prompt string) *Classifier {
	return &Classifier{
		LLM:    llmClient,
		Prompt: prompt,
	}
}

// Classify returns labels by descending score.
func (c *Classifier) Classify(ctx context.Context, text string) ([]model.Label, error) {
	prompt := fmt.Sprintf(c.Prompt, text)

	response, err := c.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate labels: %w", err)
	}

	result, err := common.ParseJSON[model.Labels](response)
	if err != nil {
		return nil, fmt.Errorf("failed to extract labels: %w", err)
	}

	labels := make([]model.Label, 0, len(result.Labels))
	for _, l := range result.Labels {
		if l.Label != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("failed to extract labels: no labels in response")
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Score > labels[j].Score
	})
	return labels, nil
}
