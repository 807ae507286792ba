package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := map[string]struct {
		response string
		expected string
		wantErr  bool
	}{
		"json": {
			response: "```json\n{\"summary_text\": \"Alice builds robots.\"}\n```",
			expected: "Alice builds robots.",
		},
		"plain text": {
			response: "  Alice builds robots.  ",
			expected: "Alice builds robots.",
		},
		"empty json": {
			response: `{"summary_text": ""}`,
			wantErr:  true,
		},
		"blank": {
			response: "   ",
			wantErr:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mockLLM := &MockLLMClient{Response: tt.response}
			s := NewSummarizer(mockLLM, "limit %d: %s")

			got, err := s.Summarize(context.Background(), "Alice spends her days building robots.", 40)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.SummaryText)
			assert.Equal(t, "limit 40: Alice spends her days building robots.", mockLLM.LastPrompt)
		})
	}
}

func TestSummarize_LLMError(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Err: errors.New("quota")}, "%d %s")

	_, err := s.Summarize(context.Background(), "x", 10)
	assert.ErrorContains(t, err, "quota")
}
