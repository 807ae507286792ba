package config

import (
	"fmt"
	"strings"
)

// Verb sequences the prompt templates are formatted with: the summarize
// template receives (maxLength, text), the classify template (text).
const (
	summarizeVerbs = "ds"
	classifyVerbs  = "s"
)

// formatVerbs returns the fmt verbs of tmpl in order, skipping %% escapes.
func formatVerbs(tmpl string) string {
	var verbs strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		i++
		for i < len(tmpl) && strings.IndexByte("+-# 0123456789.*[]", tmpl[i]) >= 0 {
			i++
		}
		if i < len(tmpl) && tmpl[i] != '%' {
			verbs.WriteByte(tmpl[i])
		}
	}
	return verbs.String()
}

func checkPrompt(name, tmpl, want string) error {
	if got := formatVerbs(tmpl); got != want {
		return fmt.Errorf("prompts.%s: template must contain the verbs %s in order, got %q",
			name, describeVerbs(want), describeVerbs(got))
	}
	return nil
}

func describeVerbs(verbs string) string {
	parts := make([]string, 0, len(verbs))
	for _, v := range verbs {
		parts = append(parts, "%"+string(v))
	}
	return strings.Join(parts, " ")
}
