// Package providers runs agents against hosted language models.
package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ibeckermayer/replyloop/internal/config"
)

// Agent is a named set of instructions the model follows for one kind of task
type Agent struct {
	Name         string
	Instructions string
}

// Provider runs an agent over a single input and returns the raw JSON text it produced
type Provider interface {
	Run(ctx context.Context, agent Agent, input string) (string, error)
}

// New creates the provider selected by the analysis config
func New(cfg config.AnalysisConfig) (Provider, error) {
	switch cfg.LLMProvider {
	case "", config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}

var (
	codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*?\\})\\s*\\n?```")
	objectRe    = regexp.MustCompile(`(?s)(\{.*\})`)
)

// extractJSON pulls a JSON object out of a model response, handling markdown code blocks
func extractJSON(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	if m := objectRe.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return strings.TrimSpace(text)
}
