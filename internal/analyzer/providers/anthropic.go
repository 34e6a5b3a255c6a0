package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ibeckermayer/replyloop/internal/config"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicProvider implements the Provider interface using Anthropic's Claude API
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required (set analysis.api_key or ANTHROPIC_API_KEY)")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicProvider{
		client: &client,
		model:  model,
	}, nil
}

// Name identifies the provider in cached exchanges
func (c *AnthropicProvider) Name() string { return config.ProviderAnthropic }

// Model returns the configured model
func (c *AnthropicProvider) Model() string { return c.model }

// Run sends the input to Claude with the agent instructions as the system prompt
func (c *AnthropicProvider) Run(ctx context.Context, agent Agent, input string) (string, error) {
	// Use prefilling to ensure Claude continues with a JSON object (starting after the "{")
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		System:    []anthropic.TextBlockParam{{Text: agent.Instructions}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(input)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock("{")),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("Claude returned empty response for %s", agent.Name)
	}

	// Prepend "{" since we used prefilling - the response continues from after the "{"
	return extractJSON("{" + responseText), nil
}
