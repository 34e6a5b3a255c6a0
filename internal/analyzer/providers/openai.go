package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ibeckermayer/replyloop/internal/config"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider implements the Provider interface using the OpenAI chat completions API
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider. An empty baseURL uses the public API.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required (set analysis.api_key or OPENAI_API_KEY)")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Name identifies the provider in cached exchanges
func (p *OpenAIProvider) Name() string { return config.ProviderOpenAI }

// Model returns the configured model
func (p *OpenAIProvider) Model() string { return p.model }

// Run sends the agent instructions as the system message and input as the user message
func (p *OpenAIProvider) Run(ctx context.Context, agent Agent, input string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(agent.Instructions),
			openai.UserMessage(input),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("OpenAI returned empty response for %s", agent.Name)
	}

	return extractJSON(resp.Choices[0].Message.Content), nil
}
