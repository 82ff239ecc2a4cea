package ai

import (
	"context"

	"retirement_planner/internal/config"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider calls the Claude Messages API.
type AnthropicProvider struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      anthropic.Client
}

// NewAnthropicProvider builds the provider from config. The key may be empty.
func NewAnthropicProvider(cfg *config.Config, opts ...option.RequestOption) *AnthropicProvider {
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &AnthropicProvider{
		apiKey:      cfg.AnthropicAPIKey,
		model:       cfg.AnthropicModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
		client:      anthropic.NewClient(clientOpts...),
	}
}

func (p *AnthropicProvider) Name() string          { return config.ProviderAnthropic }
func (p *AnthropicProvider) CredentialEnv() string { return "ANTHROPIC_API_KEY" }
func (p *AnthropicProvider) Configured() bool      { return p.apiKey != "" }

// Complete sends the system prompt and a single user message and returns the
// first text block, or the raw response JSON when there is none.
func (p *AnthropicProvider) Complete(ctx context.Context, system, user string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if p.temperature > 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return resp.RawJSON(), nil
}
