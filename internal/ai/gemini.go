package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"retirement_planner/internal/config"

	"google.golang.org/genai"
)

// GeminiProvider calls Google's GenerateContent API.
type GeminiProvider struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpOptions genai.HTTPOptions
}

// GeminiOption configures a GeminiProvider.
type GeminiOption func(*GeminiProvider)

// WithGeminiBaseURL points the client at another endpoint.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(p *GeminiProvider) {
		p.httpOptions.BaseURL = url
	}
}

// NewGeminiProvider builds the provider from config. The SDK client is
// created per call because genai.NewClient rejects an empty key.
func NewGeminiProvider(cfg *config.Config, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:      cfg.GeminiAPIKey,
		model:       cfg.GeminiModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GeminiProvider) Name() string          { return config.ProviderGemini }
func (p *GeminiProvider) CredentialEnv() string { return "GEMINI_API_KEY" }
func (p *GeminiProvider) Configured() bool      { return p.apiKey != "" }

// Complete returns the first text part of the first candidate, or the
// response serialised as JSON when there is no such part.
func (p *GeminiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:      p.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: p.httpOptions,
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("create client: %w", err)}
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   int32(p.maxTokens),
	}
	if p.temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(p.temperature))
	}

	resp, err := client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}, genCfg)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}

	if len(resp.Candidates) > 0 {
		c := resp.Candidates[0]
		if c.Content != nil && len(c.Content.Parts) > 0 && c.Content.Parts[0].Text != "" {
			return c.Content.Parts[0].Text, nil
		}
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf("%+v", resp), nil
	}
	return string(raw), nil
}
