package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"retirement_planner/internal/config"
)

// ErrNotConfigured is returned when the selected provider has no credential.
// No outbound call is made in that case.
var ErrNotConfigured = errors.New("AI client not configured")

// ProviderError wraps a transport or API failure from a narrative provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NarrativeProvider sends a system instruction and a user prompt to a
// language model and returns its text.
type NarrativeProvider interface {
	Name() string
	// CredentialEnv names the variable that holds the API key.
	CredentialEnv() string
	Configured() bool
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator turns a formatted summary into narrative text.
type Generator struct {
	provider NarrativeProvider
	prompts  *PromptTemplate
	timeout  time.Duration
	debug    bool
}

// NewGenerator wires a provider and prompt template. A zero timeout leaves
// the call bounded only by the caller's context.
func NewGenerator(provider NarrativeProvider, prompts *PromptTemplate, timeout time.Duration) *Generator {
	return &Generator{
		provider: provider,
		prompts:  prompts,
		timeout:  timeout,
	}
}

// NewFromConfig builds the provider selected by cfg.LLMProvider and loads
// the prompt template.
func NewFromConfig(cfg *config.Config) (*Generator, error) {
	prompts, err := LoadPrompts(cfg.PromptsDir)
	if err != nil {
		return nil, err
	}

	var provider NarrativeProvider
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		provider = NewAnthropicProvider(cfg)
	case config.ProviderGemini:
		provider = NewGeminiProvider(cfg)
	case config.ProviderOpenAI, "":
		provider = NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	if !provider.Configured() {
		log.Printf("WARNING: %s not found. Narrative generation will fail until it is set.", provider.CredentialEnv())
	}

	g := NewGenerator(provider, prompts, time.Duration(cfg.LLMTimeoutSec)*time.Second)
	g.debug = cfg.Debug()
	return g, nil
}

// Provider returns the active provider name.
func (g *Generator) Provider() string {
	return g.provider.Name()
}

// Generate sends the summary with the fixed instructions and returns the
// model's text. Errors are ErrNotConfigured (wrapped) or *ProviderError.
func (g *Generator) Generate(ctx context.Context, summary string) (string, error) {
	if !g.provider.Configured() {
		return "", fmt.Errorf("%w: %s is not set. Add it to your .env file before running the app",
			ErrNotConfigured, g.provider.CredentialEnv())
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.provider.Complete(ctx, g.prompts.System, g.prompts.UserPrompt(summary))
	if err != nil {
		var pErr *ProviderError
		if !errors.As(err, &pErr) {
			err = &ProviderError{Provider: g.provider.Name(), Err: err}
		}
		return "", err
	}

	if g.debug {
		log.Printf("[DEBUG] %s narrative: %d chars in %s", g.provider.Name(), len(text), time.Since(start).Round(time.Millisecond))
	}
	return text, nil
}
