package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"retirement_planner/internal/config"

	"github.com/tidwall/gjson"
)

// responseTextPath locates the first text block of the first output item.
const responseTextPath = "output.0.content.0.text"

// OpenAIProvider calls the OpenAI Responses API over plain REST.
type OpenAIProvider struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string           `json:"model"`
	Input []responsesInput `json:"input"`
}

// NewOpenAIProvider builds the provider from config. The key may be empty.
func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
		url:        cfg.OpenAIBaseURL + "/responses",
		httpClient: &http.Client{},
	}
}

func (p *OpenAIProvider) Name() string          { return config.ProviderOpenAI }
func (p *OpenAIProvider) CredentialEnv() string { return "OPENAI_API_KEY" }
func (p *OpenAIProvider) Configured() bool      { return p.apiKey != "" }

// Complete posts a two-message input and extracts output[0].content[0].text.
// When that path is missing the raw response body is returned instead.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(responsesRequest{
		Model: p.model,
		Input: []responsesInput{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider: p.Name(),
			Err:      fmt.Errorf("API error %d: %s", resp.StatusCode, string(body)),
		}
	}

	text := gjson.GetBytes(body, responseTextPath)
	if !text.Exists() || text.Type != gjson.String {
		return string(body), nil
	}
	return text.String(), nil
}
