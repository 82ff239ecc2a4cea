package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"retirement_planner/internal/config"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records calls instead of reaching a model.
type fakeProvider struct {
	configured bool
	reply      string
	err        error
	calls      int
	system     string
	user       string
}

func (f *fakeProvider) Name() string          { return "fake" }
func (f *fakeProvider) CredentialEnv() string { return "FAKE_API_KEY" }
func (f *fakeProvider) Configured() bool      { return f.configured }
func (f *fakeProvider) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.reply, f.err
}

func mustPrompts(t *testing.T) *PromptTemplate {
	t.Helper()
	p, err := LoadPrompts("")
	require.NoError(t, err)
	return p
}

func TestGenerate_NotConfiguredMakesNoCall(t *testing.T) {
	fake := &fakeProvider{}
	g := NewGenerator(fake, mustPrompts(t), 0)

	_, err := g.Generate(context.Background(), "summary")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Contains(t, err.Error(), "FAKE_API_KEY")
	assert.Equal(t, 0, fake.calls)
}

func TestGenerate_InterpolatesSummary(t *testing.T) {
	fake := &fakeProvider{configured: true, reply: "narrative"}
	g := NewGenerator(fake, mustPrompts(t), 0)

	text, err := g.Generate(context.Background(), "USER FINANCIAL PROFILE:\n- Name: Ada")
	require.NoError(t, err)
	assert.Equal(t, "narrative", text)
	assert.Equal(t, 1, fake.calls)

	assert.Contains(t, fake.system, "NOT an advisor")
	assert.Contains(t, fake.system, "disclaimers")
	assert.Contains(t, fake.user, "- Name: Ada")
	assert.NotContains(t, fake.user, SummaryPlaceholder)
	for _, step := range []string{"1.", "2.", "3.", "4.", "5."} {
		assert.Contains(t, fake.user, "\n"+step+" ")
	}
	assert.Contains(t, fake.user, "ALL CAPS")
}

func TestGenerate_WrapsProviderFailure(t *testing.T) {
	fake := &fakeProvider{configured: true, err: errors.New("quota exceeded")}
	g := NewGenerator(fake, mustPrompts(t), 0)

	_, err := g.Generate(context.Background(), "summary")
	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "fake", pErr.Provider)
	assert.EqualError(t, err, "fake request failed: quota exceeded")
}

func TestLoadPrompts_Override(t *testing.T) {
	dir := t.TempDir()
	custom := "system = \"Be brief.\"\ntask = \"Summarise: {{summary}}\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "narrative.toml"), []byte(custom), 0644))

	p, err := LoadPrompts(dir)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", p.System)
	assert.Equal(t, "Summarise: x", p.UserPrompt("x"))

	// Missing override falls back to the embedded prompt
	p, err = LoadPrompts(t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, p.System, "personal finance educator")
}

func TestLoadPrompts_RejectsTaskWithoutPlaceholder(t *testing.T) {
	dir := t.TempDir()
	bad := "system = \"x\"\ntask = \"no placeholder\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "narrative.toml"), []byte(bad), 0644))

	_, err := LoadPrompts(dir)
	assert.Error(t, err)
}

func openAIServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req responsesRequest
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "gpt-4.1-mini", req.Model)
		if assert.Len(t, req.Input, 2) {
			assert.Equal(t, "system", req.Input[0].Role)
			assert.Equal(t, "user", req.Input[1].Role)
		}

		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openAIConfig(url string) *config.Config {
	return &config.Config{
		OpenAIAPIKey:  "sk-test",
		OpenAIModel:   "gpt-4.1-mini",
		OpenAIBaseURL: url + "/v1",
	}
}

func TestOpenAIProvider_ExtractsFirstText(t *testing.T) {
	var hits int32
	body := `{"output":[{"type":"message","content":[{"type":"output_text","text":"Hello Ada"},{"type":"output_text","text":"ignored"}]}]}`
	srv := openAIServer(t, http.StatusOK, body, &hits)

	text, err := NewOpenAIProvider(openAIConfig(srv.URL)).Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", text)
	assert.Equal(t, int32(1), hits)
}

func TestOpenAIProvider_FallsBackToRawBody(t *testing.T) {
	var hits int32
	body := `{"output":[{"type":"reasoning","summary":[]}]}`
	srv := openAIServer(t, http.StatusOK, body, &hits)

	text, err := NewOpenAIProvider(openAIConfig(srv.URL)).Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, body, text)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	var hits int32
	srv := openAIServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota"}}`, &hits)

	_, err := NewOpenAIProvider(openAIConfig(srv.URL)).Complete(context.Background(), "sys", "user")
	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota")
}

func TestNewFromConfig_MissingKeyNeverDials(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	cfg := openAIConfig(srv.URL)
	cfg.OpenAIAPIKey = ""
	cfg.LLMProvider = config.ProviderOpenAI

	g, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, g.Provider())

	_, err = g.Generate(context.Background(), "summary")
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestNewFromConfig_SelectsProvider(t *testing.T) {
	for _, name := range []string{config.ProviderAnthropic, config.ProviderGemini, config.ProviderOpenAI} {
		g, err := NewFromConfig(&config.Config{LLMProvider: name, OpenAIBaseURL: "http://localhost"})
		require.NoError(t, err)
		assert.Equal(t, name, g.Provider())
	}

	_, err := NewFromConfig(&config.Config{LLMProvider: "llama"})
	assert.Error(t, err)
}

func TestAnthropicProvider_FirstTextBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))

		var req map[string]any
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "claude-test", req["model"])
		assert.NotEmpty(t, req["system"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "Educational scenarios"}],
			"stop_reason": "end_turn", "usage": {"input_tokens": 10, "output_tokens": 3}
		}`)
	}))
	defer srv.Close()

	cfg := &config.Config{AnthropicAPIKey: "sk-ant", AnthropicModel: "claude-test", LLMMaxTokens: 256}
	p := NewAnthropicProvider(cfg, option.WithBaseURL(srv.URL+"/"))

	text, err := p.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Educational scenarios", text)
}

func TestAnthropicProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	cfg := &config.Config{AnthropicAPIKey: "bad", AnthropicModel: "claude-test", LLMMaxTokens: 256}
	_, err := NewAnthropicProvider(cfg, option.WithBaseURL(srv.URL+"/")).Complete(context.Background(), "sys", "user")

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, config.ProviderAnthropic, pErr.Provider)
}

func geminiServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)

		var req map[string]any
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.NotNil(t, req["systemInstruction"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(srv *httptest.Server) *GeminiProvider {
	cfg := &config.Config{GeminiAPIKey: "g-key", GeminiModel: "gemini-test", LLMMaxTokens: 256}
	return NewGeminiProvider(cfg, WithGeminiBaseURL(srv.URL+"/"))
}

func TestGeminiProvider_FirstTextPart(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "Balanced mix"}, {"text": "ignored"}]}}],
		"modelVersion": "gemini-test"
	}`)

	text, err := newTestGemini(srv).Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Balanced mix", text)
}

func TestGeminiProvider_NoCandidatesFallsBackToJSON(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"candidates": [], "modelVersion": "gemini-test-001"}`)

	text, err := newTestGemini(srv).Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Contains(t, text, "gemini-test-001")
	assert.True(t, json.Valid([]byte(text)), text)
}

func TestGeminiProvider_APIError(t *testing.T) {
	srv := geminiServer(t, http.StatusBadRequest,
		`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`)

	_, err := newTestGemini(srv).Complete(context.Background(), "sys", "user")

	var pErr *ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, config.ProviderGemini, pErr.Provider)
	assert.Contains(t, err.Error(), "API key not valid")
}
