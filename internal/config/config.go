package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Supported narrative providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config is the process-wide configuration. It is built once in main and
// treated as read-only afterwards.
type Config struct {
	// Narrative provider
	LLMProvider    string  `validate:"oneof=openai anthropic gemini"`
	LLMMaxTokens   int     `validate:"gt=0"`
	LLMTimeoutSec  int     `validate:"gte=0"`
	LLMTemperature float64 `validate:"gte=0,lte=2"`

	OpenAIAPIKey    string
	OpenAIModel     string `validate:"required"`
	OpenAIBaseURL   string `validate:"required,url"`
	AnthropicAPIKey string
	AnthropicModel  string `validate:"required"`
	GeminiAPIKey    string
	GeminiModel     string `validate:"required"`
	PromptsDir      string

	// Market data
	AlpacaKeyID     string
	AlpacaSecretKey string
	AlpacaDataURL   string `validate:"omitempty,url"`
	AlpacaDataFeed  string `validate:"required"`

	// Web
	SecretKey string `validate:"required"`
	Port      int    `validate:"gt=0,lte=65535"`

	// Logging
	LogLevel      string `validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFile       string
	MaxLogSizeMB  int64 `validate:"gt=0"`
	MaxLogBackups int   `validate:"gte=0"`

	Version string
}

// secretVars are masked when the effective environment is logged.
var secretVars = map[string]bool{
	"OPENAI_API_KEY":      true,
	"ANTHROPIC_API_KEY":   true,
	"GEMINI_API_KEY":      true,
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"SECRET_KEY":          true,
	"FLASK_SECRET_KEY":    true,
}

// Load reads the optional .env file and builds the Config from the process
// environment. No credential is required at startup; a missing model key is
// only reported when a narrative is requested.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	} else {
		logEnvFile()
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: Invalid configuration: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the current environment without touching
// .env files or validating.
func FromEnv() *Config {
	secret := getEnv("SECRET_KEY", "")
	if secret == "" {
		secret = getEnv("FLASK_SECRET_KEY", "dev-secret-key")
	}

	return &Config{
		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2048),
		LLMTimeoutSec:  getEnvAsInt("LLM_TIMEOUT_SEC", 0),
		LLMTemperature: getEnvAsFloat64("LLM_TEMPERATURE", 0),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL:   strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		PromptsDir:      os.Getenv("PROMPTS_DIR"),

		AlpacaKeyID:     os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecretKey: os.Getenv("APCA_API_SECRET_KEY"),
		AlpacaDataURL:   os.Getenv("APCA_DATA_URL"),
		AlpacaDataFeed:  getEnv("APCA_DATA_FEED", "iex"),

		SecretKey: secret,
		Port:      getEnvAsInt("PORT", 8080),

		LogLevel:      strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogFile:       getEnv("LOG_FILE", "planner.log"),
		MaxLogSizeMB:  int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),
	}
}

// Validate checks field ranges and enums.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// Debug reports whether verbose logging is on.
func (c *Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}

// logEnvFile prints the variables defined in .env, masking secrets.
func logEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Println("--- .env File Variables ---")
	for _, key := range keys {
		if secretVars[key] {
			log.Printf("%s=%s", key, Mask(envMap[key]))
		} else {
			log.Printf("%s=%s", key, envMap[key])
		}
	}
	log.Println("---------------------------")
}

// Mask hides all but the last 4 characters of a secret.
func Mask(val string) string {
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
