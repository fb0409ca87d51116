package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM provider keys. Gemini is the default generator; Groq is used
	// when LLM_PROVIDER=groq.
	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	LLMProvider  string `env:"LLM_PROVIDER,default=gemini"`

	DatabasePath string `env:"DATABASE_PATH,default=data/mealplanner.db"`

	// Progress webhook (optional). The key uses the "id:hexsecret" format
	// and signs each delivery with a short-lived JWT.
	ProgressWebhookURL string `env:"PROGRESS_WEBHOOK_URL"`
	ProgressWebhookKey string `env:"PROGRESS_WEBHOOK_KEY"`

	// Telegram Config (Optional for CLI, required for Bot)
	TelegramBotToken       string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL     string `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowedUserIDs string `env:"TELEGRAM_ALLOWED_USER_IDS"`
	AdminTelegramID        int64  `env:"ADMIN_TELEGRAM_ID"`
	ListenAddr             string `env:"LISTEN_ADDR,default=:8080"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration from environment: %w", err)
	}

	if cfg.LLMProvider == "groq" && cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set but LLM_PROVIDER=groq")
	}

	return &cfg, nil
}

// AllowedUserIDs parses the comma-separated TELEGRAM_ALLOWED_USER_IDS value.
// Malformed entries are skipped rather than failing startup.
func (c *Config) AllowedUserIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(c.TelegramAllowedUserIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
