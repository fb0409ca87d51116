package config

import (
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123, 456,nope,789")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.LLMProvider != "gemini" {
			t.Errorf("Expected default LLMProvider 'gemini', got '%s'", cfg.LLMProvider)
		}
		if cfg.DatabasePath != "data/mealplanner.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}

		ids := cfg.AllowedUserIDs()
		if len(ids) != 3 {
			t.Fatalf("Expected 3 allowed user IDs, got %d (%v)", len(ids), ids)
		}
		if ids[0] != 123 || ids[1] != 456 || ids[2] != 789 {
			t.Errorf("Unexpected allowed user IDs: %v", ids)
		}
	})

	t.Run("MissingGeminiKey", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error when GEMINI_API_KEY is unset")
		}
	})

	t.Run("GroqProviderWithoutKey", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("LLM_PROVIDER", "groq")
		t.Setenv("GROQ_API_KEY", "")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error when LLM_PROVIDER=groq without GROQ_API_KEY")
		}
	})
}
