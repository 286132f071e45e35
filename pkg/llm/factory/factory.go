package factory

import (
	"fmt"
	"time"

	"learnly-chat-be/pkg/llm"
	"learnly-chat-be/pkg/llm/gemini"
	"learnly-chat-be/pkg/llm/ollama"
)

type Config struct {
	Provider     string // "gemini" or "ollama"
	Model        string
	GeminiAPIKey string
	OllamaURL    string
	Timeout      time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		model := cfg.Model
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return gemini.NewGeminiProvider(cfg.GeminiAPIKey, model, timeout), nil
	case "ollama":
		baseURL := cfg.OllamaURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
