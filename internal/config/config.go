package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultLLMBaseURL = "https://openrouter.ai/api/v1"
	defaultLLMModel   = "google/gemini-2.0-flash-001"
)

// Config keeps runtime settings for the server.
type Config struct {
	Port        string
	DatabaseURL string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:        strings.TrimSpace(os.Getenv("PORT")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LLMAPIKey:   strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		LLMBaseURL:  strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		LLMModel:    strings.TrimSpace(os.Getenv("LLM_MODEL")),
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = defaultLLMBaseURL
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultLLMModel
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.LLMAPIKey == "" {
		return cfg, fmt.Errorf("LLM_API_KEY is required")
	}

	return cfg, nil
}
