package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration. All fields come from the environment.
type Config struct {
	// Runtime
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development" (Ollama) or "production" (Gemini)
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM
	LLMProvider   string        `env:"LLM_PROVIDER"` // "ollama"/"local" or "gemini"/"hosted"; derived from ENVIRONMENT when empty
	OllamaBaseURL string        `env:"OLLAMA_BASE_URL"`
	OllamaModel   string        `env:"OLLAMA_MODEL"`
	GoogleAPIKey  string        `env:"GOOGLE_API_KEY"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// History
	HistoryStore  string        `env:"HISTORY_STORE" envDefault:"memory"` // "memory", "sqlite", "postgres" or "redis"
	HistoryDBPath string        `env:"HISTORY_DB_PATH" envDefault:"chat_histories/dev_memory.db"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	HistoryTable  string        `env:"HISTORY_TABLE" envDefault:"message_store"`
	HistoryTTL    time.Duration `env:"HISTORY_TTL" envDefault:"0s"`

	// Redis (history and cache)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Queue
	QueueURL string `env:"QUEUE_URL"`

	// Documents
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	MaxDocumentTokens int           `env:"MAX_DOCUMENT_TOKENS" envDefault:"6000"`

	// REPL
	SessionID string `env:"SESSION_ID" envDefault:"user_abc_dev_session"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// IsProduction reports whether ENVIRONMENT selects the production profile.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
