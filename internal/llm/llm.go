package llm

import (
	"context"
	"errors"
	"fmt"

	"doc-assistant/internal/history"
	"doc-assistant/internal/provider"
)

// Backend is a text-generation service. Implementations normalize their
// provider's response envelope into a plain reply string.
type Backend interface {
	Complete(ctx context.Context, messages []history.Turn) (string, error)
	Name() string
}

// ErrMalformedResponse marks a response that arrived but carried no usable
// reply text.
var ErrMalformedResponse = errors.New("malformed response")

// New builds the backend variant for cfg. The provider is inspected once,
// here; callers hold the resulting Backend for the process lifetime.
func New(ctx context.Context, cfg provider.BackendConfig) (Backend, error) {
	switch cfg.Provider {
	case provider.Local:
		return NewOllamaBackend(cfg.Endpoint, cfg.ModelID)
	case provider.Hosted:
		return NewGeminiBackend(ctx, cfg.APIKey, cfg.ModelID)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
