package provider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"doc-assistant/internal/config"
)

// Provider enumerates the supported backend kinds.
type Provider int

const (
	Local  Provider = iota + 1 // local Ollama inference server
	Hosted                     // hosted Gemini API
)

func (p Provider) String() string {
	switch p {
	case Local:
		return "local"
	case Hosted:
		return "hosted"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

const (
	DefaultLocalEndpoint = "http://192.168.1.100:11434"
	DefaultLocalModel    = "gemma3"
	DefaultHostedModel   = "gemini-2.0-flash"
	DefaultTimeout       = 60 * time.Second
)

// BackendConfig is the resolved backend selection. It is immutable once
// returned by Select.
type BackendConfig struct {
	Provider Provider      `validate:"oneof=1 2"`
	ModelID  string        `validate:"required"`
	Endpoint string        `validate:"required_if=Provider 1,omitempty,url"`
	APIKey   string        `validate:"required_if=Provider 2"`
	Timeout  time.Duration `validate:"gt=0"`
}

// String prints the config without the credential.
func (c BackendConfig) String() string {
	key := ""
	if c.APIKey != "" {
		key = "[redacted]"
	}
	return fmt.Sprintf("provider=%s model=%s endpoint=%s api_key=%s timeout=%s",
		c.Provider, c.ModelID, c.Endpoint, key, c.Timeout)
}

// ErrMissingCredential is wrapped by the ConfigurationError returned when the
// hosted provider is selected without an API key.
var ErrMissingCredential = errors.New("missing credential for hosted provider")

// ConfigurationError is fatal: the process cannot continue without a valid
// backend.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

var validate = validator.New()

// Select resolves which backend to use from cfg. It performs no network
// calls.
func Select(cfg config.Config) (BackendConfig, error) {
	p, err := parseProvider(cfg)
	if err != nil {
		return BackendConfig{}, err
	}

	bc := BackendConfig{Provider: p, Timeout: cfg.LLMTimeout}
	if bc.Timeout <= 0 {
		bc.Timeout = DefaultTimeout
	}

	switch p {
	case Local:
		bc.Endpoint = strings.TrimRight(withDefault(cfg.OllamaBaseURL, DefaultLocalEndpoint), "/")
		bc.ModelID = withDefault(cfg.OllamaModel, DefaultLocalModel)
	case Hosted:
		bc.APIKey = withDefault(strings.TrimSpace(cfg.GoogleAPIKey), strings.TrimSpace(cfg.GeminiAPIKey))
		if bc.APIKey == "" {
			return BackendConfig{}, &ConfigurationError{Field: "GOOGLE_API_KEY", Err: ErrMissingCredential}
		}
		bc.ModelID = withDefault(cfg.GeminiModel, DefaultHostedModel)
	}

	if err := validate.Struct(bc); err != nil {
		return BackendConfig{}, &ConfigurationError{Err: err}
	}
	return bc, nil
}

func parseProvider(cfg config.Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "":
		if cfg.IsProduction() {
			return Hosted, nil
		}
		return Local, nil
	case "ollama", "local":
		return Local, nil
	case "gemini", "hosted":
		return Hosted, nil
	default:
		return 0, &ConfigurationError{
			Field: "LLM_PROVIDER",
			Err:   fmt.Errorf("invalid value %q (valid options: ollama, gemini)", cfg.LLMProvider),
		}
	}
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
