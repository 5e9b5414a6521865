package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"doc-assistant/internal/history"
)

// OllamaBackend talks to a local Ollama server through its OpenAI-compatible
// chat completions API.
type OllamaBackend struct {
	model  string
	client *openai.Client
}

// Ollama ignores the key but the client requires one.
const ollamaAPIKey = "ollama"

// NewOllamaBackend builds a client against endpoint (e.g. http://localhost:11434).
func NewOllamaBackend(endpoint, model string, opts ...option.RequestOption) (*OllamaBackend, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("ollama endpoint required")
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model required")
	}
	base := strings.TrimRight(endpoint, "/") + "/v1/"
	reqOpts := append([]option.RequestOption{
		option.WithBaseURL(base),
		option.WithAPIKey(ollamaAPIKey),
		option.WithMaxRetries(0),
	}, opts...)
	cli := openai.NewClient(reqOpts...)
	return &OllamaBackend{
		model:  model,
		client: &cli,
	}, nil
}

func (b *OllamaBackend) Name() string { return "ollama:" + b.model }

func (b *OllamaBackend) Complete(ctx context.Context, messages []history.Turn) (string, error) {
	if b == nil || b.client == nil {
		return "", fmt.Errorf("nil ollama client")
	}
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.model),
		Messages: buildMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama: no choices returned: %w", ErrMalformedResponse)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("ollama: empty message content: %w", ErrMalformedResponse)
	}
	return content, nil
}

func buildMessages(turns []history.Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case history.RoleSystem:
			out = append(out, openai.SystemMessage(t.Content))
		case history.RoleAssistant:
			out = append(out, openai.AssistantMessage(t.Content))
		default:
			out = append(out, openai.UserMessage(t.Content))
		}
	}
	return out
}
