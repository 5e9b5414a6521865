package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"doc-assistant/internal/history"
)

// GeminiBackend calls the hosted Gemini API.
type GeminiBackend struct {
	client    *genai.Client
	modelName string
}

// NewGeminiBackend creates a Gemini API client. baseURL overrides the API
// host and is only set in tests.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string, baseURL ...string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("gemini model required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if len(baseURL) > 0 && baseURL[0] != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL[0]}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiBackend{
		client:    client,
		modelName: modelName,
	}, nil
}

func (b *GeminiBackend) Name() string { return "gemini:" + b.modelName }

func (b *GeminiBackend) Complete(ctx context.Context, messages []history.Turn) (string, error) {
	if b == nil || b.client == nil {
		return "", fmt.Errorf("nil gemini client")
	}
	contents, cfg := buildContents(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("gemini: no user content to send")
	}

	res, err := b.client.Models.GenerateContent(ctx, b.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if res == nil || len(res.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned: %w", ErrMalformedResponse)
	}
	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty text: %w", ErrMalformedResponse)
	}
	return text, nil
}

// buildContents maps turns onto Gemini contents. System turns are joined
// into the system instruction; assistant turns use the "model" role.
func buildContents(turns []history.Turn) ([]*genai.Content, *genai.GenerateContentConfig) {
	var system []string
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case history.RoleSystem:
			system = append(system, t.Content)
		case history.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}

	var cfg *genai.GenerateContentConfig
	if len(system) > 0 {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n"), genai.RoleUser),
		}
	}
	return contents, cfg
}
