package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"doc-assistant/internal/history"
	"doc-assistant/internal/llm"
)

// DefaultSystemPrompt is prepended to every conversational call.
const DefaultSystemPrompt = "You are a helpful AI assistant. Keep your answers concise."

// Assistant is the single text-generation entry point. It is safe for
// concurrent use; calls for the same session are serialized.
type Assistant struct {
	backend      llm.Backend
	store        history.Store
	log          *slog.Logger
	policy       FallbackPolicy
	systemPrompt string
	timeout      time.Duration
	locks        *sessionLocks
}

type Option func(*Assistant)

func WithLogger(log *slog.Logger) Option {
	return func(a *Assistant) { a.log = log }
}

// WithTimeout bounds each backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.timeout = d }
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Assistant) { a.systemPrompt = prompt }
}

func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(a *Assistant) { a.policy = p }
}

// New wires a backend and a history store into an Assistant.
func New(backend llm.Backend, store history.Store, opts ...Option) *Assistant {
	a := &Assistant{
		backend:      backend,
		store:        store,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:       DefaultPolicy(),
		systemPrompt: DefaultSystemPrompt,
		locks:        newSessionLocks(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate sends prompt as a single user message and returns the reply, or
// the fallback text if anything fails.
func (a *Assistant) Generate(ctx context.Context, prompt string) string {
	return a.policy.Resolve(a.GenerateResult(ctx, prompt))
}

// GenerateResult is Generate with the failure exposed.
func (a *Assistant) GenerateResult(ctx context.Context, prompt string) Result {
	a.log.Debug("generate called", "backend", a.backend.Name(), "prompt", truncate(prompt, 100))

	text, err := a.complete(ctx, []history.Turn{history.User(prompt)})
	if err != nil {
		return a.fail("error generating text", err)
	}
	a.log.Debug("generate response", "response", truncate(text, 100))
	return Result{Text: text}
}

// Converse replies to input within the session's history and records both
// the input and the reply.
func (a *Assistant) Converse(ctx context.Context, input, sessionID string) string {
	return a.policy.Resolve(a.ConverseResult(ctx, input, sessionID))
}

// ConverseResult is Converse with the failure exposed. The user turn and the
// reply are appended together, only after a successful backend call.
func (a *Assistant) ConverseResult(ctx context.Context, input, sessionID string) Result {
	log := a.log.With("session_id", sessionID)
	log.Info("invoking agent", "input", truncate(input, 80))

	unlock := a.locks.lock(sessionID)
	defer unlock()

	past, err := a.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return a.fail("error loading session history", &GenerationError{Kind: KindHistory, Err: err})
	}

	user := history.User(input)
	messages := make([]history.Turn, 0, len(past)+2)
	if a.systemPrompt != "" {
		messages = append(messages, history.System(a.systemPrompt))
	}
	messages = append(messages, past...)
	messages = append(messages, user)

	text, err := a.complete(ctx, messages)
	if err != nil {
		return a.fail("error generating reply", err, "session_id", sessionID)
	}

	if err := a.store.Append(ctx, sessionID, user, history.Assistant(text)); err != nil {
		return a.fail("error saving session history", &GenerationError{Kind: KindHistory, Err: err}, "session_id", sessionID)
	}
	log.Debug("agent response", "response", truncate(text, 100), "turns", len(past)+2)
	return Result{Text: text}
}

// Reset drops the session's history.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	unlock := a.locks.lock(sessionID)
	defer unlock()
	return a.store.Clear(ctx, sessionID)
}

// History returns a copy of the session's turns.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]history.Turn, error) {
	return a.store.GetOrCreate(ctx, sessionID)
}

// Backend reports which backend is active.
func (a *Assistant) Backend() string {
	return a.backend.Name()
}

// complete calls the backend under the configured timeout. A panic in the
// backend or its SDK is returned as a transport error.
func (a *Assistant) complete(ctx context.Context, messages []history.Turn) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend %s panicked: %v", a.backend.Name(), r)
		}
	}()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.backend.Complete(ctx, messages)
}

func (a *Assistant) fail(msg string, err error, attrs ...any) Result {
	ge := classify(err)
	a.log.Error(msg, append(attrs, "kind", ge.Kind.String(), "err", ge.Err)...)
	return Result{Text: a.policy.Message, Err: ge}
}

// truncate limits s to at most maxLen bytes for logging without splitting
// a multibyte character.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
