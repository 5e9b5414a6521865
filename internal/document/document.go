// Package document implements summarization and grounded question answering
// on top of the assistant's stateless Generate call.
package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"doc-assistant/internal/assistant"
	"doc-assistant/internal/chunker"
	"doc-assistant/internal/prompts"
)

const (
	SummaryErrorText = "[Error: Could not generate summary.]"
	AnswerErrorText  = "[Error: Could not answer question.]"

	defaultMaxWords = 6000
)

var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrEmptyQuestion = errors.New("question is empty")
)

// Generator is the slice of the assistant the document features need.
type Generator interface {
	GenerateResult(ctx context.Context, prompt string) assistant.Result
}

// Summarizer summarizes documents and answers questions about them.
type Summarizer struct {
	gen      Generator
	log      *slog.Logger
	maxWords int
}

// NewSummarizer builds a Summarizer. Documents longer than maxWords are
// summarized chunk by chunk first; maxWords <= 0 selects the default.
func NewSummarizer(gen Generator, log *slog.Logger, maxWords int) *Summarizer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxWords <= 0 {
		maxWords = defaultMaxWords
	}
	return &Summarizer{gen: gen, log: log, maxWords: maxWords}
}

// Summarize returns a summary of text. On failure Text carries the
// assistant's fallback message, or SummaryErrorText for empty input.
func (s *Summarizer) Summarize(ctx context.Context, text string, length prompts.Length, style prompts.Style) assistant.Result {
	if strings.TrimSpace(text) == "" {
		return invalid(SummaryErrorText, ErrEmptyDocument)
	}
	s.log.Info("generating summary", "length", length, "style", style, "words", chunker.WordCount(text))

	if chunker.WordCount(text) > s.maxWords {
		condensed, res := s.condense(ctx, text)
		if res.Failed() {
			return res
		}
		text = condensed
	}

	res := s.gen.GenerateResult(ctx, prompts.Summary(text, length, style))
	if !res.Failed() {
		s.log.Debug("summary generated", "summary", preview(res.Text, 200))
	}
	return res
}

// condense summarizes each chunk of a long document and joins the partial
// summaries into a shorter stand-in document.
func (s *Summarizer) condense(ctx context.Context, text string) (string, assistant.Result) {
	chunks := chunker.ChunkText(text, chunker.Options{MaxWords: s.maxWords, Overlap: s.maxWords / 20})
	s.log.Info("document exceeds window, summarizing in parts", "chunks", len(chunks))

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		res := s.gen.GenerateResult(ctx, prompts.Summary(c.Text, prompts.Short, prompts.BulletPoints))
		if res.Failed() {
			s.log.Error("partial summary failed", "chunk", c.Index, "err", res.Err)
			return "", res
		}
		parts = append(parts, res.Text)
	}
	return strings.Join(parts, "\n\n"), assistant.Result{}
}

// Answer answers question using only text.
func (s *Summarizer) Answer(ctx context.Context, text, question string) assistant.Result {
	if strings.TrimSpace(text) == "" {
		return invalid(AnswerErrorText, ErrEmptyDocument)
	}
	if strings.TrimSpace(question) == "" {
		return invalid(AnswerErrorText, ErrEmptyQuestion)
	}
	s.log.Info("answering question based on document", "question", question)

	res := s.gen.GenerateResult(ctx, prompts.Question(text, question))
	if !res.Failed() {
		s.log.Debug("answer generated", "answer", preview(res.Text, 200))
	}
	return res
}

func invalid(text string, err error) assistant.Result {
	return assistant.Result{
		Text: text,
		Err:  &assistant.GenerationError{Kind: assistant.KindInvalidInput, Err: err},
	}
}

// preview cuts s to at most n bytes on a rune boundary.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
