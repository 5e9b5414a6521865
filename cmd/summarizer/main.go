package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"doc-assistant/internal/app"
	"doc-assistant/internal/assistant"
	"doc-assistant/internal/prompts"
	"doc-assistant/internal/provider"
	"doc-assistant/internal/webtext"
)

type documents interface {
	Summarize(ctx context.Context, text string, length prompts.Length, style prompts.Style) assistant.Result
	Answer(ctx context.Context, text, question string) assistant.Result
}

type session struct {
	in     *bufio.Scanner
	out    io.Writer
	log    *slog.Logger
	source webtext.Source
	docs   documents
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, os.Stderr)
	if err != nil {
		var cfgErr *provider.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", cfgErr)
		} else {
			slog.Default().Error("failed to build dependencies", "err", err)
		}
		os.Exit(1)
	}
	defer deps.Close()

	s := &session{
		in:     newScanner(os.Stdin),
		out:    os.Stdout,
		log:    deps.Log,
		source: deps.Source,
		docs:   deps.Summarizer,
	}
	if err := s.run(ctx); err != nil {
		deps.Log.Error("summarizer loop failed", "err", err)
	}
}

// run prompts for URLs until exit; each page is summarized and then opened
// for questions.
func (s *session) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Web Page Summarizer & QA. Type 'exit' or 'quit' to stop.")
	for {
		line, ok := s.prompt("\nEnter a URL to summarize: ")
		if !ok || isExit(line) {
			fmt.Fprintln(s.out, "Goodbye!")
			return s.in.Err()
		}
		if line == "" {
			continue
		}
		if err := webtext.ValidateURL(line); err != nil {
			s.log.Warn("invalid url", "url", line, "err", err)
			fmt.Fprintln(s.out, "Please enter a valid http(s) URL.")
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		text, err := s.source.Fetch(ctx, line)
		if err != nil {
			s.log.Warn("could not retrieve content from URL", "url", line, "err", err)
			fmt.Fprintln(s.out, "Could not retrieve content from URL.")
			continue
		}

		res := s.docs.Summarize(ctx, text, prompts.Medium, prompts.Narrative)
		fmt.Fprintf(s.out, "\n--- Summary ---\n%s\n", res.Text)

		if !s.questions(ctx, text) {
			fmt.Fprintln(s.out, "Goodbye!")
			return s.in.Err()
		}
	}
}

// questions answers questions about text until exit. It reports false when
// input ended.
func (s *session) questions(ctx context.Context, text string) bool {
	for {
		q, ok := s.prompt("\nAsk a question about the document (or 'exit' to choose another URL): ")
		if !ok {
			return false
		}
		if isExit(q) {
			return true
		}
		if q == "" {
			continue
		}
		if ctx.Err() != nil {
			return false
		}
		res := s.docs.Answer(ctx, text, q)
		fmt.Fprintf(s.out, "Answer: %s\n", res.Text)
	}
}

func (s *session) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		fmt.Fprintln(s.out)
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// maxLineBytes bounds a single pasted input line.
const maxLineBytes = 1 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

func isExit(input string) bool {
	return strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit")
}
