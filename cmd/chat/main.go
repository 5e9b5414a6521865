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
	"doc-assistant/internal/provider"
)

// maxLineBytes bounds a single pasted input line.
const maxLineBytes = 1 << 20

// conversation is the part of the assistant the REPL drives.
type conversation interface {
	Converse(ctx context.Context, input, sessionID string) string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout belongs to the conversation; logs go to stderr.
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

	deps.Log.Info("chat session started", "session_id", deps.Config.SessionID, "backend", deps.Assistant.Backend())
	if err := run(ctx, os.Stdin, os.Stdout, deps.Assistant, deps.Config.SessionID); err != nil {
		deps.Log.Error("chat loop failed", "err", err)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, conv conversation, sessionID string) error {
	fmt.Fprintln(out, "AI Assistant is ready! Type 'exit' or 'quit' to end the conversation.")
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if isExit(input) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if input == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(out, "AI: %s\n", conv.Converse(ctx, input, sessionID))
	}
}

func isExit(input string) bool {
	return strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit")
}
