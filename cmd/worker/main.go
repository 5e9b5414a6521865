package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"doc-assistant/internal/app"
	"doc-assistant/internal/httputil"
	"doc-assistant/internal/jobs"
	"doc-assistant/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, os.Stdout)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	if deps.Config.QueueURL == "" {
		deps.Log.Error("QUEUE_URL is required for the worker")
		os.Exit(1)
	}
	deps.Log.Info("summary worker starting", "backend", deps.Assistant.Backend())

	runner := jobs.NewRunner(deps.Source, deps.Summarizer, deps.Cache, time.Duration(deps.Config.CacheTTL)*time.Second, deps.Log)

	g, gctx := errgroup.WithContext(ctx)

	// Run queue worker
	g.Go(func() error {
		return consume(gctx, deps.Queue, runner)
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(gctx, deps, "worker")
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		deps.Log.Error("worker stopped", "err", err)
	}
}

func consume(ctx context.Context, q queue.Queue, runner *jobs.Runner) error {
	return q.Worker(ctx, queue.TaskTypeSummarize, runner.Handle)
}
