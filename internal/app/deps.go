package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"doc-assistant/internal/assistant"
	"doc-assistant/internal/cache"
	"doc-assistant/internal/config"
	"doc-assistant/internal/document"
	"doc-assistant/internal/history"
	"doc-assistant/internal/llm"
	"doc-assistant/internal/logger"
	"doc-assistant/internal/provider"
	"doc-assistant/internal/queue"
	"doc-assistant/internal/webtext"
)

const localQueueSize = 64

// Deps bundles common runtime dependencies for the commands.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Backend    provider.BackendConfig
	History    history.Store
	Assistant  *assistant.Assistant
	Summarizer *document.Summarizer
	Source     webtext.Source
	Cache      cache.Cache
	Queue      queue.Queue // in-process when QUEUE_URL is unset

	closers []io.Closer
}

// Build loads .env, config and shared components. Logs go to logOut.
// A *provider.ConfigurationError in the chain is fatal to the caller.
func Build(ctx context.Context, logOut io.Writer) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(logOut, cfg.LogLevel)
	log.Info("loaded environment", "environment", cfg.Environment)

	return BuildFromConfig(ctx, cfg, log)
}

// BuildFromConfig wires components from an already loaded config.
func BuildFromConfig(ctx context.Context, cfg config.Config, log *slog.Logger) (Deps, error) {
	bc, err := provider.Select(cfg)
	if err != nil {
		log.Error("invalid backend configuration", "err", err)
		return Deps{}, err
	}
	backend, err := llm.New(ctx, bc)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	log.Info("using LLM backend", "backend", backend.Name(), "config", bc.String())

	deps := Deps{Config: cfg, Log: log, Backend: bc}

	deps.History, err = buildHistory(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize history store: %w", err)
	}
	deps.closers = append(deps.closers, deps.History)

	deps.Assistant = assistant.New(backend, deps.History,
		assistant.WithLogger(log),
		assistant.WithTimeout(bc.Timeout),
	)
	deps.Summarizer = document.NewSummarizer(deps.Assistant, log, cfg.MaxDocumentTokens)

	deps.Cache = buildCache(cfg, log)
	deps.closers = append(deps.closers, deps.Cache)
	deps.Source = webtext.NewCachedSource(
		webtext.NewFetcher(log, cfg.FetchTimeout),
		deps.Cache,
		time.Duration(cfg.CacheTTL)*time.Second,
		log,
	)

	if cfg.QueueURL == "" {
		log.Info("using in-process queue")
		deps.Queue = queue.NewMemory(log, localQueueSize)
		return deps, nil
	}

	nc, err := nats.Connect(cfg.QueueURL)
	if err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS queue")
	deps.Queue = queue.NewNATS(log, nc)
	deps.closers = append(deps.closers, closerFunc(func() error { nc.Close(); return nil }))
	return deps, nil
}

// Close releases every connection opened by Build.
func (d Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func buildHistory(ctx context.Context, cfg config.Config, log *slog.Logger) (history.Store, error) {
	switch cfg.HistoryStore {
	case "", "memory":
		log.Info("using in-memory history")
		return history.NewMemoryStore(), nil
	case "sqlite":
		st, err := history.NewSQLite(ctx, cfg.HistoryDBPath, cfg.HistoryTable)
		if err != nil {
			return nil, err
		}
		log.Info("using SQLite history", "path", cfg.HistoryDBPath)
		return st, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when HISTORY_STORE=postgres")
		}
		st, err := history.NewPostgres(ctx, cfg.DatabaseURL, cfg.HistoryTable)
		if err != nil {
			return nil, err
		}
		log.Info("using Postgres history")
		return st, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when HISTORY_STORE=redis")
		}
		st, err := history.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.HistoryTTL)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis history", "ttl", cfg.HistoryTTL)
		return st, nil
	default:
		return nil, fmt.Errorf("invalid HISTORY_STORE: %s (valid options: memory, sqlite, postgres, redis)", cfg.HistoryStore)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		log.Info("using in-memory cache")
		return cache.NewMemoryCache()
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, caching disabled", "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis cache")
	return c
}
