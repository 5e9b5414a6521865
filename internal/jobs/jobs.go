// Package jobs runs URL summarization in the background: the gateway submits
// a job to the queue, a worker fetches and summarizes the page, and the
// outcome is stored in the cache under the job id.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"doc-assistant/internal/cache"
	"doc-assistant/internal/document"
	"doc-assistant/internal/prompts"
	"doc-assistant/internal/queue"
	"doc-assistant/internal/webtext"
)

// Request is the task payload of a summary job.
type Request struct {
	JobID  uuid.UUID      `json:"job_id"`
	URL    string         `json:"url"`
	Length prompts.Length `json:"length"`
	Style  prompts.Style  `json:"style"`
}

const maxAttempts = 3

// Submit enqueues req and returns its job id.
func Submit(ctx context.Context, q queue.Queue, req Request) (uuid.UUID, error) {
	if req.JobID == uuid.Nil {
		req.JobID = uuid.New()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return uuid.Nil, err
	}
	task := queue.Task{Type: queue.TaskTypeSummarize, Payload: body, MaxAttempts: maxAttempts}
	if err := queue.EnqueueWithRetry(ctx, q, task, 3, 200*time.Millisecond); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue summary job: %w", err)
	}
	return req.JobID, nil
}

// Key is the cache key holding a job's outcome.
func Key(jobID uuid.UUID) string {
	return cache.Key("job", jobID.String())
}

// Lookup returns the job outcome, or nil while the job is pending.
func Lookup(ctx context.Context, c cache.Cache, jobID uuid.UUID) (*cache.Entry, error) {
	return c.Get(ctx, Key(jobID))
}

// Discard drops a finished job's outcome.
func Discard(ctx context.Context, c cache.Cache, jobID uuid.UUID) error {
	return c.Delete(ctx, Key(jobID))
}

// Runner executes summary jobs.
type Runner struct {
	source     webtext.Source
	summarizer *document.Summarizer
	cache      cache.Cache
	ttl        time.Duration
	log        *slog.Logger
}

func NewRunner(source webtext.Source, summarizer *document.Summarizer, c cache.Cache, ttl time.Duration, log *slog.Logger) *Runner {
	return &Runner{source: source, summarizer: summarizer, cache: c, ttl: ttl, log: log}
}

// Handle processes one summarize task. Only transient fetch failures and
// cache write failures are returned, so the queue retries just those.
// Generation failures are recorded as failed results.
func (r *Runner) Handle(ctx context.Context, task queue.Task) error {
	var req Request
	if err := json.Unmarshal(task.Payload, &req); err != nil {
		r.log.Error("dropping undecodable summary job", "task_id", task.ID, "err", err)
		return nil
	}
	log := r.log.With("job_id", req.JobID, "url", req.URL)

	text, err := r.source.Fetch(ctx, req.URL)
	if err != nil {
		if permanent(err) {
			log.Warn("could not retrieve content from URL", "err", err)
			return r.store(ctx, req.JobID, &cache.Entry{Text: document.SummaryErrorText, ErrorKind: "fetch"})
		}
		return fmt.Errorf("fetch %s: %w", req.URL, err)
	}

	res := r.summarizer.Summarize(ctx, text, req.Length, req.Style)
	entry := &cache.Entry{Text: res.Text}
	if res.Failed() {
		entry.ErrorKind = res.Err.Kind.String()
	}
	log.Info("summary job finished", "failed", res.Failed())
	return r.store(ctx, req.JobID, entry)
}

func (r *Runner) store(ctx context.Context, jobID uuid.UUID, entry *cache.Entry) error {
	entry.CreatedAt = time.Now()
	if err := r.cache.Set(ctx, Key(jobID), entry, r.ttl); err != nil {
		return fmt.Errorf("store job result: %w", err)
	}
	return nil
}

func permanent(err error) bool {
	var statusErr *webtext.StatusError
	return errors.Is(err, webtext.ErrInvalidURL) ||
		errors.Is(err, webtext.ErrNoContent) ||
		errors.As(err, &statusErr)
}
