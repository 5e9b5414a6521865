// Package queue carries background tasks between the gateway and workers.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"doc-assistant/internal/retry"
)

// TaskType names a task category; each type has its own subject and worker
// group.
type TaskType string

const (
	TaskTypeSummarize TaskType = "summarize"
)

const defaultMaxAttempts = 5

// Task is a unit of background work. Attempts counts failed handler runs;
// a task is not handed to a worker before NotBefore.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Type        TaskType  `json:"type"`
	Payload     []byte    `json:"payload"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	NotBefore   time.Time `json:"not_before"`
}

// Handler processes one task. A non-nil error schedules a retry.
type Handler func(context.Context, Task) error

// Queue enqueues tasks and runs workers over them.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Worker blocks, feeding tasks of taskType to handler until ctx is done.
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry retries Enqueue with exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	return retry.Policy{Attempts: attempts, Base: base}.Do(ctx, func(ctx context.Context) error {
		return q.Enqueue(ctx, task)
	})
}

// nextAttempt records a handler failure on task. It reports false once the
// task has used all of its attempts.
func nextAttempt(task *Task, base time.Duration) bool {
	task.Attempts++
	if task.MaxAttempts <= 0 {
		task.MaxAttempts = defaultMaxAttempts
	}
	if task.Attempts >= task.MaxAttempts {
		return false
	}
	task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, base))
	return true
}

// waitUntil blocks until t or ctx is done, reporting whether t was reached.
func waitUntil(ctx context.Context, t time.Time) bool {
	wait := time.Until(t)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
