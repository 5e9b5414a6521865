package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrQueueFull is returned by the memory queue when its buffer is full.
var ErrQueueFull = errors.New("queue full")

// MemoryQueue is an in-process Queue. The gateway uses it when no NATS URL
// is configured and runs the summary worker itself.
type MemoryQueue struct {
	log     *slog.Logger
	backoff time.Duration

	mu       sync.Mutex
	channels map[TaskType]chan Task
	size     int
}

// NewMemory returns a MemoryQueue buffering up to size tasks per type.
func NewMemory(log *slog.Logger, size int) *MemoryQueue {
	return &MemoryQueue{
		log:      log,
		backoff:  time.Second,
		channels: make(map[TaskType]chan Task),
		size:     max(size, 1),
	}
}

func (q *MemoryQueue) channel(t TaskType) chan Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.channels[t]
	if !ok {
		ch = make(chan Task, q.size)
		q.channels[t] = ch
	}
	return ch
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("task type required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	select {
	case q.channel(task.Type) <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Worker handles tasks one at a time. Retries are delayed in their own
// goroutine so a waiting task does not block the others.
func (q *MemoryQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	ch := q.channel(taskType)
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-ch:
			if time.Now().Before(task.NotBefore) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if waitUntil(ctx, task.NotBefore) {
						q.requeue(ctx, task)
					}
				}()
				continue
			}
			if err := handler(ctx, task); err != nil {
				q.retry(ctx, task, err)
			}
		}
	}
}

func (q *MemoryQueue) retry(ctx context.Context, task Task, err error) {
	log := q.log.With("id", task.ID, "type", task.Type)
	if !nextAttempt(&task, q.backoff) {
		log.Error("task permanently failed", "attempts", task.Attempts, "err", err)
		return
	}
	log.Warn("task failed, retrying", "attempt", task.Attempts, "err", err)
	q.requeue(ctx, task)
}

func (q *MemoryQueue) requeue(ctx context.Context, task Task) {
	if err := q.Enqueue(ctx, task); err != nil {
		q.log.Error("failed to re-enqueue task", "id", task.ID, "err", err)
	}
}
