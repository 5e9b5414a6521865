package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const subjectPrefix = "assistant.tasks."

// NewNATS returns a Queue publishing on core NATS subjects. Workers of the
// same task type share a queue group, so each task reaches one worker.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc, backoff: time.Second}
}

type natsQueue struct {
	log     *slog.Logger
	nc      *nats.Conn
	backoff time.Duration
}

func subject(t TaskType) string {
	return subjectPrefix + string(t)
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("task type required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.nc.Publish(subject(task.Type), body); err != nil {
		return fmt.Errorf("publish %s task: %w", task.Type, err)
	}
	return nil
}

func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	sub, err := q.nc.QueueSubscribe(subject(taskType), "workers-"+string(taskType), func(msg *nats.Msg) {
		var task Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			q.log.Error("dropping undecodable task", "subject", msg.Subject, "err", err)
			return
		}
		q.run(ctx, task, handler)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", taskType, err)
	}
	q.log.Info("worker subscribed", "subject", subject(taskType))
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) run(ctx context.Context, task Task, handler Handler) {
	if !waitUntil(ctx, task.NotBefore) {
		return
	}
	err := handler(ctx, task)
	if err == nil {
		return
	}
	log := q.log.With("id", task.ID, "type", task.Type)
	if !nextAttempt(&task, q.backoff) {
		log.Error("task permanently failed", "attempts", task.Attempts, "err", err)
		return
	}
	log.Warn("task failed, retrying", "attempt", task.Attempts, "not_before", task.NotBefore, "err", err)
	if enqErr := q.Enqueue(ctx, task); enqErr != nil {
		log.Error("failed to re-enqueue task after failure", "original_err", err, "enqueue_err", enqErr)
	}
}
