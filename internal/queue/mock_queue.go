package queue

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockQueue is a testify mock of Queue. Worker returns immediately with the
// mocked error and keeps the handler, so tests can push tasks through it
// with Deliver.
type MockQueue struct {
	mock.Mock

	mu      sync.Mutex
	handler Handler
}

func (m *MockQueue) Enqueue(ctx context.Context, task Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
	return m.Called(ctx, taskType).Error(0)
}

// Deliver runs the registered worker handler on task.
func (m *MockQueue) Deliver(ctx context.Context, task Task) error {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		panic("queue: Deliver called before Worker")
	}
	return h(ctx, task)
}
