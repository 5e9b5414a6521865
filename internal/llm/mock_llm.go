package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doc-assistant/internal/history"
)

// MockBackend is a mock implementation of Backend using testify/mock.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Complete(ctx context.Context, messages []history.Turn) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Name() string {
	return "mock"
}
