package history

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReadDoesNotStoreSession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Append(ctx, "s1", User("hi")))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreAppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, "s1", User("hi"), Assistant("hello")))
	require.NoError(t, s.Append(ctx, "s1", User("how are you")))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("hi"), Assistant("hello"), User("how are you")}, turns)
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", User("hi")))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again[0].Content)
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", User("one")))
	require.NoError(t, s.Append(ctx, "s2", User("two")))

	s1, _ := s.GetOrCreate(ctx, "s1")
	s2, _ := s.GetOrCreate(ctx, "s2")
	assert.Equal(t, []Turn{User("one")}, s1)
	assert.Equal(t, []Turn{User("two")}, s2)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "s1", User("hi")))
	require.NoError(t, s.Clear(ctx, "s1"))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMemoryStoreValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	assert.ErrorIs(t, s.Append(ctx, "s1", Turn{Role: "robot", Content: "x"}), ErrInvalidRole)
	assert.ErrorIs(t, s.Clear(ctx, ""), ErrEmptySessionID)
}

func TestMemoryStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for j := 0; j < 50; j++ {
				_ = s.Append(ctx, id, User(fmt.Sprintf("%d", j)))
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		turns, err := s.GetOrCreate(ctx, fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		require.Len(t, turns, 50)
		for j, turn := range turns {
			assert.Equal(t, fmt.Sprintf("%d", j), turn.Content)
		}
	}
}
