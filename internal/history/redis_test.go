package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "history:s1", sessionKey("s1"))
}

func TestTurnEncoding(t *testing.T) {
	in := []Turn{User("hi"), Assistant("hello \"there\"")}
	values, err := encodeTurns(in)
	require.NoError(t, err)
	require.Len(t, values, 2)

	raw := make([]string, len(values))
	for i, v := range values {
		raw[i] = string(v.([]byte))
	}
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, raw[0])

	out, err := decodeTurns(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeTurnsRejectsGarbage(t *testing.T) {
	_, err := decodeTurns([]string{"not json"})
	assert.Error(t, err)
}

func TestRedisStoreAppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.False(t, mr.Exists(sessionKey("s1")))

	require.NoError(t, s.Append(ctx, "s1", User("hi"), Assistant("hello")))
	require.NoError(t, s.Append(ctx, "s2", User("other")))
	require.NoError(t, s.Append(ctx, "s1", User("how are you")))

	turns, err = s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("hi"), Assistant("hello"), User("how are you")}, turns)

	other, err := s.GetOrCreate(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("other")}, other)
}

func TestRedisStoreClear(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)

	require.NoError(t, s.Append(ctx, "s1", User("hi")))
	require.NoError(t, s.Clear(ctx, "s1"))
	assert.False(t, mr.Exists(sessionKey("s1")))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, time.Hour)
	key := sessionKey("s1")

	require.NoError(t, s.Append(ctx, "s1", User("hi")))
	assert.Equal(t, time.Hour, mr.TTL(key))

	// A later append renews the expiry.
	mr.FastForward(40 * time.Minute)
	assert.Equal(t, 20*time.Minute, mr.TTL(key))
	require.NoError(t, s.Append(ctx, "s1", Assistant("hello")))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(time.Hour)
	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStoreWithoutTTLKeepsSessions(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)

	require.NoError(t, s.Append(ctx, "s1", User("hi")))
	assert.Zero(t, mr.TTL(sessionKey("s1")))
}

func TestRedisStoreValidation(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)

	_, err := s.GetOrCreate(ctx, "")
	assert.ErrorIs(t, err, ErrEmptySessionID)
	assert.ErrorIs(t, s.Append(ctx, "s1", Turn{Role: "robot", Content: "x"}), ErrInvalidRole)
	assert.False(t, mr.Exists(sessionKey("s1")))
}

func TestRedisStoreReportsConnectionErrors(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t, 0)
	mr.Close()

	_, err := s.GetOrCreate(ctx, "s1")
	assert.Error(t, err)
	assert.Error(t, s.Append(ctx, "s1", User("hi")))
}
