package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores short-lived results: extracted page text and the outcome of
// asynchronous summary jobs.
type Cache interface {
	// Get retrieves an entry by key.
	// Returns nil if not found
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry with TTL
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// Delete removes an entry
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error
}

// Entry is a cached text result.
type Entry struct {
	Text      string    `json:"text"`
	ErrorKind string    `json:"error_kind,omitempty"` // set when the result is a fallback
	CreatedAt time.Time `json:"created_at"`
}

// Failed reports whether the entry records a failed generation.
func (e *Entry) Failed() bool { return e.ErrorKind != "" }

// Key builds a namespaced cache key. Free-form parts are hashed so keys stay
// short and safe for Redis.
func Key(namespace string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return namespace + ":" + hex.EncodeToString(h[:16])
}
