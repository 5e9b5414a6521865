package webtext

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"doc-assistant/internal/cache"
)

// CachedSource memoizes extracted page text by URL.
type CachedSource struct {
	next  Source
	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedSource(next Source, c cache.Cache, ttl time.Duration, log *slog.Logger) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl, log: log}
}

func (s *CachedSource) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	key := cache.Key("page", rawURL)
	if entry, err := s.cache.Get(ctx, key); err == nil && entry != nil {
		s.log.Debug("page cache hit", "url", rawURL)
		return entry.Text, nil
	} else if err != nil {
		s.log.Warn("page cache read failed", "url", rawURL, "err", err)
	}

	text, err := s.next.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, &cache.Entry{Text: text, CreatedAt: time.Now()}, s.ttl); err != nil {
		// Log cache write failure but don't fail the fetch
		s.log.Warn("failed to cache page text", "url", rawURL, "err", err)
	}
	return text, nil
}
