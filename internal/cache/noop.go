package cache

import (
	"context"
	"time"
)

// NoOpCache never stores anything; every Get is a miss. App wiring falls
// back to it when Redis is configured but unreachable, so fetches and jobs
// keep working uncached.
type NoOpCache struct{}

func NewNoOpCache() NoOpCache { return NoOpCache{} }

func (NoOpCache) Get(context.Context, string) (*Entry, error)              { return nil, nil }
func (NoOpCache) Set(context.Context, string, *Entry, time.Duration) error { return nil }
func (NoOpCache) Delete(context.Context, string) error                     { return nil }
func (NoOpCache) Close() error                                             { return nil }
