// Package cache provides the in-memory caches used by the server: a TTL cache
// holding the current documentation index and a content cache for raw pages.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrStale is returned together with a previously built value when a rebuild
// failed and the old value is served in its place.
var ErrStale = errors.New("serving stale value")

// BuildFunc produces a fresh value for an IndexCache.
type BuildFunc[T any] func(ctx context.Context) (T, error)

// Entry is a cached value and the time it was built.
type Entry[T any] struct {
	Value   T
	BuiltAt time.Time
}

// IndexCache holds a single value that is rebuilt once it is older than the TTL.
//
// Rebuilds run synchronously for the caller that observes the expired entry.
// Concurrent callers share one in-flight rebuild. A failed rebuild leaves the
// previous entry and its timestamp untouched. An Invalidate that lands while a
// rebuild is in flight leaves the result of that rebuild already expired.
type IndexCache[T any] struct {
	ttl    time.Duration
	build  BuildFunc[T]
	now    func() time.Time
	logger *slog.Logger

	mu         sync.RWMutex
	entry      *Entry[T]
	generation uint64
	group      singleflight.Group
}

// Option configures an IndexCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewIndexCache creates an empty cache that calls build on first use.
func NewIndexCache[T any](ttl time.Duration, build BuildFunc[T], logger *slog.Logger, opts ...Option) *IndexCache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &IndexCache[T]{
		ttl:    ttl,
		build:  build,
		now:    o.now,
		logger: logger,
	}
}

// Get returns the cached value while it is fresh, otherwise it rebuilds.
//
// If the rebuild fails and an older value exists, that value is returned with
// an error wrapping ErrStale. Without an older value the build error is returned.
func (c *IndexCache[T]) Get(ctx context.Context) (T, error) {
	if e := c.current(); e != nil && c.now().Sub(e.BuiltAt) < c.ttl {
		c.logger.Debug("Index cache hit", "age", c.now().Sub(e.BuiltAt))
		return e.Value, nil
	}

	c.logger.Debug("Index cache miss, rebuilding")
	return c.Rebuild(ctx)
}

// Rebuild builds a new value regardless of the age of the current one.
func (c *IndexCache[T]) Rebuild(ctx context.Context) (T, error) {
	// The build runs to completion even if this caller goes away, other
	// callers may be waiting on the same flight.
	buildCtx := context.WithoutCancel(ctx)

	v, err, _ := c.group.Do("rebuild", func() (interface{}, error) {
		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		start := c.now()
		value, err := c.build(buildCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		builtAt := c.now()
		invalidated := c.generation != gen
		if invalidated {
			builtAt = time.Time{}
		}
		c.entry = &Entry[T]{Value: value, BuiltAt: builtAt}
		c.mu.Unlock()

		c.logger.Info("Index cache rebuilt",
			"duration", c.now().Sub(start),
			"invalidated", invalidated)
		return value, nil
	})
	if err != nil {
		if prev := c.current(); prev != nil {
			c.logger.Warn("Index rebuild failed, serving previous index",
				"error", err,
				"built_at", prev.BuiltAt)
			return prev.Value, fmt.Errorf("%w: rebuild failed: %v", ErrStale, err)
		}
		var zero T
		return zero, fmt.Errorf("failed to build index: %w", err)
	}

	return v.(T), nil
}

// Invalidate marks the current entry as expired without discarding it, so a
// failing rebuild can still fall back to it.
func (c *IndexCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.entry != nil {
		c.entry = &Entry[T]{Value: c.entry.Value, BuiltAt: time.Time{}}
	}
}

// Peek returns the current entry without triggering a rebuild.
func (c *IndexCache[T]) Peek() (Entry[T], bool) {
	e := c.current()
	if e == nil {
		return Entry[T]{}, false
	}
	return *e, true
}

func (c *IndexCache[T]) current() *Entry[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}
