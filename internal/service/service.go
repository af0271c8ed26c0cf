// Package service contains the business rules of the application.
//
// WHY A SEPARATE SERVICE LAYER?
// Handlers speak HTTP (decode JSON, pick status codes) and repositories speak
// SQL. Everything in between lives here: trimming and validating input,
// scoping every read and write to the signed-in user, keeping the list cache
// coherent and emitting activity events. Because services never see an
// http.Request, they are tested with plain fakes and no server at all.
//
// THE DEPENDENCY CHAIN:
//
//	Handler (HTTP) → Service (rules) → Repository (SQL rows)
//	                    │  ├── cache.Cache        (Redis or no-op)
//	                    │  └── events.Publisher   (Kafka or no-op)
//	                    └── generator.Generator   (placeholder or OpenAI)
//
// Services depend on interfaces, so main.go decides which implementation is
// plugged in and tests can swap in in-memory versions.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/creo-studio/internal/cache"
	"github.com/sakif/creo-studio/internal/events"
)

// listCache serves per-user lists from the cache when possible and
// coalesces concurrent database loads for the same key.
//
// CACHE COHERENCE:
// A load that started before a write may finish after it. versions counts
// invalidations per key; a load only stores its result when no invalidation
// happened since it began, so a list read before a write never lands in the
// cache after that write's delete. mu makes the version check and the Set one
// step with respect to invalidate.
type listCache[T any] struct {
	group  singleflight.Group
	cache  cache.Cache
	logger *slog.Logger

	mu       sync.Mutex
	versions map[string]uint64
}

func newListCache[T any](c cache.Cache, logger *slog.Logger) *listCache[T] {
	if c == nil {
		c = cache.Noop{}
	}
	return &listCache[T]{cache: c, logger: logger, versions: make(map[string]uint64)}
}

func (l *listCache[T]) version(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.versions[key]
}

// store caches b unless key was invalidated after version was read.
func (l *listCache[T]) store(ctx context.Context, key string, version uint64, b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.versions[key] != version {
		l.logger.Debug("skipping cache fill for invalidated list", "key", key)
		return
	}
	l.cache.Set(ctx, key, b)
}

// load returns the cached list for key or calls fetch. Each caller gets its
// own copy of the slice.
func (l *listCache[T]) load(ctx context.Context, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if b, ok := l.cache.Get(ctx, key); ok {
		var items []T
		if err := json.Unmarshal(b, &items); err == nil && items != nil {
			return items, nil
		}
		l.logger.Debug("discarding unreadable cache entry", "key", key)
	}

	// The shared load must not be cancelled by whichever caller started it.
	detached := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(key, func() (any, error) {
		started := l.version(key)
		items, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(items); err == nil {
			l.store(detached, key, started, b)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]T)), nil
}

// invalidate drops key so the next load hits the database.
func (l *listCache[T]) invalidate(ctx context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versions[key]++
	l.group.Forget(key)
	l.cache.Delete(ctx, key)
}

// publish emits e, logging instead of failing when the broker is unavailable.
func publish(ctx context.Context, pub events.Publisher, logger *slog.Logger, e events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn("publishing activity event failed",
			slog.String("type", string(e.Type)),
			slog.String("userID", e.UserID),
			slog.Any("error", err),
		)
	}
}
