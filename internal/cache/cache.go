// Package cache stores serialized list results so repeated page loads skip
// the database. Entries are keyed per user and dropped on every write.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a best-effort byte store. Misses and backend failures look the
// same to callers: Get returns ok=false and they fall through to the database.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, keys ...string)
	Ping(ctx context.Context) error
}

// Noop is used when REDIS_URL is not set.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
func (Noop) Delete(context.Context, ...string)          {}
func (Noop) Ping(context.Context) error                 { return nil }

// Redis implements Cache with a go-redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Cache = (*Redis)(nil)

// NewRedis parses rawURL ("redis://host:6379/0"), connects and pings.
func NewRedis(ctx context.Context, rawURL string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.logger.Debug("redis get failed", "key", key, "error", err)
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Debug("redis set failed", "key", key, "error", err)
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("redis invalidate failed", "keys", keys, "error", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// GenerationsKey is the list cache key for a user's generations.
func GenerationsKey(userID string) string {
	return "creo:generations:" + userID
}

// TodosKey is the list cache key for a user's todos.
func TodosKey(userID string) string {
	return "creo:todos:" + userID
}
