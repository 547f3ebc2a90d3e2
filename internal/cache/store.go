package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dailyprompt/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ActivePromptKey = "prompt:active"
	PromptKeyPrefix = "prompt:%s"
)

// DefaultPromptTTL applies when no TTL is configured.
const DefaultPromptTTL = 5 * time.Minute

// PromptKey returns the cache key of a single prompt.
func PromptKey(id uuid.UUID) string {
	return fmt.Sprintf(PromptKeyPrefix, id)
}

// Store is a JSON cache over Redis. A Store with a nil client is a no-op, so
// callers do not branch on whether Redis is configured.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps client. A zero ttl falls back to DefaultPromptTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultPromptTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client backs the store.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with the store TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, s.ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, and stores the result. Cache failures fall through to fetch.
// It reports whether dest was served from the cache.
func (s *Store) Aside(ctx context.Context, key string, dest any, fetch func() error) (bool, error) {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return true, nil
	}

	if err := fetch(); err != nil {
		return false, err
	}

	if err := s.SetJSON(ctx, key, dest); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return false, nil
}

// Invalidate removes keys. Errors are logged, not returned.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// Ping checks the Redis connection; a disabled store always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}
