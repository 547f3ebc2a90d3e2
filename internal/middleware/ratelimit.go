package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// RateLimiter counts requests per key in fixed Redis windows.
type RateLimiter struct {
	rdb    *redis.Client
	bypass bool
}

// NewRateLimiter returns a limiter backed by rdb. Limits are not enforced
// when env is "test" or "development" so local workflows are not throttled.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	switch env {
	case "", "test", "development":
		return &RateLimiter{rdb: rdb, bypass: true}
	}
	return &RateLimiter{rdb: rdb}
}

// Check reports whether id may perform another request against resource.
func (l *RateLimiter) Check(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l.bypass {
		return true, nil
	}
	if l.rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("ratelimit_incr").Inc()
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Handler returns a Fiber middleware enforcing limit requests per window.
// It keys by authenticated user when known, otherwise by remote IP.
func (l *RateLimiter) Handler(resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := UserIDFromLocals(c); ok {
			id = "user:" + uid.String()
		} else {
			id = "ip:" + c.IP()
		}

		allowed, err := l.Check(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return models.ErrRateLimited
		}
		return c.Next()
	}
}
