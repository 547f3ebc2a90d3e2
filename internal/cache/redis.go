// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"dailyprompt/internal/observability"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// ParseOptions accepts either a redis:// URL or a bare host:port address.
// Maintenance notifications are disabled so servers without the subcommand
// do not log a failed handshake on every connection.
func ParseOptions(addr string) (*redis.Options, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}
	return opts, nil
}

// NewClient builds an instrumented client for addr and pings it.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := ParseOptions(addr)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Connect returns a client for addr, or nil when Redis is unreachable. The
// application runs without a cache in that case.
func Connect(ctx context.Context, addr string) *redis.Client {
	client, err := NewClient(ctx, addr)
	if err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		return nil
	}
	log.Println("Redis connected successfully")
	return client
}
