// Package bootstrap wires the process-wide resources shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dailyprompt/internal/cache"
	"dailyprompt/internal/config"
	"dailyprompt/internal/database"
	"dailyprompt/internal/middleware"
	"dailyprompt/internal/repository"
	"dailyprompt/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. The Redis client is nil
// when no server is reachable; callers run without caching in that case.
// Release both with Shutdown.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb = cache.Connect(ctx, cfg.RedisURL)
	}
	return db, rdb, nil
}

// Shutdown closes the handles returned by InitRuntime.
func Shutdown(db *gorm.DB, rdb *redis.Client) {
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			middleware.Logger.Warn("error closing redis", slog.String("error", err.Error()))
		}
	}
	if err := database.Close(db); err != nil {
		middleware.Logger.Warn("error closing database", slog.String("error", err.Error()))
	}
}

// NewPromptService builds the prompt service used by the administrative
// commands, with the same cache the server uses so changes invalidate it.
func NewPromptService(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *service.PromptService {
	store := cache.NewStore(rdb, time.Duration(cfg.PromptCacheTTLSeconds)*time.Second)
	return service.NewPromptService(db, repository.NewPromptRepository(db), repository.NewAnswerRepository(db), store)
}
