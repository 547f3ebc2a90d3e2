// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "dailyprompt/docs" // swagger docs
	"dailyprompt/internal/cache"
	"dailyprompt/internal/config"
	"dailyprompt/internal/database"
	"dailyprompt/internal/middleware"
	"dailyprompt/internal/models"
	"dailyprompt/internal/observability"
	"dailyprompt/internal/repository"
	"dailyprompt/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	cache          *cache.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	rateLimiter    *middleware.RateLimiter
	authService    *service.AuthService
	promptService  *service.PromptService
	answerService  *service.AnswerService
}

// NewServer creates a Server from already-initialized dependencies. The
// caller owns db and redisClient; a nil redisClient disables caching and
// per-route rate limits.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if db == nil {
		return nil, errors.New("server: database handle is required")
	}

	userRepo := repository.NewUserRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	answerRepo := repository.NewAnswerRepository(db)

	store := cache.NewStore(redisClient, time.Duration(cfg.PromptCacheTTLSeconds)*time.Second)
	promptService := service.NewPromptService(db, promptRepo, answerRepo, store)

	s := &Server{
		config:         cfg,
		db:             db,
		cache:          store,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
		authService: service.NewAuthService(userRepo, service.AuthConfig{
			Secret:     cfg.JWTSecret,
			TokenTTL:   time.Duration(cfg.TokenTTLHours) * time.Hour,
			BcryptCost: cfg.BcryptCost,
		}),
		promptService: promptService,
		answerService: service.NewAnswerService(db, userRepo, promptRepo, answerRepo, promptService),
	}
	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Daily Prompt API",
		ErrorHandler: ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace IDs
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.ErrRateLimited
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Identity is resolved only on routes that use it, after routing.
	auth := middleware.AuthContext(s.authService)
	api := app.Group("/api")

	api.Get("/metrics/dashboard", auth, middleware.AuthRequired(), monitor.New(monitor.Config{
		Title: "Daily Prompt API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	prompts := api.Group("/prompts")
	prompts.Get("/", s.GetPrompts)
	// /active must be registered before /:id
	prompts.Get("/active", auth, s.GetActivePrompt)
	prompts.Get("/:id", s.GetPrompt)

	answers := api.Group("/answers")
	answers.Get("/", s.GetAnswers)
	answers.Post("/", auth, s.CreateAnswer)

	api.Post("/users", s.rateLimiter.Handler("signup", 5, 10*time.Minute, middleware.FailOpen), s.CreateUser)
	api.Post("/login", s.rateLimiter.Handler("login", 10, 5*time.Minute, middleware.FailClosed), s.Login)

	// Anything that matched no route
	app.Use(func(c *fiber.Ctx) error {
		return models.ErrUnknownEndpoint
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and, when configured, Redis
// are reachable. Redis is optional: without a client it reports "disabled".
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.cache.Enabled() {
		redisStatus = "healthy"
		if err := s.cache.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and waits for in-flight ones. The
// database and Redis handles belong to the caller and are not closed here.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	middleware.Logger.Info("http server stopped")
	return nil
}
