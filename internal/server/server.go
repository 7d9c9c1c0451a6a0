// Package server contains the HTTP handlers for the microblog API.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"microblog/internal/cache"
	"microblog/internal/clock"
	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/events"
	"microblog/internal/identity"
	"microblog/internal/middleware"
	"microblog/internal/models"
	"microblog/internal/repository"
	"microblog/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics registers the HTTP collectors once per process; the default
// registry rejects duplicates.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("microblog-api")
	})
	return prom
}

// Deps are the collaborators a Server needs beyond its configuration.
type Deps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Provider  identity.Provider
	Publisher events.Publisher
	Clock     clock.Clock
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	provider       identity.Provider
	states         *identity.StateStore
	publisher      events.Publisher
	clock          clock.Clock
	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	feedService    *service.FeedService
}

// NewServer connects to the database, Redis, the event broker and the
// identity provider described by cfg.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	deps := Deps{
		DB:    db,
		Redis: cache.Connect(cfg.RedisURL),
		Publisher: events.NewPublisher(events.KafkaConfig{
			Brokers: cfg.KafkaBrokerList(),
			Topic:   cfg.KafkaTopic,
		}),
	}

	if cfg.OIDCIssuer != "" {
		provider, err := identity.NewOIDCProvider(ctx, identity.OIDCConfig{
			Issuer:       cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
		if err != nil {
			return nil, fmt.Errorf("identity provider: %w", err)
		}
		deps.Provider = provider
	} else {
		middleware.Logger.Warn("OIDC_ISSUER not set; login is disabled")
	}

	return NewServerWithDeps(cfg, deps), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer owns the connections.
func NewServerWithDeps(cfg *config.Config, deps Deps) *Server {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}

	store := repository.NewStore(deps.DB)
	pagination := service.Pagination{PostsPerPage: cfg.PostsPerPage, MaxPageSize: cfg.MaxPageSize}

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: httpMetrics(),
		provider:       deps.Provider,
		publisher:      deps.Publisher,
		clock:          deps.Clock,
		userService:    service.NewUserService(store, deps.Publisher, deps.Clock),
		followService:  service.NewFollowService(store, deps.Publisher, deps.Clock),
		postService:    service.NewPostService(store, deps.Publisher, deps.Clock, pagination),
		feedService:    service.NewFeedService(store, pagination),
	}
	if deps.Redis != nil {
		s.states = identity.NewStateStore(deps.Redis, 0)
	}
	return s
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Microblog API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "Resource not found"})
		}
		if fe.Code < fiber.StatusInternalServerError {
			return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
		}
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"path", c.Path(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	// Fiber refuses a wildcard origin together with credentials.
	origins := strings.Join(s.config.AllowedOriginList(), ",")
	if origins == "" || origins == "*" {
		origins = "http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
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
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Get("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/callback", s.Callback)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Auth is attached per route so unmatched /api paths still reach the 404 handler.
	authRequired := s.AuthRequired()

	api.Get("/feed", authRequired, s.GetFeed)
	api.Post("/posts", authRequired, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)

	users := api.Group("/users", authRequired)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	// Specific /:nickname/:resource routes before the generic /:nickname route
	users.Get("/:nickname/posts", s.GetUserPosts)
	users.Get("/:nickname/following", s.GetFollowing)
	users.Get("/:nickname/followers", s.GetFollowers)
	users.Post("/:nickname/follow", s.FollowUser)
	users.Delete("/:nickname/follow", s.UnfollowUser)
	users.Get("/:nickname", s.GetUserProfile)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   s.clock.NowUTC(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Login state and token revocation live in Redis.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": s.clock.NowUTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.publisher.Close(); err != nil {
		middleware.Logger.Error("error closing event publisher", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
