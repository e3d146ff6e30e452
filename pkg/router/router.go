package router

import (
	"net/http"

	"messenger-bot-demo/backend/internal/api"
	"messenger-bot-demo/backend/pkg/config"
	"messenger-bot-demo/backend/pkg/di"
	"messenger-bot-demo/backend/pkg/errors"
	"messenger-bot-demo/backend/pkg/logger"
	"messenger-bot-demo/backend/pkg/metrics"
	"messenger-bot-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Load configuration
	cfg := config.Get()

	// Configure Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Add request id propagation
	engine.Use(middleware.RequestIDMiddleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Rate-limit the inbound surface per client IP
	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, limiterOpts)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Engine.GET("/metrics", metrics.Handler())

	webhookHandler := api.NewWebhookHandler(r.Config, r.Container.Bot, r.Logger)
	webhookHandler.RegisterRoutes(r.Engine)

	adminHandler := api.NewAdminHandler(r.Container.Directory, r.Container.Messages)
	adminHandler.RegisterRoutes(r.Engine)
}
