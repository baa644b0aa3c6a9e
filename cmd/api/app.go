package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"escaperooms-directory/internal/handlers"
	"escaperooms-directory/internal/middleware"
	"escaperooms-directory/internal/repositories"
	"escaperooms-directory/internal/services"
	"escaperooms-directory/internal/transformers"
	"escaperooms-directory/internal/validators"
	"escaperooms-directory/pkg/cache"
	"escaperooms-directory/pkg/config"
	"escaperooms-directory/pkg/logger"
	"escaperooms-directory/pkg/metrics"
	"escaperooms-directory/pkg/tracing"

	"github.com/gin-gonic/gin"
)

// App represents the application structure
type App struct {
	Config        *config.Config
	Router        *gin.Engine
	Cache         *cache.Manager
	Source        repositories.RoomSource
	RoomHandler   *handlers.RoomHandler
	CacheHandler  *handlers.CacheHandler
	HealthHandler *handlers.HealthHandler
	RateLimiter   *middleware.RateLimiter
	Server        *http.Server

	ctx             context.Context
	cancel          context.CancelFunc
	tracingShutdown tracing.ShutdownFunc
}

// Create and initialize a new App instance
func NewApp(cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Config: cfg, ctx: ctx, cancel: cancel}

	// Initialize infrastructure
	app.initializeMetrics()
	app.initializeTracing()
	app.initializeCache()
	app.initializeSource()
	app.initializeRateLimiter()

	// Initialize business logic
	app.initializeDependencies()

	// Initialize web layer
	app.initializeRouter()

	return app
}

// initialize Prometheus metrics
func (a *App) initializeMetrics() {
	metrics.Init()
}

// initialize the OpenTelemetry exporter when an endpoint is configured
func (a *App) initializeTracing() {
	shutdown, err := tracing.Setup(a.ctx, a.Config.Tracing)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to initialize tracing, continuing without: %v", err)
	}
	a.tracingShutdown = shutdown
}

// initialize the cache backend; an unreachable backend leaves the manager degraded
func (a *App) initializeCache() {
	store, err := cache.OpenStore(a.Config.Cache, cache.ModeRuntime)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to open cache backend: %v", err)
		os.Exit(1)
	}
	a.Cache = cache.NewManager(a.ctx, store, cache.Options{
		Namespace:    a.Config.Cache.Namespace,
		WriteTimeout: a.Config.Cache.WriteTimeout,
	})
}

// initialize the content source client
func (a *App) initializeSource() {
	a.Source = repositories.NewSource(a.Config.Source)
}

// initialize the rate limiter
func (a *App) initializeRateLimiter() {
	a.RateLimiter = middleware.NewRateLimiter(a.Config.RateLimit.RequestsPerMinute, a.Config.RateLimit.Burst)
	go a.RateLimiter.Cleanup(a.ctx, time.Minute)
}

// initialize all dependencies
func (a *App) initializeDependencies() {
	// repositories
	roomRepo := repositories.NewRoomRepository(a.Source, transformers.NewRoomTransformer())

	// validators
	roomValidator := validators.NewRoomValidator()

	// services
	roomService := services.NewRoomService(a.Cache, roomRepo, a.Config.TTL)

	// handlers
	a.RoomHandler = handlers.NewRoomHandler(roomService, roomValidator)
	a.CacheHandler = handlers.NewCacheHandler(roomService, roomValidator)
	a.HealthHandler = handlers.NewHealthHandler(a.Cache)
}

// set up the Gin router with middleware and routes
func (a *App) initializeRouter() {
	if a.Config.Server.Mode != "" {
		gin.SetMode(a.Config.Server.Mode)
	}
	a.Router = gin.New()
	a.setupMiddleware()
	a.setupRoutes()
}

// cleanup operations
func (a *App) cleanup(ctx context.Context) {
	a.cancel()
	if err := a.Cache.Close(ctx); err != nil {
		logger.GlobalLogger.Errorf("Failed to close cache: %v", err)
	}
	if err := a.tracingShutdown(ctx); err != nil {
		logger.GlobalLogger.Errorf("Failed to flush traces: %v", err)
	}
	_ = logger.GlobalLogger.Sync()
}
