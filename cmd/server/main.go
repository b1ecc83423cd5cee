package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/feedsync/backend/internal/application/sync"
	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/infrastructure/config"
	"github.com/feedsync/backend/internal/infrastructure/feedapi"
	"github.com/feedsync/backend/internal/infrastructure/lock"
	"github.com/feedsync/backend/internal/infrastructure/logger"
	"github.com/feedsync/backend/internal/infrastructure/persistence"
	"github.com/feedsync/backend/internal/infrastructure/retry"
	"github.com/feedsync/backend/internal/infrastructure/scheduler"
	"github.com/feedsync/backend/internal/infrastructure/secrets"
	"github.com/feedsync/backend/internal/interfaces/http/handler"
	"github.com/feedsync/backend/internal/interfaces/http/middleware"
	"github.com/feedsync/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting FeedSync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Credential cipher for vendor API secrets
	cipher, err := secrets.NewCipher(cfg.Secrets.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	// Repositories
	vendorRepo := persistence.NewGormVendorRepository(db.DB, cipher)
	catalogStore := persistence.NewGormCatalogStore(db.DB)

	// Per-vendor sync locks: Redis when available, in-process otherwise.
	// A single-instance deployment is safe with the in-memory lock; run
	// Redis when more than one instance shares the vendor set.
	var locks appsync.LockService
	if cfg.Redis.Enabled {
		redisLocks, err := lock.NewRedisLockService(lock.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisLocks.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		locks = redisLocks
		log.Info("Redis lock service connected")
	} else {
		locks = lock.NewMemoryLockService()
		log.Info("Using in-memory lock service")
	}

	// Adapter registry with all known feed API types
	registry := feed.NewAdapterRegistry()
	feedapi.Register(registry)
	log.Info("Feed adapters registered", zap.Strings("api_types", registry.Types()))

	// Retry policy for per-page fetches
	retryer := retry.NewExecutor()
	retryer.MaxAttempts = cfg.Sync.MaxAttempts
	retryer.BaseDelay = cfg.Sync.BaseDelay

	// Sync orchestrator
	orchestrator := appsync.NewOrchestrator(vendorRepo, catalogStore, locks, registry, retryer, log)

	// Periodic sync passes (if enabled)
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.SyncSchedulerConfig{
			Enabled:       cfg.Scheduler.Enabled,
			StockInterval: cfg.Scheduler.StockInterval,
			StockMaxPages: cfg.Scheduler.StockMaxPages,
			FullInterval:  cfg.Scheduler.FullInterval,
			FullMaxPages:  cfg.Scheduler.FullMaxPages,
		}
		syncScheduler, err := scheduler.NewSyncScheduler(schedulerConfig, orchestrator, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer syncScheduler.Stop()
		log.Info("Sync scheduler started",
			zap.Duration("stock_interval", cfg.Scheduler.StockInterval),
			zap.Duration("full_interval", cfg.Scheduler.FullInterval),
		)
	}

	// Initialize HTTP handlers
	vendorHandler := handler.NewVendorHandler(vendorRepo, registry, log)
	syncHandler := handler.NewSyncHandler(orchestrator, log)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	vendorRoutes := router.NewDomainGroup("vendors", "/vendors")
	vendorRoutes.POST("", vendorHandler.Create)
	vendorRoutes.GET("", vendorHandler.List)
	vendorRoutes.GET("/:id", vendorHandler.Get)
	vendorRoutes.PUT("/:id", vendorHandler.Update)
	vendorRoutes.DELETE("/:id", vendorHandler.Delete)
	vendorRoutes.POST("/:id/test", vendorHandler.TestConnection)

	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.POST("", syncHandler.SyncAll)
	syncRoutes.POST("/vendors/:id", syncHandler.SyncVendor)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(vendorRoutes).
		Register(syncRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
