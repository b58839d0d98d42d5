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

	catalogapp "github.com/bloomshop/backend/internal/application/catalog"
	syncapp "github.com/bloomshop/backend/internal/application/sync"
	"github.com/bloomshop/backend/internal/domain/shared"
	domainsync "github.com/bloomshop/backend/internal/domain/sync"
	"github.com/bloomshop/backend/internal/infrastructure/cache"
	"github.com/bloomshop/backend/internal/infrastructure/config"
	"github.com/bloomshop/backend/internal/infrastructure/crm"
	"github.com/bloomshop/backend/internal/infrastructure/logger"
	"github.com/bloomshop/backend/internal/infrastructure/persistence"
	"github.com/bloomshop/backend/internal/infrastructure/scheduler"
	"github.com/bloomshop/backend/internal/infrastructure/search"
	"github.com/bloomshop/backend/internal/infrastructure/synclock"
	"github.com/bloomshop/backend/internal/interfaces/http/handler"
	"github.com/bloomshop/backend/internal/interfaces/http/middleware"
	"github.com/bloomshop/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting BloomShop Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	syncConfigRepo := persistence.NewGormSyncConfigRepository(db.DB)

	// Dedup store for reindex coalescing
	var dedupStore shared.IdempotencyStore
	if cfg.Sync.DedupBackend == "redis" {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		dedupStore = redisStore
		log.Info("Redis dedup store connected", zap.String("host", cfg.Redis.Host))
	} else {
		dedupStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing dedup store", zap.Error(err))
		}
	}()

	// Background task pool for reindex triggers and CRM pushes
	taskPool := scheduler.NewTaskPool(scheduler.PoolConfig{
		Workers:     cfg.TaskPool.Workers,
		QueueSize:   cfg.TaskPool.QueueSize,
		TaskTimeout: cfg.TaskPool.TaskTimeout,
	}, log)
	taskPool.Start()

	// Reindex client; nil disables triggers
	var reindexClient domainsync.ReindexClient
	if cfg.Sync.ReindexBaseURL != "" {
		reindexClient = search.NewReindexClient(cfg.Sync.ReindexBaseURL)
		log.Info("Reindex triggers enabled", zap.String("base_url", cfg.Sync.ReindexBaseURL))
	} else {
		log.Info("Reindex triggers disabled, no base URL configured")
	}

	// Sync engine wiring
	reindexService := syncapp.NewReindexService(reindexClient, productRepo, dedupStore, taskPool, log)
	reindexService.SetCoalesceWindow(cfg.Sync.CoalesceWindow)
	entityLocks := synclock.NewKeyedMutex()
	upsertService := syncapp.NewUpsertService(productRepo, orderRepo, entityLocks, reindexService, log)
	receiverService := syncapp.NewReceiverService(syncConfigRepo, upsertService, log)
	dispatchService := syncapp.NewDispatchService(syncConfigRepo, crm.NewClient(), taskPool, log)

	// Application services
	productService := catalogapp.NewProductService(productRepo, dispatchService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxWebhookBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewWebhookHandler(receiverService)).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewSystemHandler(cfg.App.Name, version))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Drain queued background work before the process exits
	if err := taskPool.Stop(ctx); err != nil {
		log.Warn("Task pool did not drain in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.FromGin(c).Warn("Health check failed", zap.Error(err))
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
