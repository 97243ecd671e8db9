package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/oplog/internal/config"
	"github.com/GoPolymarket/oplog/internal/handler"
	"github.com/GoPolymarket/oplog/internal/middleware"
	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/GoPolymarket/oplog/internal/pkg/logger"
	"github.com/GoPolymarket/oplog/internal/repository"
	"github.com/GoPolymarket/oplog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 0. Initialize Logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	appLog := logger.Get()

	// 2. Initialize Persistence
	// Operation logs: Postgres > Local File, mirrored to Redis and memory
	recent := repository.NewMemoryOperationLogStore(1000)
	var recentLogs handler.RecentLogs = recent
	stores := []oplog.RecordStore{recent}

	var ipRepo *repository.IPRepo
	var dbStore *repository.GormOperationLogStore
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL")
			ipRepo = repository.NewIPRepo(db)
			gdb, err := repository.NewGorm(db)
			if err == nil {
				dbStore = repository.NewGormOperationLogStore(gdb)
				if err := dbStore.Migrate(context.Background()); err != nil {
					logger.Error("⚠️ Failed to migrate sys_operation_log", "error", err)
				}
			} else {
				logger.Error("⚠️ Failed to open gorm", "error", err)
			}
		} else {
			logger.Error("⚠️ Failed to connect to DB, operation logs will be file-only", "error", err)
		}
	}

	var fileStore *repository.FileOperationLogStore
	if dbStore != nil {
		stores = append(stores, dbStore)
	} else {
		fileStore, err = repository.NewFileOperationLogStore(cfg.OperationLog.FileDir)
		if err != nil {
			log.Fatalf("Failed to initialize operation log file: %v", err)
		}
		stores = append(stores, fileStore)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		client, err := repository.NewRedisClient(cfg.Redis)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			rdb = client
			redisStore := repository.NewRedisOperationLogStore(rdb, cfg.Redis.OperationLogKey, cfg.Redis.OperationLogMax)
			stores = append(stores, redisStore)
			recentLogs = redisStore
		} else {
			logger.Error("⚠️ Failed to connect to Redis, running without cache", "error", err)
		}
	}

	deps := oplog.PersisterDeps{
		Store:      repository.NewMultiStore(stores...),
		Clients:    service.NewUserAgentParser(),
		Identities: service.NewJWTIdentityResolver(),
	}
	if ipRepo != nil {
		ttl := time.Duration(cfg.Redis.IPCacheTTLSeconds) * time.Second
		deps.Areas = repository.NewCachedAreaLookup(ipRepo, rdb, ttl, appLog)
	}

	// 3. Initialize Operation Log Pipeline
	persister := oplog.NewPersister(cfg.OperationLog, cfg.Server.ContextPath, deps, appLog)
	persister.Start(context.Background())

	formatter := oplog.NewFormatter(cfg.Log, appLog)
	policy := oplog.NewPrintPolicy(cfg.Log.PrintType, formatter, oplog.NewPrinter(appLog))
	strategy, err := oplog.NewStrategy(cfg.Log, policy, persister)
	if err != nil {
		log.Fatalf("Failed to initialize log strategy: %v", err)
	}
	interceptor := oplog.NewInterceptor(
		oplog.NewExcludeMatcher(cfg.Server.ContextPath, cfg.Log.ExcludePaths),
		oplog.NewSnapshotBuilder(cfg.JWT.TokenName),
		strategy,
		appLog,
	)

	// 4. Setup Router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global Middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "oplog"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API Routes
	registry := oplog.NewRegistry()
	api := r.Group(cfg.Server.ContextPath)
	handler.NewUserHandler(service.NewUserService()).
		Register(handler.NewRouter(api, registry, interceptor, handler.UserController))
	// plain handlers: endpoint resolved per request from the registry
	sys := api.Group("", middleware.OperationLog(interceptor, registry))
	handler.NewSystemHandler(recentLogs).
		Register(handler.NewRouter(sys, registry, interceptor, handler.SystemController))
	logger.Info("📋 Operation log endpoints registered", "count", registry.Len(),
		"print_type", cfg.Log.PrintType, "strategy", cfg.Log.Strategy)

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 oplog started", "port", cfg.Server.Port, "context_path", cfg.Server.ContextPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// 排空操作日志队列
	if err := persister.Close(); err != nil {
		logger.Error("Failed to drain operation logs", "error", err)
	}
	if fileStore != nil {
		_ = fileStore.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("Server exiting")
}
