package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	catalogapp "github.com/stockledger/backend/internal/application/catalog"
	identityapp "github.com/stockledger/backend/internal/application/identity"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/infrastructure/cache"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stockledger/backend/internal/infrastructure/export"
	"github.com/stockledger/backend/internal/infrastructure/lock"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
	"github.com/stockledger/backend/internal/interfaces/http/handler"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"github.com/stockledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration: "+err.Error())
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger: "+err.Error())
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting stock ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, cfg.Log.Level, cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database), log).Register(db.DB); err != nil {
		return fmt.Errorf("failed to register database tracing: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			return err
		}
		log.Info("Database schema migrated")
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	batchRepo := persistence.NewGormStockBatchRepository(db.DB)
	consumptionRepo := persistence.NewGormConsumptionRecordRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(cache.RedisOptions(cfg.Redis))
		defer func() { _ = redisClient.Close() }()
	}

	locker, err := newItemLocker(cfg, redisClient, log)
	if err != nil {
		return err
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Services
	userService := identityapp.NewUserService(userRepo, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, log)
	itemService := catalogapp.NewItemService(itemRepo, categoryRepo, txScope, log)
	stockService := inventoryapp.NewStockService(itemRepo, userRepo, batchRepo, consumptionRepo, txScope, locker, log)
	stockService.SetIdempotencyStore(idempotencyStore, cfg.Stock.IdempotencyTTL)
	if mp.IsEnabled() {
		stockMetrics, err := telemetry.NewStockMetrics(mp.Meter("stock-ledger/stock"))
		if err != nil {
			return fmt.Errorf("failed to create stock metrics: %w", err)
		}
		stockService.SetMetrics(stockMetrics)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(sqlDB),
		User:     handler.NewUserHandler(userService),
		Category: handler.NewCategoryHandler(categoryService),
		Item:     handler.NewItemHandler(itemService),
		Stock:    handler.NewStockHandler(stockService),
		Transaction: handler.NewTransactionHandler(
			stockService,
			dto.NewReportRenderer(cfg.Report.CurrencySymbol, cfg.Report.DateFormat),
			export.NewValuationWorkbook(cfg.Report.CurrencySymbol, cfg.Report.DateFormat),
			export.ContentType,
		),
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engineCfg := engineConfig(cfg, limiter)
	if mp.IsEnabled() {
		engineCfg.Meter = mp.Meter("stock-ledger/http")
	}
	engine, err := router.NewEngine(engineCfg, log)
	if err != nil {
		return err
	}
	router.Register(router.NewRouter(engine), handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		log.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}

// newItemLocker picks the per-item stock lock. The redis locker serializes
// stock-outs across server instances.
func newItemLocker(cfg *config.Config, client *redis.Client, log *zap.Logger) (inventoryapp.ItemLocker, error) {
	switch cfg.Stock.LockBackend {
	case config.LockBackendRedis:
		if client == nil {
			return nil, errors.New("stock.lock_backend=redis requires redis.enabled")
		}
		log.Info("Using redis item locks",
			zap.Duration("ttl", cfg.Stock.LockTTL),
			zap.Duration("wait", cfg.Stock.LockWait))
		return lock.NewRedisLocker(client,
			lock.WithTTL(cfg.Stock.LockTTL),
			lock.WithWait(cfg.Stock.LockWait),
			lock.WithLogger(log),
		), nil
	default:
		log.Info("Using in-process item locks")
		return lock.NewLocalLocker(), nil
	}
}

func engineConfig(cfg *config.Config, limiter *middleware.RateLimiter) router.EngineConfig {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	return router.EngineConfig{
		CORS:           corsCfg,
		Security:       security,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RateLimiter:    limiter,
		Tracing:        middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}
}
