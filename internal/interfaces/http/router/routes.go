package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/interfaces/http/handler"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig configures the middleware chain of the API engine
type EngineConfig struct {
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	Tracing        middleware.TracingConfig
	Meter          metric.Meter // nil disables request metrics
	TrustedProxies []string
}

// Handlers are the HTTP handlers of the stock ledger API
type Handlers struct {
	Health      *handler.HealthHandler
	User        *handler.UserHandler
	Category    *handler.CategoryHandler
	Item        *handler.ItemHandler
	Stock       *handler.StockHandler
	Transaction *handler.TransactionHandler
}

// NewEngine builds a gin engine with the API middleware chain:
// request id, recovery, request logging, CORS, security headers, body limit,
// rate limit, tracing and request metrics.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.CORS(cfg.CORS),
		middleware.Secure(cfg.Security),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	engine.Use(middleware.Tracing(cfg.Tracing), middleware.SpanEnricher(), middleware.HTTPMetrics(cfg.Meter))

	return engine, nil
}

// Register mounts every stock ledger route under /api/<version>
func Register(r *Router, h Handlers) {
	r.Register(
		NewDomainGroup("health", "").
			GET("/health", h.Health.Check),
		NewDomainGroup("users", "/users").
			POST("", h.User.Register).
			GET("/:id", h.User.Get),
		NewDomainGroup("categories", "/categories").
			GET("", h.Category.List).
			POST("", h.Category.Create),
		NewDomainGroup("items", "/items").
			POST("", h.Item.Create).
			POST("/details", h.Item.CreateDetails).
			GET("/category/:categoryId", h.Item.ListByCategory).
			GET("/:itemId", h.Item.Get).
			PUT("/:itemId/price", h.Item.UpdatePrice).
			DELETE("/:itemId", h.Item.Delete),
		NewDomainGroup("stock", "/stock").
			POST("/batches", h.Stock.CreateBatch).
			GET("/batches", h.Stock.ListBatches).
			GET("/remaining", h.Stock.Remaining).
			POST("/out", h.Stock.StockOut),
		NewDomainGroup("transactions", "/transactions").
			GET("", h.Transaction.Report).
			GET("/export", h.Transaction.Export),
	)
	r.Setup()
}
