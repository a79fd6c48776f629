package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool                 // Include bound variables in db.statement (development only)
	SlowQueryThresh time.Duration        // Queries slower than this get a slow_query event
	DBSystem        string               // db.system value, e.g. "postgresql"
	TracerProvider  trace.TracerProvider // Defaults to the global provider
}

// DBTracingConfigFrom derives the tracing settings from the telemetry and database config
func DBTracingConfigFrom(tel config.TelemetryConfig, db config.DatabaseConfig) DBTracingConfig {
	thresh := tel.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	return DBTracingConfig{
		Enabled:         tel.Enabled && tel.DBTraceEnabled,
		LogFullSQL:      tel.DBLogFullSQL,
		SlowQueryThresh: thresh,
		DBSystem:        dbSystem(db.Driver),
	}
}

func dbSystem(driver string) string {
	switch driver {
	case config.DriverMySQL:
		return "mysql"
	case config.DriverSQLite:
		return "sqlite"
	default:
		return "postgresql"
	}
}

// DBTracingPlugin registers otelgorm plus callbacks that annotate each query
// span with its table, affected rows and slowness
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// queryStartKey carries the query start time between the before and after callbacks
type queryStartKey struct{}

// Register installs the plugin on db. It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("stock_trace:before_create", p.before),
		cb.Query().Before("gorm:query").Register("stock_trace:before_query", p.before),
		cb.Update().Before("gorm:update").Register("stock_trace:before_update", p.before),
		cb.Delete().Before("gorm:delete").Register("stock_trace:before_delete", p.before),
		cb.Row().Before("gorm:row").Register("stock_trace:before_row", p.before),
		cb.Raw().Before("gorm:raw").Register("stock_trace:before_raw", p.before),
		cb.Create().After("gorm:create").Register("stock_trace:after_create", p.after),
		cb.Query().After("gorm:query").Register("stock_trace:after_query", p.after),
		cb.Update().After("gorm:update").Register("stock_trace:after_update", p.after),
		cb.Delete().After("gorm:delete").Register("stock_trace:after_delete", p.after),
		cb.Row().After("gorm:row").Register("stock_trace:after_row", p.after),
		cb.Raw().After("gorm:raw").Register("stock_trace:after_raw", p.after),
	); err != nil {
		return err
	}

	// Registered after the annotation callbacks so otelgorm ends its span last
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
