package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedBatch struct {
	ID       uint `gorm:"primaryKey"`
	Quantity int
}

func newTracedDB(t *testing.T, cfg DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedBatch{}))
	require.NoError(t, NewDBTracingPlugin(cfg, nil).Register(db))
	return db
}

func recordedAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestDBTracingConfigFrom(t *testing.T) {
	tests := []struct {
		name   string
		tel    config.TelemetryConfig
		driver string
		want   DBTracingConfig
	}{
		{
			name:   "requires both switches",
			tel:    config.TelemetryConfig{Enabled: true, DBTraceEnabled: false},
			driver: config.DriverPostgres,
			want:   DBTracingConfig{Enabled: false, SlowQueryThresh: 200 * time.Millisecond, DBSystem: "postgresql"},
		},
		{
			name:   "mysql with custom threshold",
			tel:    config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBSlowQueryThresh: time.Second},
			driver: config.DriverMySQL,
			want:   DBTracingConfig{Enabled: true, SlowQueryThresh: time.Second, DBSystem: "mysql"},
		},
		{
			name:   "sqlite",
			tel:    config.TelemetryConfig{Enabled: true, DBTraceEnabled: true, DBLogFullSQL: true},
			driver: config.DriverSQLite,
			want:   DBTracingConfig{Enabled: true, LogFullSQL: true, SlowQueryThresh: 200 * time.Millisecond, DBSystem: "sqlite"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DBTracingConfigFrom(tt.tel, config.DatabaseConfig{Driver: tt.driver})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := newTracedDB(t, DBTracingConfig{Enabled: false})
	assert.Nil(t, db.Callback().Query().Get("stock_trace:after_query"))
}

// tableSpans returns the ended spans annotated with db.sql.table
func tableSpans(sr *tracetest.SpanRecorder) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, span := range sr.Ended() {
		if _, ok := recordedAttrs(span)["db.sql.table"]; ok {
			out = append(out, span)
		}
	}
	return out
}

func TestDBTracingPlugin_AnnotatesQuerySpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := newTracedDB(t, DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Hour,
		DBSystem:        "sqlite",
		TracerProvider:  tp,
	})

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedBatch{Quantity: 10}).Error)

	var missing tracedBatch
	err := db.WithContext(ctx).First(&missing, "id = ?", 999).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	spans := tableSpans(sr)
	require.Len(t, spans, 2)
	for _, span := range spans {
		attrs := recordedAttrs(span)
		assert.Equal(t, "traced_batches", attrs["db.sql.table"].AsString())
		_, slow := attrs["db.slow_query"]
		assert.False(t, slow)
	}
	assert.Equal(t, int64(1), recordedAttrs(spans[0])["db.rows_affected"].AsInt64())
	assert.NotEqual(t, codes.Error, spans[1].Status().Code, "record not found is not an error")
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := newTracedDB(t, DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: -1,
		DBSystem:        "sqlite",
		TracerProvider:  tp,
	})

	var rows []tracedBatch
	require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

	spans := tableSpans(sr)
	require.Len(t, spans, 1)
	assert.True(t, recordedAttrs(spans[0])["db.slow_query"].AsBool())

	var names []string
	for _, ev := range spans[0].Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "slow_query")
}
