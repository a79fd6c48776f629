package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Metrics{}
}

func meteredRouter(mp *sdkmetric.MeterProvider) *gin.Engine {
	router := gin.New()
	router.Use(HTTPMetrics(mp.Meter("http.server")))
	router.GET("/api/v1/items/:itemId", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/api/v1/stock/out", func(c *gin.Context) {
		c.Status(http.StatusUnprocessableEntity)
	})
	return router
}

func TestHTTPMetrics(t *testing.T) {
	t.Run("counts requests by route template and status", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := meteredRouter(mp)

		for _, path := range []string{"/api/v1/items/a", "/api/v1/items/b"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, w.Code)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/stock/out", nil))

		total := findMetric(t, reader, "http_server_request_total")
		sum, ok := total.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 2)

		byRoute := map[string]metricdata.DataPoint[int64]{}
		for _, dp := range sum.DataPoints {
			route, _ := dp.Attributes.Value(attribute.Key("http.route"))
			byRoute[route.AsString()] = dp
		}
		assert.Equal(t, int64(2), byRoute["/api/v1/items/:itemId"].Value)
		assert.Equal(t, int64(1), byRoute["/api/v1/stock/out"].Value)
		stockOut := byRoute["/api/v1/stock/out"]
		status, _ := stockOut.Attributes.Value(attribute.Key("http.status_code"))
		assert.Equal(t, int64(http.StatusUnprocessableEntity), status.AsInt64())
	})

	t.Run("records latency", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := meteredRouter(mp)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items/a", nil))

		duration := findMetric(t, reader, "http_server_request_duration_seconds")
		hist, ok := duration.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	})

	t.Run("unmatched routes share one label", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		router := meteredRouter(mp)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/1", nil))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/2", nil))

		sum := findMetric(t, reader, "http_server_request_total").Data.(metricdata.Sum[int64])
		require.Len(t, sum.DataPoints, 1)
		route, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
		assert.Equal(t, "unknown", route.AsString())
	})

	t.Run("nil meter passes through", func(t *testing.T) {
		router := gin.New()
		router.Use(HTTPMetrics(nil))
		router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
