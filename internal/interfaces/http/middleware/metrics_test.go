package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/identity"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_DisabledIsPassThrough(t *testing.T) {
	w := httptest.NewRecorder()
	okRouter(HTTPMetrics(HTTPMetricsConfig{Enabled: true})).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter_RequestCounterByRole(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ActorKey, identity.Actor{UserID: uuid.New(), Role: identity.RoleTreasurer})
		c.Next()
	})
	router.Use(HTTPMetricsWithMeter(mp.Meter("test"), true))
	router.POST("/api/v1/bills/:id/pay", func(c *gin.Context) {
		c.String(http.StatusOK, "paid")
	})

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/api/v1/bills/"+uuid.NewString()+"/pay", nil))
	}

	m := findMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	dp := sum.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	route, _ := dp.Attributes.Value(attrHTTPRoute)
	assert.Equal(t, "/api/v1/bills/:id/pay", route.AsString())
	role, _ := dp.Attributes.Value("role")
	assert.Equal(t, string(identity.RoleTreasurer), role.AsString())
}

func TestHTTPMetricsWithMeter_DurationAndSize(t *testing.T) {
	mp, reader := setupTestMeter(t)

	w := httptest.NewRecorder()
	okRouter(HTTPMetricsWithMeter(mp.Meter("test"), true)).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	duration := findMetric(t, reader, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	size := findMetric(t, reader, "http_server_response_size_bytes")
	require.NotNil(t, size)
}

func TestHTTPMetricsWithMeter_UnmatchedRoute(t *testing.T) {
	mp, reader := setupTestMeter(t)

	okRouter(HTTPMetricsWithMeter(mp.Meter("test"), true)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	m := findMetric(t, reader, "http_server_request_total")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(attrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
	status, _ := sum.DataPoints[0].Attributes.Value(attrHTTPStatusCode)
	assert.Equal(t, int64(http.StatusNotFound), status.AsInt64())
}

func TestStatusGroup(t *testing.T) {
	assert.Equal(t, "2xx", StatusGroup(201))
	assert.Equal(t, "3xx", StatusGroup(304))
	assert.Equal(t, "4xx", StatusGroup(422))
	assert.Equal(t, "5xx", StatusGroup(503))
	assert.Equal(t, "other", StatusGroup(100))
}
