package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, (&Config{Level: in}).ZapLevel(), in)
	}
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}

func TestNew_ServiceFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	cfg := FromAppConfig(config.AppConfig{Name: "waterbill", Env: "test"}, config.LogConfig{Level: "info", Output: "stderr"})

	l, err := New(cfg, core)
	require.NoError(t, err)
	l.Info("started")

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "waterbill", fields["service"])
	assert.Equal(t, "test", fields["env"])
}

func TestNew_WritesToFileAndTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	core, recorded := observer.New(zapcore.DebugLevel)

	l, err := New(&Config{Level: "debug", Format: "json", Output: path}, core)
	require.NoError(t, err)

	l.Info("bill created", zap.String("bill_id", "b-1"))
	require.NoError(t, l.Sync())

	entries := recorded.FilterMessage("bill created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "b-1", entries[0].ContextMap()["bill_id"])
	assert.FileExists(t, path)
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestWithActor(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, _ := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, _ = WithActor(ctx, FromContext(ctx), "user-1", "TREASURER")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "TREASURER", GetRole(ctx))

	L(ctx).Info("payment recorded")
	entry := recorded.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "TREASURER", fields["role"])
	assert.NotContains(t, fields, "trace_id")
}

func TestGinMiddleware_LogsWithRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(string(RequestIDKey), "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/bills", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bills?status=UNPAID", nil))

	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "status=UNPAID", fields["query"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	sql := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	gl.Trace(ctx, time.Now(), sql, nil)
	assert.Equal(t, 0, recorded.Len(), "fast queries are not logged at warn level")

	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, recorded.FilterMessage("Slow SQL").Len())

	gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, recorded.FilterMessage("SQL Error").Len())

	gl.Trace(ctx, time.Now(), sql, errors.New("connection reset"))
	assert.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
}

func TestGormLogger_LogMode(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info)

	clone, ok := gl.LogMode(gormlogger.Silent).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Silent, clone.logLevel)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
