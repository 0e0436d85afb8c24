package logger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/progress-billing/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
		err  bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"fatal", zapcore.FatalLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "billing.log")
		log, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)

		log.Debug("hidden")
		log.Info("payment created", zap.String("payment_id", "p-1"))
		require.NoError(t, log.Sync())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(raw, &entry), "exactly one json line expected: %s", raw)
		assert.Equal(t, "payment created", entry["msg"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "p-1", entry["payment_id"])
	})

	t.Run("console to stdout", func(t *testing.T) {
		log, err := New(config.LogConfig{Level: "debug", Format: "console", Output: "stdout"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(config.LogConfig{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("unwritable file", func(t *testing.T) {
		_, err := New(config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	t.Run("missing logger is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { FromContext(context.Background()).Info("x") })
		assert.Empty(t, RequestID(context.Background()))
	})

	t.Run("ids are stored and logged", func(t *testing.T) {
		ctx := WithContext(context.Background(), base)
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithTenantID(ctx, "tenant-1")
		ctx = WithUserID(ctx, "user-1")

		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "tenant-1", TenantID(ctx))
		assert.Equal(t, "user-1", UserID(ctx))

		FromContext(ctx).Info("approved")
		entry := logs.TakeAll()
		require.Len(t, entry, 1)
		fields := entry[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "tenant-1", fields["tenant_id"])
		assert.Equal(t, "user-1", fields["user_id"])
	})

	t.Run("ids without a logger are still recorded", func(t *testing.T) {
		ctx := WithTenantID(context.Background(), "tenant-2")
		assert.Equal(t, "tenant-2", TenantID(ctx))
	})

	t.Run("active span adds trace ids", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
		ctx, span := tp.Tracer("test").Start(WithContext(context.Background(), base), "op")
		defer span.End()

		FromContext(ctx).Info("traced")
		entry := logs.TakeAll()
		require.Len(t, entry, 1)
		fields := entry[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDContextKey, "req-42")
		c.Next()
	})
	r.Use(Middleware(base))
	r.GET("/projects/:id", func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithTenantID(c.Request.Context(), "tenant-9"))
		FromGin(c).Info("inside handler")
		c.Status(http.StatusNoContent)
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("rate service unreachable"))
		c.Status(http.StatusBadGateway)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/p1?x=1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "req-42", inside[0].ContextMap()["request_id"])

	done := logs.FilterMessage("HTTP request").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, done[0].Level)
	assert.Equal(t, int64(http.StatusNoContent), fields["status"])
	assert.Equal(t, "/projects/:id", fields["route"])
	assert.Equal(t, "tenant-9", fields["tenant_id"])
	assert.Equal(t, "x=1", fields["query"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	failed := logs.FilterMessage("HTTP request").All()
	require.Len(t, failed, 2)
	assert.Equal(t, zapcore.ErrorLevel, failed[1].Level)
	assert.Equal(t, []any{"rate service unreachable"}, failed[1].ContextMap()["errors"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDContextKey, "req-7")
		c.Next()
	})
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(*gin.Context) { panic("nil boq line") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ERR_INTERNAL", body.Error.Code)
	assert.Equal(t, "req-7", body.Error.RequestID)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestGormLogger(t *testing.T) {
	newLogger := func(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
		core, logs := observer.New(zapcore.DebugLevel)
		return NewGormLogger(zap.New(core), level, 100*time.Millisecond), logs
	}
	stmt := func() (string, int64) { return "SELECT * FROM projects", 1 }

	t.Run("error is logged with request and tenant", func(t *testing.T) {
		l, logs := newLogger(gormlogger.Warn)
		ctx := WithTenantID(WithRequestID(context.Background(), "req-1"), "tenant-1")
		l.Trace(ctx, time.Now(), stmt, errors.New("deadlock detected"))

		entries := logs.FilterMessage("sql error").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "tenant-1", fields["tenant_id"])
		assert.Equal(t, "SELECT * FROM projects", fields["sql"])
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		l, logs := newLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), stmt, gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("slow statement warns", func(t *testing.T) {
		l, logs := newLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
		entries := logs.FilterMessage("slow sql").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("fast statement only at info", func(t *testing.T) {
		l, logs := newLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), stmt, nil)
		assert.Zero(t, logs.Len())

		l2 := l.LogMode(gormlogger.Info)
		l2.Trace(context.Background(), time.Now(), stmt, nil)
		assert.Equal(t, 1, logs.FilterMessage("sql").Len())
	})

	t.Run("silent drops everything", func(t *testing.T) {
		l, logs := newLogger(gormlogger.Silent)
		l.Trace(context.Background(), time.Now(), stmt, errors.New("x"))
		l.Error(context.Background(), "x")
		assert.Zero(t, logs.Len())
	})

	t.Run("printf-style methods", func(t *testing.T) {
		l, logs := newLogger(gormlogger.Info)
		l.Info(context.Background(), "migrated %d tables", 8)
		l.Warn(context.Background(), "w")
		l.Error(context.Background(), "e")
		assert.Equal(t, 1, logs.FilterMessage("migrated 8 tables").Len())
		assert.Equal(t, 3, logs.Len())
	})
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Warn, GormLevel("warn"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
}
