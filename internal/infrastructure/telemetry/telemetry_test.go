package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/progress-billing/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newManualMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range want.ToSlice() {
			v, ok := dp.Attributes.Value(kv.Key)
			if !ok || v != kv.Value {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false, ServiceName: "billing"}, "test", zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("billing"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestBillingMetrics(t *testing.T) {
	t.Run("nil meter", func(t *testing.T) {
		_, err := NewBillingMetrics(nil, nil)
		assert.ErrorIs(t, err, ErrMeterNil)
	})

	mp, reader := newManualMeter(t)
	m, err := NewBillingMetrics(mp.Meter("billing"), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	tenant := uuid.New()
	other := uuid.New()

	m.RecordPaymentCreated(ctx, tenant)
	m.RecordPaymentCreated(ctx, tenant)
	m.RecordPaymentCreated(ctx, other)
	m.RecordPaymentApproved(ctx, tenant)
	m.RecordApprovalFailure(ctx, tenant, "DOWNSTREAM_FAILURE")
	m.RecordApprovalFailure(ctx, tenant, "")
	m.RecordRateLookupFailure(ctx, tenant)
	m.RecordNumberConflict(ctx, other)

	got := collect(t, reader)
	tenantAttr := AttrTenantID.String(tenant.String())

	assert.Equal(t, int64(2), sumValue(t, got["billing_progress_payment_created_total"], tenantAttr))
	assert.Equal(t, int64(3), sumValue(t, got["billing_progress_payment_created_total"]))
	assert.Equal(t, int64(1), sumValue(t, got["billing_progress_payment_approved_total"], tenantAttr))
	assert.Equal(t, int64(1), sumValue(t, got["billing_progress_payment_approval_failures_total"],
		AttrFailureReason.String("DOWNSTREAM_FAILURE")))
	assert.Equal(t, int64(1), sumValue(t, got["billing_progress_payment_approval_failures_total"],
		AttrFailureReason.String("UNKNOWN")))
	assert.Equal(t, int64(1), sumValue(t, got["billing_rate_lookup_failures_total"], tenantAttr))
	assert.Equal(t, int64(1), sumValue(t, got["billing_payment_number_conflicts_total"],
		AttrTenantID.String(other.String())))
}

type rowModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func newInstrumentedDB(t *testing.T, cfg DBInstrumentation) (*gorm.DB, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&rowModel{}))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	cfg.TracerProvider = tp
	cfg.DBSystem = "sqlite"

	mp, reader := newManualMeter(t)
	require.NoError(t, InstrumentDB(db, cfg, mp.Meter("db"), zap.NewNop()))
	return db, reader, recorder
}

func TestInstrumentDB(t *testing.T) {
	t.Run("counts queries by operation and table", func(t *testing.T) {
		db, reader, recorder := newInstrumentedDB(t, DBInstrumentation{TraceEnabled: true, SlowQueryThreshold: time.Hour})
		ctx := context.Background()

		require.NoError(t, db.WithContext(ctx).Create(&rowModel{Name: "A.1"}).Error)
		var rows []rowModel
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		require.Len(t, rows, 1)

		got := collect(t, reader)
		assert.Equal(t, int64(1), sumValue(t, got["db_query_total"], AttrDBOperation.String("create"), AttrDBTable.String("row_models")))
		assert.Equal(t, int64(1), sumValue(t, got["db_query_total"], AttrDBOperation.String("query")))
		assert.Contains(t, got, "db_query_duration_seconds")
		_, slow := got["db_slow_query_total"]
		assert.False(t, slow, "no query should cross an hour threshold")

		assert.NotEmpty(t, recorder.Ended(), "otelgorm should emit spans")
	})

	t.Run("tiny threshold flags every query as slow", func(t *testing.T) {
		db, reader, _ := newInstrumentedDB(t, DBInstrumentation{TraceEnabled: false, SlowQueryThreshold: time.Nanosecond})

		require.NoError(t, db.Create(&rowModel{Name: "A.2"}).Error)

		got := collect(t, reader)
		assert.Equal(t, int64(1), sumValue(t, got["db_slow_query_total"], AttrDBOperation.String("create")))
	})

	t.Run("without tracing no spans are recorded", func(t *testing.T) {
		db, _, recorder := newInstrumentedDB(t, DBInstrumentation{TraceEnabled: false})
		require.NoError(t, db.Create(&rowModel{Name: "A.3"}).Error)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("nil meter", func(t *testing.T) {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		require.NoError(t, err)
		assert.ErrorIs(t, InstrumentDB(db, DBInstrumentation{}, nil, nil), ErrMeterNil)
	})
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	_, span := StartServiceSpan(context.Background(), "certificate", "render",
		WithAttribute(SpanAttrFormat, "pdf"),
		WithSpanKind(trace.SpanKindInternal),
	)
	SetAttributes(span, SpanAttrPaymentNo, 3, "dangling")
	AddEvent(span, "page_break", "page", 2)
	RecordError(span, nil)
	RecordError(span, errors.New("font missing"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "certificate.render", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String(SpanAttrFormat, "pdf"))
	assert.Contains(t, got.Attributes(), attribute.Int(SpanAttrPaymentNo, 3))
	// AddEvent plus the recorded error
	assert.Len(t, got.Events(), 2)
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		value any
		want  attribute.KeyValue
	}{
		{"x", attribute.String("k", "x")},
		{7, attribute.Int("k", 7)},
		{int64(7), attribute.Int64("k", 7)},
		{1.5, attribute.Float64("k", 1.5)},
		{true, attribute.Bool("k", true)},
		{[]string{"a"}, attribute.StringSlice("k", []string{"a"})},
		{uuid.Nil, attribute.String("k", uuid.Nil.String())},
		{struct{ A int }{1}, attribute.String("k", "{1}")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toAttribute("k", tt.value))
	}
}

type memoryLogExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryLogExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryLogExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryLogExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestNewZapOTELCore(t *testing.T) {
	t.Run("nil provider is a no-op", func(t *testing.T) {
		core := NewZapOTELCore("billing", nil, zapcore.InfoLevel)
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	})

	t.Run("filters below the minimum level", func(t *testing.T) {
		exporter := &memoryLogExporter{}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		log := zap.New(NewZapOTELCore("billing", lp, zapcore.WarnLevel))
		log.Info("payment created")
		log.Warn("rate lookup slow")
		log.With(zap.String("tenant_id", "t1")).Error("approval failed")

		assert.Equal(t, []string{"rate lookup slow", "approval failed"}, exporter.bodies())
	})
}

func TestBridgeLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	t.Run("disabled telemetry returns the base logger", func(t *testing.T) {
		assert.Same(t, base, BridgeLogger(base, nil, zapcore.InfoLevel))
		assert.Same(t, base, BridgeLogger(base, &Providers{}, zapcore.InfoLevel))
	})

	t.Run("tees to the exporter", func(t *testing.T) {
		exporter := &memoryLogExporter{}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		p := &Providers{logs: lp, cfg: config.TelemetryConfig{ServiceName: "billing"}}
		BridgeLogger(base, p, zapcore.InfoLevel).Info("progress payment approved")

		assert.Equal(t, 1, logs.FilterMessage("progress payment approved").Len())
		assert.Equal(t, []string{"progress payment approved"}, exporter.bodies())
	})
}
