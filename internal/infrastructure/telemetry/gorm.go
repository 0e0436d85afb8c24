package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBInstrumentation configures GORM tracing and query metrics.
type DBInstrumentation struct {
	TraceEnabled       bool
	LogFullSQL         bool // keep query variables in spans; never in production
	SlowQueryThreshold time.Duration
	DBSystem           string
	TracerProvider     trace.TracerProvider // nil uses the global provider
}

type dbInstruments struct {
	cfg            DBInstrumentation
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	logger         *zap.Logger
}

// InstrumentDB registers otelgorm (spans plus connection pool metrics) and
// the query counters on db.
func InstrumentDB(db *gorm.DB, cfg DBInstrumentation, meter metric.Meter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if cfg.TracerProvider != nil {
			opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	if meter == nil {
		return ErrMeterNil
	}
	ins := &dbInstruments{cfg: cfg, logger: logger}
	var err error
	if ins.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation", "{query}"); err != nil {
		return err
	}
	if ins.queryDuration, err = NewHistogram(meter, "db_query_duration_seconds",
		"Database query latency in seconds", "s", DBDurationBuckets...); err != nil {
		return err
	}
	if ins.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return err
	}
	if err := ins.register(db); err != nil {
		return err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

func (ins *dbInstruments) register(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("telemetry:before_"+h.op, markStart); err != nil {
			return err
		}
		if err := h.after("telemetry:after_"+h.op, ins.observe(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func markStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (ins *dbInstruments) observe(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		attrs := []attribute.KeyValue{
			AttrDBOperation.String(op),
			AttrDBTable.String(db.Statement.Table),
		}
		ins.queryTotal.Inc(ctx, attrs...)

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
			span.SetStatus(codes.Error, db.Error.Error())
		}

		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		ins.queryDuration.Observe(ctx, elapsed.Seconds(), attrs...)
		if elapsed < ins.cfg.SlowQueryThreshold {
			return
		}
		ins.slowQueryTotal.Inc(ctx, attrs...)
		if span.IsRecording() {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", ins.cfg.SlowQueryThreshold.Milliseconds()),
			))
		}
		ins.logger.Warn("slow query",
			zap.String("operation", op),
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}
}
