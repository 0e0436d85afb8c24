package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the HTTP, database and billing instruments.
var (
	AttrTenantID = attribute.Key("tenant_id")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")

	AttrCurrency      = attribute.Key("currency")
	AttrFailureReason = attribute.Key("reason")
)

// Bucket boundaries in seconds, or bytes for ResponseSizeBuckets.
var (
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets   = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	// certificate exports dominate the upper buckets
	ResponseSizeBuckets = []float64{100, 1e3, 1e4, 5e4, 1e5, 5e5, 1e6, 5e6}
)

// Counter wraps an Int64Counter with attribute-variadic helpers
type Counter struct {
	metric.Int64Counter
}

func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", name, err)
	}
	return &Counter{c}, nil
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Int64Counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps a Float64Histogram with attribute-variadic helpers
type Histogram struct {
	metric.Float64Histogram
}

// NewHistogram creates a histogram, using the SDK default buckets when none are given
func NewHistogram(meter metric.Meter, name, description, unit string, buckets ...float64) (*Histogram, error) {
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := meter.Float64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", name, err)
	}
	return &Histogram{h}, nil
}

func (h *Histogram) Observe(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.Float64Histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// ObserveSince records the seconds elapsed since start
func (h *Histogram) ObserveSince(ctx context.Context, start time.Time, attrs ...attribute.KeyValue) {
	h.Observe(ctx, time.Since(start).Seconds(), attrs...)
}
