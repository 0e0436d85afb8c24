package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when BillingMetrics is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BillingMetrics records progress payment counters.
type BillingMetrics struct {
	paymentsCreated    *Counter
	paymentsApproved   *Counter
	approvalFailures   *Counter
	rateLookupFailures *Counter
	numberConflicts    *Counter
	logger             *zap.Logger
}

// NewBillingMetrics creates the billing instruments on meter.
func NewBillingMetrics(meter metric.Meter, logger *zap.Logger) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &BillingMetrics{logger: logger}
	defs := []struct {
		dst         **Counter
		name        string
		description string
		unit        string
	}{
		{&m.paymentsCreated, "billing_progress_payment_created_total", "Draft progress payments created", "{payment}"},
		{&m.paymentsApproved, "billing_progress_payment_approved_total", "Progress payments approved", "{payment}"},
		{&m.approvalFailures, "billing_progress_payment_approval_failures_total", "Approvals rolled back, by reason", "{failure}"},
		{&m.rateLookupFailures, "billing_rate_lookup_failures_total", "Exchange rate lookups that failed or timed out", "{lookup}"},
		{&m.numberConflicts, "billing_payment_number_conflicts_total", "Payment number collisions between concurrent creators", "{conflict}"},
	}
	for _, d := range defs {
		c, err := NewCounter(meter, d.name, d.description, d.unit)
		if err != nil {
			return nil, err
		}
		*d.dst = c
	}
	return m, nil
}

func (m *BillingMetrics) RecordPaymentCreated(ctx context.Context, tenantID uuid.UUID) {
	m.paymentsCreated.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

func (m *BillingMetrics) RecordPaymentApproved(ctx context.Context, tenantID uuid.UUID) {
	m.paymentsApproved.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordApprovalFailure counts a failed approval; reason is the error code.
func (m *BillingMetrics) RecordApprovalFailure(ctx context.Context, tenantID uuid.UUID, reason string) {
	if reason == "" {
		reason = "UNKNOWN"
	}
	m.approvalFailures.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrFailureReason.String(reason),
	)
}

func (m *BillingMetrics) RecordRateLookupFailure(ctx context.Context, tenantID uuid.UUID) {
	m.rateLookupFailures.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

func (m *BillingMetrics) RecordNumberConflict(ctx context.Context, tenantID uuid.UUID) {
	m.logger.Debug("payment number conflict", zap.String("tenant_id", tenantID.String()))
	m.numberConflicts.Inc(ctx, AttrTenantID.String(tenantID.String()))
}
