package billing

import (
	"context"

	"github.com/google/uuid"
)

// Metrics records billing counters. Implemented by the telemetry package.
type Metrics interface {
	RecordPaymentCreated(ctx context.Context, tenantID uuid.UUID)
	RecordPaymentApproved(ctx context.Context, tenantID uuid.UUID)
	RecordApprovalFailure(ctx context.Context, tenantID uuid.UUID, reason string)
	RecordRateLookupFailure(ctx context.Context, tenantID uuid.UUID)
	RecordNumberConflict(ctx context.Context, tenantID uuid.UUID)
}

type noopMetrics struct{}

func (noopMetrics) RecordPaymentCreated(context.Context, uuid.UUID)          {}
func (noopMetrics) RecordPaymentApproved(context.Context, uuid.UUID)         {}
func (noopMetrics) RecordApprovalFailure(context.Context, uuid.UUID, string) {}
func (noopMetrics) RecordRateLookupFailure(context.Context, uuid.UUID)       {}
func (noopMetrics) RecordNumberConflict(context.Context, uuid.UUID)          {}
