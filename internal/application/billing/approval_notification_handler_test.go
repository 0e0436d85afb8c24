package billing

import (
	"context"
	"testing"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestApprovalNotificationHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewApprovalNotificationHandler(zap.New(core))
	assert.Equal(t, []string{billing.EventTypeProgressPaymentApproved}, h.EventTypes())

	f := newFixture(t, "TRY")
	p, err := billing.NewProgressPayment(f.project, billing.NextSequence(0, nil), billing.NewPaymentParams{
		Date: paymentDate, PeriodStart: paymentDate, PeriodEnd: paymentDate, ExchangeRate: dec("1"),
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), billing.NewProgressPaymentApprovedEvent(p)))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "progress payment approval delivered", entry.Message)
	assert.Equal(t, "PRJ-7", entry.ContextMap()["project_code"])

	err = h.Handle(context.Background(), project.NewProjectCreatedEvent(f.project))
	assert.Error(t, err)
}
