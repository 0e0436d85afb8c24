package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockOutboxStore struct {
	mock.Mock
}

func (m *MockOutboxStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxStore) FindDead(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	args := m.Called(ctx, tenantID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxStore) CountByStatusForTenant(ctx context.Context, tenantID uuid.UUID) (map[shared.OutboxStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[shared.OutboxStatus]int64), args.Error(1)
}

func (m *MockOutboxStore) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func deadEntry(tenantID uuid.UUID) *shared.OutboxEntry {
	return &shared.OutboxEntry{
		ID:            uuid.New(),
		TenantID:      tenantID,
		EventID:       uuid.New(),
		EventType:     "ProgressPaymentApproved",
		AggregateID:   uuid.New(),
		AggregateType: "ProgressPayment",
		Status:        shared.OutboxStatusDead,
		RetryCount:    5,
		MaxRetries:    5,
		LastError:     "smtp: connection refused",
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestOutboxService_ListDeadEntries(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("defaults and page count", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		entries := []*shared.OutboxEntry{deadEntry(tenantID), deadEntry(tenantID)}
		repo.On("FindDead", ctx, tenantID, 1, 20).Return(entries, int64(41), nil)

		result, err := svc.ListDeadEntries(ctx, tenantID, OutboxFilter{})

		require.NoError(t, err)
		assert.Len(t, result.Entries, 2)
		assert.Equal(t, int64(41), result.Total)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, "DEAD", result.Entries[0].Status)
		assert.Equal(t, "smtp: connection refused", result.Entries[0].LastError)
		repo.AssertExpectations(t)
	})

	t.Run("page size is capped", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		repo.On("FindDead", ctx, tenantID, 2, 100).Return([]*shared.OutboxEntry{}, int64(0), nil)

		result, err := svc.ListDeadEntries(ctx, tenantID, OutboxFilter{Page: 2, PageSize: 500})

		require.NoError(t, err)
		assert.Equal(t, 100, result.PageSize)
		assert.Zero(t, result.TotalPages)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		repo.On("FindDead", ctx, tenantID, 1, 20).Return(nil, int64(0), errors.New("connection reset"))

		_, err := svc.ListDeadEntries(ctx, tenantID, OutboxFilter{})

		assert.EqualError(t, err, "connection reset")
	})
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("resets and saves", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		entry := deadEntry(tenantID)
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		repo.On("Update", ctx, mock.MatchedBy(func(e *shared.OutboxEntry) bool {
			return e.ID == entry.ID && e.Status == shared.OutboxStatusPending && e.RetryCount == 0
		})).Return(nil)

		dto, err := svc.RetryDeadEntry(ctx, tenantID, entry.ID)

		require.NoError(t, err)
		assert.Equal(t, "PENDING", dto.Status)
		assert.Empty(t, dto.LastError)
		repo.AssertExpectations(t)
	})

	t.Run("other tenant's entry is not found", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		entry := deadEntry(uuid.New())
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)

		_, err := svc.RetryDeadEntry(ctx, tenantID, entry.ID)

		assert.Equal(t, shared.CodeNotFound, domainCode(t, err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing entry", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.NewNotFoundError("outbox entry"))

		_, err := svc.RetryDeadEntry(ctx, tenantID, id)

		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("live entry cannot be retried", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		entry := deadEntry(tenantID)
		entry.Status = shared.OutboxStatusSent
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)

		_, err := svc.RetryDeadEntry(ctx, tenantID, entry.ID)

		assert.Equal(t, shared.CodeInvalidState, domainCode(t, err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("update failure", func(t *testing.T) {
		repo := new(MockOutboxStore)
		svc := NewOutboxService(repo, zap.NewNop())
		entry := deadEntry(tenantID)
		repo.On("FindByID", ctx, entry.ID).Return(entry, nil)
		repo.On("Update", ctx, entry).Return(errors.New("deadlock detected"))

		_, err := svc.RetryDeadEntry(ctx, tenantID, entry.ID)

		assert.EqualError(t, err, "deadlock detected")
	})
}

func TestOutboxService_GetStats(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockOutboxStore)
	svc := NewOutboxService(repo, zap.NewNop())
	repo.On("CountByStatusForTenant", ctx, tenantID).Return(map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending: 3,
		shared.OutboxStatusSent:    40,
		shared.OutboxStatusDead:    2,
	}, nil)

	stats, err := svc.GetStats(ctx, tenantID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Pending)
	assert.Equal(t, int64(40), stats.Sent)
	assert.Equal(t, int64(2), stats.Dead)
	assert.Zero(t, stats.Failed)
	assert.Equal(t, int64(45), stats.Total)
}
