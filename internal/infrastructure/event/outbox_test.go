package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/infrastructure/cache"
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.OutboxEntryModel{}))
	return db
}

func projectEvents(t *testing.T) []shared.DomainEvent {
	t.Helper()
	p, err := project.NewProject(uuid.New(), "PRJ-7", "Riverside housing", "TRY", project.Terms{
		ContractAmount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	require.NoError(t, p.AssignCustomer(uuid.New(), "Acme Holding"))
	return p.GetDomainEvents()
}

func TestOutboxPublisher_SaveEvents(t *testing.T) {
	db := setupOutboxDB(t)
	publisher := NewOutboxPublisher(NewBillingEventSerializer())
	ctx := context.Background()

	events := projectEvents(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.SaveEvents(ctx, tx, events...)
	})
	require.NoError(t, err)

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, shared.OutboxStatusPending, pending[0].Status)
	assert.ElementsMatch(t,
		[]string{project.EventTypeProjectCreated, project.EventTypeProjectCustomerAssigned},
		[]string{pending[0].EventType, pending[1].EventType})
}

func TestOutboxPublisher_RollbackDiscardsEvents(t *testing.T) {
	db := setupOutboxDB(t)
	publisher := NewOutboxPublisher(NewBillingEventSerializer())
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := publisher.SaveEvents(ctx, tx, projectEvents(t)...); err != nil {
			return err
		}
		return errors.New("aggregate write failed")
	})
	require.Error(t, err)

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxPublisher_RejectsUnregisteredEvent(t *testing.T) {
	db := setupOutboxDB(t)
	publisher := NewOutboxPublisher(NewEventSerializer())

	err := publisher.SaveEvents(context.Background(), db, projectEvents(t)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestOutboxPublisher_SaveEvents_WrongTx(t *testing.T) {
	publisher := NewOutboxPublisher(NewBillingEventSerializer())

	err := publisher.SaveEvents(context.Background(), "not a tx", projectEvents(t)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "*gorm.DB")
}

func TestOutboxProcessor_ProcessBatch(t *testing.T) {
	db := setupOutboxDB(t)
	ctx := context.Background()
	serializer := NewBillingEventSerializer()
	require.NoError(t, NewOutboxPublisher(serializer).SaveEvents(ctx, db, projectEvents(t)...))

	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(project.EventTypeProjectCreated)
	bus.Subscribe(handler)

	repo := NewGormOutboxRepository(db)
	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.ProcessBatch(ctx)

	require.Len(t, handler.getHandled(), 1)
	assert.IsType(t, &project.ProjectCreatedEvent{}, handler.getHandled()[0])

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])

	// delivered entries are not picked up again
	processor.ProcessBatch(ctx)
	assert.Len(t, handler.getHandled(), 1)
}

func TestOutboxProcessor_FailedDeliveryIsRetried(t *testing.T) {
	db := setupOutboxDB(t)
	ctx := context.Background()
	serializer := NewBillingEventSerializer()
	events := projectEvents(t)[:1]
	require.NoError(t, NewOutboxPublisher(serializer).SaveEvents(ctx, db, events...))

	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(project.EventTypeProjectCreated)
	handler.setError(errors.New("downstream unavailable"))
	bus.Subscribe(handler)

	repo := NewGormOutboxRepository(db)
	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.ProcessBatch(ctx)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	retryable, err := repo.FindRetryable(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, 1, retryable[0].RetryCount)
	assert.Equal(t, "downstream unavailable", retryable[0].LastError)
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	db := setupOutboxDB(t)
	processor := NewOutboxProcessor(NewGormOutboxRepository(db), NewInMemoryEventBus(zap.NewNop()),
		NewBillingEventSerializer(), OutboxProcessorConfig{PollInterval: 10 * time.Millisecond}, zap.NewNop())

	require.NoError(t, processor.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, processor.Stop(ctx))
}

func TestGormOutboxRepository_DeleteSentBefore(t *testing.T) {
	db := setupOutboxDB(t)
	ctx := context.Background()
	repo := NewGormOutboxRepository(db)

	events := projectEvents(t)
	sent := shared.NewOutboxEntry(events[0], []byte(`{}`))
	sent.MarkSent()
	pending := shared.NewOutboxEntry(events[1], []byte(`{}`))
	require.NoError(t, repo.Save(ctx, sent, pending))

	deleted, err := repo.DeleteSentBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, sent.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

type countingHandler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (h *countingHandler) Handle(context.Context, shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.err
}

func (h *countingHandler) EventTypes() []string { return []string{"TestEvent"} }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	t.Run("skips redelivered event", func(t *testing.T) {
		inner := &countingHandler{}
		h := NewIdempotentHandler("notify", inner, store, time.Hour, zap.NewNop())
		event := newTestEvent("TestEvent", uuid.New())

		require.NoError(t, h.Handle(ctx, event))
		require.NoError(t, h.Handle(ctx, event))

		assert.Equal(t, 1, inner.calls)
		assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsDuplicate: 1}, h.Stats())
	})

	t.Run("handlers are deduplicated independently", func(t *testing.T) {
		a, b := &countingHandler{}, &countingHandler{}
		ha := NewIdempotentHandler("a", a, store, time.Hour, zap.NewNop())
		hb := NewIdempotentHandler("b", b, store, time.Hour, zap.NewNop())
		event := newTestEvent("TestEvent", uuid.New())

		require.NoError(t, ha.Handle(ctx, event))
		require.NoError(t, hb.Handle(ctx, event))

		assert.Equal(t, 1, a.calls)
		assert.Equal(t, 1, b.calls)
	})

	t.Run("failure releases the key", func(t *testing.T) {
		inner := &countingHandler{err: errors.New("smtp down")}
		h := NewIdempotentHandler("notify", inner, store, time.Hour, zap.NewNop())
		event := newTestEvent("TestEvent", uuid.New())

		require.Error(t, h.Handle(ctx, event))
		inner.err = nil
		require.NoError(t, h.Handle(ctx, event))

		assert.Equal(t, 2, inner.calls)
		assert.Equal(t, int64(1), h.Stats().EventsFailed)
	})
}

func TestGormOutboxRepository_FindDead(t *testing.T) {
	db := setupOutboxDB(t)
	ctx := context.Background()
	repo := NewGormOutboxRepository(db)

	tenantID := uuid.New()
	var entries []*shared.OutboxEntry
	for i := 0; i < 3; i++ {
		e := shared.NewOutboxEntry(projectEvents(t)[0], []byte(`{}`))
		e.TenantID = tenantID
		e.MaxRetries = 1
		e.MarkFailed("downstream unavailable")
		entries = append(entries, e)
	}
	other := shared.NewOutboxEntry(projectEvents(t)[0], []byte(`{}`))
	other.MaxRetries = 1
	other.MarkFailed("downstream unavailable")
	live := shared.NewOutboxEntry(projectEvents(t)[1], []byte(`{}`))
	live.TenantID = tenantID
	require.NoError(t, repo.Save(ctx, append(entries, other, live)...))

	page, total, err := repo.FindDead(ctx, tenantID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	page, total, err = repo.FindDead(ctx, tenantID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, shared.OutboxStatusDead, page[0].Status)

	counts, err := repo.CountByStatusForTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[shared.OutboxStatusDead])
	assert.Equal(t, int64(1), counts[shared.OutboxStatusPending])

	all, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all[shared.OutboxStatusDead])
}
