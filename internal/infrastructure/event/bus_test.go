package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), tenantID),
		Data:            "test data",
	}
}

// testHandler records what it receives
type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string {
	return []string{billing.EventTypeProgressPaymentApproved}
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	tenantID := uuid.New()
	created := newTestEvent(billing.EventTypeProgressPaymentCreated, tenantID)
	approved := newTestEvent(billing.EventTypeProgressPaymentApproved, tenantID)
	projectCreated := newTestEvent(project.EventTypeProjectCreated, tenantID)

	tests := []struct {
		name      string
		types     []string
		subscribe []string
		want      []shared.DomainEvent
	}{
		{
			name:  "own event types",
			types: []string{billing.EventTypeProgressPaymentApproved},
			want:  []shared.DomainEvent{approved},
		},
		{
			name:  "several types",
			types: []string{billing.EventTypeProgressPaymentCreated, billing.EventTypeProgressPaymentApproved},
			want:  []shared.DomainEvent{created, approved},
		},
		{
			name: "no types receives everything",
			want: []shared.DomainEvent{created, approved, projectCreated},
		},
		{
			name:      "explicit types override the handler's",
			types:     []string{billing.EventTypeProgressPaymentApproved},
			subscribe: []string{project.EventTypeProjectCreated},
			want:      []shared.DomainEvent{projectCreated},
		},
		{
			name:  "unrelated type",
			types: []string{project.EventTypeProjectCustomerAssigned},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(zap.NewNop())
			handler := newTestHandler(tt.types...)
			bus.Subscribe(handler, tt.subscribe...)

			require.NoError(t, bus.Publish(context.Background(), created, approved, projectCreated))

			assert.Equal(t, tt.want, handler.getHandled())
		})
	}
}

func TestInMemoryEventBus_Publish_FanOut(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	typed := newTestHandler(billing.EventTypeProgressPaymentApproved)
	wildcard := newTestHandler()
	bus.Subscribe(typed)
	bus.Subscribe(wildcard)

	event := newTestEvent(billing.EventTypeProgressPaymentApproved, uuid.New())
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Len(t, typed.getHandled(), 1)
	assert.Len(t, wildcard.getHandled(), 1)
}

func TestInMemoryEventBus_Publish_Failures(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler(billing.EventTypeProgressPaymentApproved)
	failing.setError(errors.New("mail relay down"))
	healthy := newTestHandler(billing.EventTypeProgressPaymentApproved)
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent(billing.EventTypeProgressPaymentApproved, uuid.New()))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail relay down")
	assert.Contains(t, err.Error(), "handler panicked: boom")
	assert.Len(t, healthy.getHandled(), 1, "remaining handlers still run")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler(billing.EventTypeProgressPaymentCreated, billing.EventTypeProgressPaymentApproved)
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	ctx := context.Background()
	tenantID := uuid.New()
	require.NoError(t, bus.Publish(ctx,
		newTestEvent(billing.EventTypeProgressPaymentCreated, tenantID),
		newTestEvent(billing.EventTypeProgressPaymentApproved, tenantID),
	))

	assert.Empty(t, handler.getHandled())
	assert.Empty(t, bus.handlersFor(billing.EventTypeProgressPaymentApproved))
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), newTestEvent(billing.EventTypeProgressPaymentCreated, uuid.New()))
		}()
	}
	wg.Wait()

	assert.Len(t, handler.getHandled(), 20)
}
