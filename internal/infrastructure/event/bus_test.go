package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func TestInMemoryEventBus_PublishDispatchesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	orderHandler := &recordingHandler{types: []string{"order.created"}}
	paymentHandler := &recordingHandler{types: []string{"order.payment_completed"}}

	bus.Subscribe(orderHandler)
	bus.Subscribe(paymentHandler)

	ev := shared.NewBaseDomainEvent("order.created", "order", "1001")
	require.NoError(t, bus.Publish(context.Background(), &ev))

	assert.Len(t, orderHandler.received, 1)
	assert.Empty(t, paymentHandler.received)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"order.created"}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"order.created"}}

	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	ev := shared.NewBaseDomainEvent("order.created", "order", "1001")
	require.NoError(t, bus.Publish(context.Background(), &ev))

	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{types: []string{"order.created"}, panics: true}
	healthy := &recordingHandler{types: []string{"order.created"}}

	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	ev := shared.NewBaseDomainEvent("order.created", "order", "1001")
	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), &ev)
	})
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"order.created"}}

	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	ev := shared.NewBaseDomainEvent("order.created", "order", "1001")
	require.NoError(t, bus.Publish(context.Background(), &ev))
	assert.Empty(t, handler.received)
}
