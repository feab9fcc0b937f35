package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/event"
)

func TestOrderEventHandler_DispatchesThroughBus(t *testing.T) {
	svc, api, orders, repo := newTestOrderSync(t)
	seedPackageMappings(t, repo)
	api.basketToken = "tok-9"
	orders.orders["60"] = catalog.Order{ID: "60", InvoiceNumber: "INV-60"}

	_, err := svc.CreateBasketForCheckout(context.Background(), []catalog.CartLine{
		{VariationID: "v1", Quantity: 1},
	}, checkoutBilling())
	require.NoError(t, err)

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewOrderEventHandler(svc, zap.NewNop()))

	require.NoError(t, bus.Publish(context.Background(), catalog.NewOrderCreatedEvent("60")))
	assert.Equal(t, "tok-9", orders.orders["60"].BasketToken)

	require.NoError(t, bus.Publish(context.Background(), catalog.NewPaymentCompletedEvent("60")))
	require.Len(t, api.placedTokens, 1)
	assert.Equal(t, "tok-9", api.placedTokens[0])
	assert.Len(t, repo.records(ModelOrder), 1)
}

func TestOrderEventHandler_SendRequestedCreatesRemoteOrder(t *testing.T) {
	svc, api, orders, repo := newTestOrderSync(t)
	seedPackageMappings(t, repo)
	api.createdOrderID = "9100"
	orders.orders["61"] = adminOrder("61")

	handler := NewOrderEventHandler(svc, zap.NewNop())
	require.NoError(t, handler.Handle(context.Background(), catalog.NewOrderSendRequestedEvent("61")))

	require.Len(t, api.orderRequests, 1)
	assert.Equal(t, "9100", orders.orders["61"].BasketToken)
}
