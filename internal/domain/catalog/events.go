package catalog

import (
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
)

// Event types published by the host platform's order lifecycle.
const (
	EventTypeOrderCreated       = "order.created"
	EventTypePaymentCompleted   = "order.payment_completed"
	EventTypeOrderSendRequested = "order.send_requested"
)

// OrderCreatedEvent fires once a local order has been persisted after
// checkout.
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID string `json:"order_id"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(orderID string) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, "order", orderID),
		OrderID:         orderID,
	}
}

// PaymentCompletedEvent fires when a local order's payment has been
// captured.
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID string `json:"order_id"`
}

// NewPaymentCompletedEvent creates a PaymentCompletedEvent
func NewPaymentCompletedEvent(orderID string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, "order", orderID),
		OrderID:         orderID,
	}
}

// OrderSendRequestedEvent fires when an operator asks for an order to be
// created remotely outside the normal checkout flow.
type OrderSendRequestedEvent struct {
	shared.BaseDomainEvent
	OrderID string `json:"order_id"`
}

// NewOrderSendRequestedEvent creates an OrderSendRequestedEvent
func NewOrderSendRequestedEvent(orderID string) *OrderSendRequestedEvent {
	return &OrderSendRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderSendRequested, "order", orderID),
		OrderID:         orderID,
	}
}
