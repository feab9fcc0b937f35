package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
)

// OrderEventHandler bridges order lifecycle events from the event bus
// into the order correlation service.
type OrderEventHandler struct {
	orders *OrderSyncService
	logger *zap.Logger
}

// NewOrderEventHandler creates an OrderEventHandler
func NewOrderEventHandler(orders *OrderSyncService, logger *zap.Logger) *OrderEventHandler {
	return &OrderEventHandler{
		orders: orders,
		logger: logger.Named("order_events"),
	}
}

// EventTypes implements shared.EventHandler
func (h *OrderEventHandler) EventTypes() []string {
	return []string{
		catalog.EventTypeOrderCreated,
		catalog.EventTypePaymentCompleted,
		catalog.EventTypeOrderSendRequested,
	}
}

// Handle implements shared.EventHandler
func (h *OrderEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	orderID := event.SubjectID()

	switch event.EventType() {
	case catalog.EventTypeOrderCreated:
		return h.orders.AttachBasketToken(ctx, orderID)
	case catalog.EventTypePaymentCompleted:
		outcome, err := h.orders.CompletePayment(ctx, orderID)
		if err != nil {
			return err
		}
		h.logger.Info("payment completion handled",
			zap.String("order_id", orderID),
			zap.String("outcome", string(outcome)),
		)
		return nil
	case catalog.EventTypeOrderSendRequested:
		return h.orders.CreateRemoteOrder(ctx, orderID)
	default:
		return fmt.Errorf("%w: unexpected event type %s", shared.ErrInvalidInput, event.EventType())
	}
}
