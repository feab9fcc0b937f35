package sync

import (
	"context"

	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/stockroom"
)

// Mapping namespaces used across the sync services.
const (
	ModelEvent         = "event"
	ModelEventType     = "event_type"
	ModelClub          = "club"
	ModelVenue         = "venue"
	ModelVariation     = "product_variation"
	ModelSimpleProduct = "simple_product"
	ModelOrder         = "order"
)

// ChangeType is the operation a change event describes.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// StockroomAPI is the slice of the remote catalog/booking API the sync
// services depend on.
type StockroomAPI interface {
	FetchEvents(ctx context.Context, page, limit int) ([]stockroom.Event, int, error)
	FetchEvent(ctx context.Context, id string) (*stockroom.Event, error)
	FetchEventType(ctx context.Context, id string) (*stockroom.EventType, error)
	FetchClub(ctx context.Context, id string) (*stockroom.Club, error)
	FetchVenue(ctx context.Context, id string) (*stockroom.Venue, error)
	FetchPackage(ctx context.Context, id string) (*stockroom.Package, error)
	CreateBasket(ctx context.Context, req stockroom.CreateBasketRequest) (*stockroom.CreatedBasket, error)
	PlaceOrder(ctx context.Context, token string, req stockroom.PlaceOrderRequest) error
	CreateOrder(ctx context.Context, req stockroom.CreateOrderRequest) (*stockroom.CreatedOrder, error)
}

var _ StockroomAPI = (*stockroom.Client)(nil)
