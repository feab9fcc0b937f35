package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// CartLine is one line of a checkout cart, before an order exists.
// VariationID is empty for simple products.
type CartLine struct {
	ProductID   string
	VariationID string
	Quantity    int
}

// OrderLine is one line of a persisted local order. CatalogNet and
// CatalogGross are the per-unit catalog defaults captured at order time,
// used to detect manual price adjustments.
type OrderLine struct {
	ProductID    string
	VariationID  string
	Quantity     int
	UnitNet      decimal.Decimal
	UnitGross    decimal.Decimal
	CatalogNet   decimal.Decimal
	CatalogGross decimal.Decimal
}

// BillingAddress holds the customer details forwarded with an order.
type BillingAddress struct {
	FirstName string
	LastName  string
	Company   string
	Email     string
	Phone     string
	Address1  string
	Address2  string
	City      string
	State     string
	Postcode  string
	Country   string
}

// Order is the minimal projection of a local order the correlation
// state machine reads.
type Order struct {
	ID            string
	InvoiceNumber string
	CustomerNote  string
	Billing       BillingAddress
	Lines         []OrderLine
	BasketToken   string
}

// OrderStore is the slice of the local order system the correlation
// state machine needs. The platform owns order persistence; this core
// only reads orders and attaches metadata.
type OrderStore interface {
	// Order returns an order by local ID, or shared.ErrNotFound.
	Order(ctx context.Context, id string) (Order, error)

	// SetBasketToken attaches the remote basket/order identifier as
	// order metadata.
	SetBasketToken(ctx context.Context, orderID, token string) error

	// AddOrderNote appends a diagnostic note to the order.
	AddOrderNote(ctx context.Context, orderID, note string) error

	// MarkFailed transitions the order into the failed status.
	MarkFailed(ctx context.Context, orderID string) error
}
