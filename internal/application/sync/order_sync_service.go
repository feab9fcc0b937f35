package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/circuithospitality/stockroom-sync/internal/domain/catalog"
	"github.com/circuithospitality/stockroom-sync/internal/domain/mapping"
	"github.com/circuithospitality/stockroom-sync/internal/domain/shared"
	"github.com/circuithospitality/stockroom-sync/internal/infrastructure/stockroom"
)

// priceOverrideTolerance is the largest deviation between the unit price
// charged locally and the remote catalog price that is still treated as
// equal. Deviations at or beyond it are sent as explicit overrides.
var priceOverrideTolerance = decimal.RequireFromString("0.009")

// CheckoutError aborts a checkout with a message safe to show the buyer
// while the wrapped cause carries the diagnostic detail.
type CheckoutError struct {
	UserMessage string
	Internal    error
}

func (e *CheckoutError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Internal)
	}
	return e.UserMessage
}

func (e *CheckoutError) Unwrap() error { return e.Internal }

// PaymentOutcome describes how a payment completion was handled.
type PaymentOutcome string

const (
	// PaymentCompleted means the remote order was placed and correlated.
	PaymentCompleted PaymentOutcome = "completed"
	// PaymentSkipped means the order carried no basket token and is not
	// one of ours.
	PaymentSkipped PaymentOutcome = "skipped"
	// PaymentAnnotated means placing the remote order failed and the
	// failure was recorded on the order; the local payment stands.
	PaymentAnnotated PaymentOutcome = "annotated"
)

// OrderSyncService correlates local orders with remote baskets and
// orders. Checkout fails closed; everything after a committed payment
// degrades to annotation instead of failing.
type OrderSyncService struct {
	api    StockroomAPI
	orders catalog.OrderStore
	logger *zap.Logger

	orderMappings  *mapping.Store
	variations     *mapping.Store
	simpleProducts *mapping.Store

	mu           gosync.Mutex
	pendingToken string
}

// NewOrderSyncService creates an OrderSyncService
func NewOrderSyncService(api StockroomAPI, orders catalog.OrderStore, repo mapping.Repository, logger *zap.Logger) *OrderSyncService {
	return &OrderSyncService{
		api:            api,
		orders:         orders,
		logger:         logger.Named("order_sync"),
		orderMappings:  mapping.NewStore(repo, ModelOrder),
		variations:     mapping.NewStore(repo, ModelVariation, mapping.InReverse()),
		simpleProducts: mapping.NewStore(repo, ModelSimpleProduct, mapping.InReverse()),
	}
}

// CreateBasketForCheckout resolves the cart into remote package lines,
// posts a basket with the customer's billing details, and remembers the
// returned token for attachment once the local order exists. Any
// unresolvable line aborts the checkout.
func (s *OrderSyncService) CreateBasketForCheckout(ctx context.Context, lines []catalog.CartLine, billing catalog.BillingAddress) (string, error) {
	items, err := s.resolveCartLines(ctx, lines)
	if err != nil {
		return "", err
	}

	req := stockroom.CreateBasketRequest{
		OrderItems:     items,
		Name:           customerName(billing),
		CompanyName:    nullable(billing.Company),
		Email:          billing.Email,
		BillingAddress: remoteAddress(billing),
	}
	basket, err := s.api.CreateBasket(ctx, req)
	if err != nil {
		var apiErr *stockroom.APIError
		if errors.As(err, &apiErr) {
			return "", &CheckoutError{
				UserMessage: strings.TrimPrefix(apiErr.Error(), "stockroom: "),
				Internal:    err,
			}
		}
		return "", &CheckoutError{
			UserMessage: "The booking could not be reserved. Please try again.",
			Internal:    err,
		}
	}

	token := basket.RemoteToken()
	s.mu.Lock()
	s.pendingToken = token
	s.mu.Unlock()

	s.logger.Info("basket created", zap.String("token", token), zap.Int("lines", len(items)))
	return token, nil
}

// resolveCartLines maps each cart line to its remote event package.
// Variations resolve through one namespace, simple products through
// another; a miss in both is fatal to the checkout.
func (s *OrderSyncService) resolveCartLines(ctx context.Context, lines []catalog.CartLine) ([]stockroom.OrderItem, error) {
	if len(lines) == 0 {
		return nil, &CheckoutError{
			UserMessage: "Your basket is empty.",
			Internal:    fmt.Errorf("checkout with no cart lines: %w", shared.ErrInvalidInput),
		}
	}

	items := make([]stockroom.OrderItem, 0, len(lines))
	for _, line := range lines {
		packageID, err := s.remotePackageID(ctx, line)
		if err != nil {
			return nil, err
		}
		items = append(items, stockroom.OrderItem{
			EventPackageID: packageID,
			Quantity:       line.Quantity,
		})
	}
	return items, nil
}

func (s *OrderSyncService) remotePackageID(ctx context.Context, line catalog.CartLine) (string, error) {
	if line.VariationID != "" {
		packageID, ok, err := s.variations.Get(ctx, line.VariationID)
		if err != nil {
			return "", err
		}
		if ok {
			return packageID, nil
		}
	} else {
		packageID, ok, err := s.simpleProducts.Get(ctx, line.ProductID)
		if err != nil {
			return "", err
		}
		if ok {
			return packageID, nil
		}
	}

	s.logger.Error("cart line has no remote package mapping",
		zap.String("product_id", line.ProductID),
		zap.String("variation_id", line.VariationID),
	)
	return "", &CheckoutError{
		UserMessage: "One of the items in your basket is no longer available.",
		Internal: fmt.Errorf("no package mapping for product %s variation %s: %w",
			line.ProductID, line.VariationID, shared.ErrNotFound),
	}
}

// AttachBasketToken writes the remembered basket token onto a freshly
// created order. Without a remembered token the order is simply left
// untagged.
func (s *OrderSyncService) AttachBasketToken(ctx context.Context, orderID string) error {
	s.mu.Lock()
	token := s.pendingToken
	s.pendingToken = ""
	s.mu.Unlock()

	if token == "" {
		s.logger.Debug("no pending basket token to attach", zap.String("order_id", orderID))
		return nil
	}
	return s.orders.SetBasketToken(ctx, orderID, token)
}

// CompletePayment places the remote order behind a paid local order. The
// local payment has already committed, so remote failure annotates the
// order instead of propagating.
func (s *OrderSyncService) CompletePayment(ctx context.Context, orderID string) (PaymentOutcome, error) {
	order, err := s.orders.Order(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.BasketToken == "" {
		// Not an order placed through a basket of ours.
		return PaymentSkipped, nil
	}

	req := stockroom.PlaceOrderRequest{
		Reference: orderReference(order),
		Status:    "completed",
		Note:      order.CustomerNote,
	}
	if err := s.api.PlaceOrder(ctx, order.BasketToken, req); err != nil {
		s.logger.Error("failed to place remote order",
			zap.String("order_id", orderID),
			zap.String("token", order.BasketToken),
			zap.Error(err),
		)
		note := fmt.Sprintf("Remote order placement failed: %v", err)
		if noteErr := s.orders.AddOrderNote(ctx, orderID, note); noteErr != nil {
			s.logger.Error("failed to annotate order", zap.String("order_id", orderID), zap.Error(noteErr))
		}
		return PaymentAnnotated, nil
	}

	if err := s.orderMappings.Set(ctx, order.BasketToken, orderID, false); err != nil {
		s.logger.Error("failed to record order correlation",
			zap.String("order_id", orderID),
			zap.String("token", order.BasketToken),
			zap.Error(err),
		)
	}
	return PaymentCompleted, nil
}

// CreateRemoteOrder is the administrative path: it builds a full remote
// order directly from an order created outside checkout. A no-op when
// the order already carries a token.
func (s *OrderSyncService) CreateRemoteOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.Order(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BasketToken != "" {
		s.logger.Debug("order already correlated, skipping remote creation",
			zap.String("order_id", orderID),
			zap.String("token", order.BasketToken),
		)
		return nil
	}

	items := make([]stockroom.OrderItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		packageID, err := s.remotePackageID(ctx, catalog.CartLine{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Quantity:    line.Quantity,
		})
		if err != nil {
			return s.failOrder(ctx, orderID, err)
		}

		item := stockroom.OrderItem{
			EventPackageID: packageID,
			Quantity:       line.Quantity,
		}
		applyPriceOverrides(&item, line)
		items = append(items, item)
	}

	req := stockroom.CreateOrderRequest{
		OrderItems:     items,
		Name:           customerName(order.Billing),
		CompanyName:    nullable(order.Billing.Company),
		Email:          order.Billing.Email,
		BillingAddress: remoteAddress(order.Billing),
		Reference:      orderReference(order),
		Status:         "completed",
		Note:           order.CustomerNote,
	}

	created, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return s.failOrder(ctx, orderID, err)
	}

	remoteID := created.ID.String()
	if err := s.orders.SetBasketToken(ctx, orderID, remoteID); err != nil {
		return err
	}
	if err := s.orderMappings.Set(ctx, remoteID, orderID, false); err != nil {
		s.logger.Error("failed to record order correlation",
			zap.String("order_id", orderID),
			zap.String("remote_order_id", remoteID),
			zap.Error(err),
		)
	}
	return nil
}

// failOrder marks the order failed and attaches the cause as a note
// before returning the original error.
func (s *OrderSyncService) failOrder(ctx context.Context, orderID string, cause error) error {
	if err := s.orders.MarkFailed(ctx, orderID); err != nil {
		s.logger.Error("failed to mark order failed", zap.String("order_id", orderID), zap.Error(err))
	}
	note := fmt.Sprintf("Remote order creation failed: %v", cause)
	if err := s.orders.AddOrderNote(ctx, orderID, note); err != nil {
		s.logger.Error("failed to annotate order", zap.String("order_id", orderID), zap.Error(err))
	}
	return cause
}

// applyPriceOverrides attaches explicit prices to an order item when the
// charged unit price deviates from the catalog price on either the net
// or the gross side. The overrides carry line totals, and both sides are
// sent together so the remote order stays internally consistent.
func applyPriceOverrides(item *stockroom.OrderItem, line catalog.OrderLine) {
	netDiffers := line.UnitNet.Sub(line.CatalogNet).Abs().GreaterThanOrEqual(priceOverrideTolerance)
	grossDiffers := line.UnitGross.Sub(line.CatalogGross).Abs().GreaterThanOrEqual(priceOverrideTolerance)
	if !netDiffers && !grossDiffers {
		return
	}

	qty := decimal.NewFromInt(int64(line.Quantity))
	net := catalog.FormatPrice(line.UnitNet.Mul(qty))
	gross := catalog.FormatPrice(line.UnitGross.Mul(qty))
	item.NetPrice = &net
	item.GrossPrice = &gross
}

// customerName joins the billing first and last name the way the remote
// side expects a single display name.
func customerName(b catalog.BillingAddress) string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// nullable maps an empty string onto an explicit JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// remoteAddress converts local billing details into the remote address
// block. The state maps onto county.
func remoteAddress(b catalog.BillingAddress) *stockroom.BillingAddress {
	return &stockroom.BillingAddress{
		Country:      b.Country,
		PostCode:     b.Postcode,
		County:       nullable(b.State),
		City:         b.City,
		AddressLine1: b.Address1,
		AddressLine2: nullable(b.Address2),
	}
}

// orderReference picks the reference sent with a remote order: the
// invoice number when one exists, otherwise a synthetic reference from
// the internal order ID.
func orderReference(order catalog.Order) string {
	if order.InvoiceNumber != "" {
		return order.InvoiceNumber
	}
	return "post_id:" + order.ID
}
