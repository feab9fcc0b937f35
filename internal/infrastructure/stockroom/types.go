package stockroom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexID is an identifier that the remote API serializes sometimes as a
// JSON number and sometimes as a string.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// String returns the ID as a plain string
func (f FlexID) String() string {
	return string(f)
}

// Flag is a boolean that the remote API serializes as true/false, 0/1,
// or "0"/"1".
type Flag bool

// UnmarshalJSON implements json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "true", "1":
		*f = true
	case "false", "0", "", "null":
		*f = false
	default:
		return fmt.Errorf("cannot parse %q as flag", string(data))
	}
	return nil
}

// Bool returns the flag as a plain bool
func (f Flag) Bool() bool {
	return bool(f)
}

// Document is the generic envelope of a remote API response. Data holds
// the raw payload for typed decoding; Errors and Message are populated
// on structured error responses.
type Document struct {
	Data    json.RawMessage     `json:"data"`
	Total   int                 `json:"total"`
	Errors  map[string][]string `json:"errors"`
	Message string              `json:"message"`

	// StatusCode is the HTTP status the document arrived with
	StatusCode int `json:"-"`
}

// HasErrors reports whether the response carries a structured error body
func (d *Document) HasErrors() bool {
	return len(d.Errors) > 0 || d.Message != ""
}

// ErrorText flattens the structured error body into one readable line,
// field errors sorted by field name for stable output.
func (d *Document) ErrorText() string {
	parts := make([]string, 0, len(d.Errors)+1)
	if d.Message != "" {
		parts = append(parts, d.Message)
	}

	fields := make([]string, 0, len(d.Errors))
	for field := range d.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(d.Errors[field], ", ")))
	}

	return strings.Join(parts, "; ")
}

// Decode unmarshals the data payload into v
func (d *Document) Decode(v any) error {
	if len(d.Data) == 0 {
		return fmt.Errorf("response has no data payload")
	}
	return json.Unmarshal(d.Data, v)
}

// Event is the remote representation of a bookable event. Pointer fields
// distinguish "absent from the payload" from zero values, preserving the
// partial-update semantics of webhook deltas.
type Event struct {
	ID            FlexID         `json:"id"`
	Name          *string        `json:"name"`
	Active        *Flag          `json:"active"`
	Simple        *Flag          `json:"simple"`
	EventTypeID   *FlexID        `json:"event_type_id"`
	HomeTeamID    *FlexID        `json:"home_team_id"`
	AwayTeamID    *FlexID        `json:"away_team_id"`
	VenueID       *FlexID        `json:"venue_id"`
	StartsAt      *string        `json:"starts_at"`
	EventPackages []EventPackage `json:"event_packages"`
}

// EventPackage ties a package to an event with its own price and stock.
type EventPackage struct {
	ID             FlexID           `json:"id"`
	EventID        *FlexID          `json:"event_id"`
	PackageID      *FlexID          `json:"package_id"`
	NetPrice       *decimal.Decimal `json:"net_price"`
	GrossPrice     *decimal.Decimal `json:"gross_price"`
	AvailableStock *int             `json:"available_stock"`
	Package        *Package         `json:"package"`
}

// EventType is a node in the remote type hierarchy.
type EventType struct {
	ID                FlexID  `json:"id"`
	Name              string  `json:"name"`
	ParentEventTypeID *FlexID `json:"parent_event_type_id"`
}

// Club is a team an event may belong to.
type Club struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// Venue is the location an event takes place at.
type Venue struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// Package is the descriptive master record behind an event package.
type Package struct {
	ID           FlexID  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	DayInfo      *string `json:"day_info"`
	Inclusions   *string `json:"inclusions"`
	Informations *string `json:"informations"`
}

// OrderItem is one line of a basket or order creation request. The price
// override fields are only set when the local unit price deviates from
// the remote catalog default; overrides carry line totals, not per-unit
// amounts.
type OrderItem struct {
	EventPackageID string  `json:"event_package_id"`
	Quantity       int     `json:"quantity"`
	NetPrice       *string `json:"net_price,omitempty"`
	GrossPrice     *string `json:"gross_price,omitempty"`
}

// CreateBasketRequest creates an in-progress remote order. CompanyName
// is null when the customer supplied none.
type CreateBasketRequest struct {
	OrderItems     []OrderItem     `json:"order_items"`
	Name           string          `json:"name"`
	CompanyName    *string         `json:"company_name"`
	Email          string          `json:"email"`
	BillingAddress *BillingAddress `json:"billing_address"`
}

// CreatedBasket is the response payload of a basket creation. The basket
// identifier arrives in the id field; token is accepted as a fallback
// from older deployments.
type CreatedBasket struct {
	ID    FlexID `json:"id"`
	Token FlexID `json:"token"`
}

// RemoteToken returns the identifier that correlates the basket with a
// local order.
func (b *CreatedBasket) RemoteToken() string {
	if b.ID != "" {
		return b.ID.String()
	}
	return b.Token.String()
}

// PlaceOrderRequest finalizes a basket into a completed order.
type PlaceOrderRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
}

// BillingAddress is the address block sent with basket and order
// creation. County holds the region or state; the nullable fields are
// null when the customer supplied nothing.
type BillingAddress struct {
	Country      string  `json:"country"`
	PostCode     string  `json:"post_code"`
	County       *string `json:"county"`
	City         string  `json:"city"`
	AddressLine1 string  `json:"address_line_1"`
	AddressLine2 *string `json:"address_line_2"`
}

// CreateOrderRequest creates a completed remote order directly, bypassing
// the basket flow. Used by the administrative path.
type CreateOrderRequest struct {
	OrderItems     []OrderItem     `json:"order_items"`
	Name           string          `json:"name"`
	CompanyName    *string         `json:"company_name"`
	Email          string          `json:"email"`
	BillingAddress *BillingAddress `json:"billing_address"`
	Reference      string          `json:"reference"`
	Status         string          `json:"status,omitempty"`
	Note           string          `json:"note,omitempty"`
}

// CreatedOrder is the response payload of a direct order creation.
type CreatedOrder struct {
	ID FlexID `json:"id"`
}
